package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/embedding"
	"github.com/illustrationsapp/illustrations-server/internal/store"
	"github.com/illustrationsapp/illustrations-server/internal/util"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// Listing bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// CreateIllustrationRequest is the input for a new illustration.
// Blank title, author and content receive defaults.
type CreateIllustrationRequest struct {
	Title     string   `json:"title" validate:"max=255"`
	Author    string   `json:"author" validate:"max=255"`
	Source    string   `json:"source" validate:"max=1000"`
	Content   string   `json:"content" validate:"max=20000"`
	Tags      []string `json:"tags" validate:"max=50,dive,max=100"`
	IsPrivate bool     `json:"is_private"`
}

// UpdateIllustrationRequest is a partial update; nil fields are left alone.
// A non-nil empty Tags clears the tag set.
type UpdateIllustrationRequest struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Author    *string  `json:"author,omitempty" validate:"omitempty,max=255"`
	Source    *string  `json:"source,omitempty" validate:"omitempty,max=1000"`
	Content   *string  `json:"content,omitempty" validate:"omitempty,max=20000"`
	Tags      []string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=100"`
	IsPrivate *bool    `json:"is_private,omitempty"`
}

// IllustrationService manages illustration records.
type IllustrationService struct {
	store     store.Store
	tags      *TagService
	embedder  embedding.Embedder
	validator *validation.Validator
	logger    *slog.Logger
}

// NewIllustrationService creates a new illustration service.
// embedder may be nil, in which case embeddings are left for the backfill.
func NewIllustrationService(store store.Store, tags *TagService, embedder embedding.Embedder, validator *validation.Validator, logger *slog.Logger) *IllustrationService {
	return &IllustrationService{
		store:     store,
		tags:      tags,
		embedder:  embedder,
		validator: validator,
		logger:    logger,
	}
}

// Create stores a new illustration for ownerID.
func (s *IllustrationService) Create(ctx context.Context, ownerID int64, req CreateIllustrationRequest) (*domain.Illustration, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tags, err := s.tags.NormalizeTags(ownerID, req.Tags)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	il := &domain.Illustration{
		OwnerID:   ownerID,
		Title:     util.TitleCase(req.Title),
		Author:    strings.TrimSpace(req.Author),
		Source:    strings.TrimSpace(req.Source),
		Content:   strings.TrimSpace(req.Content),
		IsPrivate: req.IsPrivate,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	il.ApplyDefaults()
	il.Embedding = s.embed(ctx, il)

	if err := s.store.CreateIllustration(ctx, il); err != nil {
		return nil, store.ToDomain(err, "create illustration")
	}

	s.logger.Info("illustration created",
		"illustration_id", il.ID,
		"owner_id", ownerID,
		"tags", len(il.Tags),
		"embedded", il.HasEmbedding(),
	)
	return il, nil
}

// Get returns one of the owner's illustrations.
func (s *IllustrationService) Get(ctx context.Context, ownerID, illustrationID int64) (*domain.Illustration, error) {
	il, err := s.store.GetIllustration(ctx, illustrationID)
	if err != nil {
		return nil, store.ToDomain(err, "get illustration")
	}
	if il.OwnerID != ownerID {
		return nil, domainerrors.Forbidden(fmt.Sprintf("illustration %d is not owned by the requester", illustrationID))
	}
	return il, nil
}

// List returns a page of the owner's illustrations, newest first.
func (s *IllustrationService) List(ctx context.Context, ownerID int64, limit, offset int) ([]*domain.Illustration, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		return nil, domainerrors.ValidationField("limit", "must be between 1 and 100")
	}
	if offset < 0 {
		return nil, domainerrors.ValidationField("offset", "must not be negative")
	}

	list, err := s.store.ListIllustrations(ctx, ownerID, limit, offset)
	return list, store.ToDomain(err, "list illustrations")
}

// ListByTag returns a page of the owner's illustrations carrying the tag
// named rawName, newest first. The name is normalized to its slug, so
// "fire & ice" and "fire-ice" address the same tag.
func (s *IllustrationService) ListByTag(ctx context.Context, ownerID int64, rawName string, limit, offset int) ([]*domain.Illustration, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		return nil, domainerrors.ValidationField("limit", "must be between 1 and 100")
	}
	if offset < 0 {
		return nil, domainerrors.ValidationField("offset", "must not be negative")
	}

	name, err := util.NormalizeTag(rawName)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetTagBySlug(ctx, ownerID, name.Slug); err != nil {
		return nil, store.ToDomain(err, "get tag")
	}

	list, err := s.store.ListIllustrationsByTag(ctx, ownerID, name.Slug, limit, offset)
	return list, store.ToDomain(err, "list illustrations by tag")
}

// Update applies a partial update to one of the owner's illustrations.
// The embedding is recomputed when title or content change.
func (s *IllustrationService) Update(ctx context.Context, ownerID, illustrationID int64, req UpdateIllustrationRequest) (*domain.Illustration, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	il, err := s.Get(ctx, ownerID, illustrationID)
	if err != nil {
		return nil, err
	}

	before := il.EmbeddingText()
	if req.Title != nil {
		il.Title = util.TitleCase(*req.Title)
	}
	if req.Author != nil {
		il.Author = strings.TrimSpace(*req.Author)
	}
	if req.Source != nil {
		il.Source = strings.TrimSpace(*req.Source)
	}
	if req.Content != nil {
		il.Content = strings.TrimSpace(*req.Content)
	}
	if req.IsPrivate != nil {
		il.IsPrivate = *req.IsPrivate
	}
	if req.Tags != nil {
		if il.Tags, err = s.tags.NormalizeTags(ownerID, req.Tags); err != nil {
			return nil, err
		}
	}
	il.ApplyDefaults()
	il.Touch()

	if err := s.store.UpdateIllustration(ctx, il); err != nil {
		return nil, store.ToDomain(err, "update illustration")
	}

	if s.embedder != nil && il.EmbeddingText() != before {
		il.Embedding = s.embed(ctx, il)
		if err := s.store.SetIllustrationEmbedding(ctx, il.ID, il.Embedding); err != nil {
			return nil, store.ToDomain(err, "store embedding")
		}
	}

	s.logger.Info("illustration updated", "illustration_id", il.ID, "owner_id", ownerID)
	return il, nil
}

// Delete removes one of the owner's illustrations.
func (s *IllustrationService) Delete(ctx context.Context, ownerID, illustrationID int64) error {
	if _, err := s.Get(ctx, ownerID, illustrationID); err != nil {
		return err
	}
	if err := s.store.DeleteIllustration(ctx, illustrationID); err != nil {
		return store.ToDomain(err, "delete illustration")
	}

	s.logger.Info("illustration deleted", "illustration_id", illustrationID, "owner_id", ownerID)
	return nil
}

// embed computes the illustration's embedding, returning nil when no embedder
// is configured or the provider fails. A nil embedding is picked up by the
// backfill later.
func (s *IllustrationService) embed(ctx context.Context, il *domain.Illustration) []float32 {
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, il.EmbeddingText())
	if err != nil {
		s.logger.Warn("embedding failed, leaving for backfill", "illustration_id", il.ID, "error", err)
		return nil
	}
	return vec
}
