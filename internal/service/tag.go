package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/store"
	"github.com/illustrationsapp/illustrations-server/internal/util"
)

// TagSearchLimit caps prefix search results.
const TagSearchLimit = 10

// TagService manages an owner's tag set.
// Names are normalized before persistence and slugs are unique per owner.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTags returns the owner's tags ordered by name.
func (s *TagService) ListTags(ctx context.Context, ownerID int64) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, ownerID)
	return tags, store.ToDomain(err, "list tags")
}

// SearchTags returns up to TagSearchLimit of the owner's tags whose name
// starts with prefix.
func (s *TagService) SearchTags(ctx context.Context, ownerID int64, prefix string) ([]*domain.Tag, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, domainerrors.ValidationField("prefix", "is required")
	}
	tags, err := s.store.SearchTags(ctx, ownerID, prefix, TagSearchLimit)
	return tags, store.ToDomain(err, "search tags")
}

// GetTag returns one of the owner's tags.
func (s *TagService) GetTag(ctx context.Context, ownerID, tagID int64) (*domain.Tag, error) {
	t, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, store.ToDomain(err, "get tag")
	}
	if t.OwnerID != ownerID {
		return nil, domainerrors.Forbidden(fmt.Sprintf("tag %d is not owned by the requester", tagID))
	}
	return t, nil
}

// CreateTag normalizes rawName and stores a new tag.
// Returns an ALREADY_EXISTS error when the owner has the slug already.
func (s *TagService) CreateTag(ctx context.Context, ownerID int64, rawName string) (*domain.Tag, error) {
	name, err := util.NormalizeTag(rawName)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.IsSlugTaken(ctx, ownerID, name.Slug)
	if err != nil {
		return nil, store.ToDomain(err, "check tag slug")
	}
	if taken {
		return nil, domainerrors.AlreadyExists(fmt.Sprintf("tag %q already exists", name.Slug))
	}

	now := time.Now()
	t := &domain.Tag{
		OwnerID:   ownerID,
		Name:      name.Name,
		Slug:      name.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTag(ctx, t); err != nil {
		return nil, store.ToDomain(err, "create tag")
	}

	s.logger.Info("tag created", "tag_id", t.ID, "slug", t.Slug, "owner_id", ownerID)
	return t, nil
}

// NormalizeTags canonicalizes raw tag names for ownerID, dropping duplicate
// slugs. The returned tags carry no ID; the store finds or creates them in the
// same transaction that links them to an illustration.
func (s *TagService) NormalizeTags(ownerID int64, rawNames []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(rawNames))
	seen := make(map[string]struct{}, len(rawNames))
	for _, raw := range rawNames {
		name, err := util.NormalizeTag(raw)
		if err != nil {
			return nil, domainerrors.ValidationField("tags", fmt.Sprintf("contains an invalid tag %q", raw))
		}
		if _, dup := seen[name.Slug]; dup {
			continue
		}
		seen[name.Slug] = struct{}{}
		tags = append(tags, domain.Tag{OwnerID: ownerID, Name: name.Name, Slug: name.Slug})
	}
	return tags, nil
}

// RenameTag renames one of the owner's tags, re-deriving its slug.
func (s *TagService) RenameTag(ctx context.Context, ownerID, tagID int64, rawName string) (*domain.Tag, error) {
	t, err := s.GetTag(ctx, ownerID, tagID)
	if err != nil {
		return nil, err
	}

	name, err := util.NormalizeTag(rawName)
	if err != nil {
		return nil, err
	}

	if name.Slug != t.Slug {
		taken, err := s.store.IsSlugTaken(ctx, ownerID, name.Slug)
		if err != nil {
			return nil, store.ToDomain(err, "check tag slug")
		}
		if taken {
			return nil, domainerrors.AlreadyExists(fmt.Sprintf("tag %q already exists", name.Slug))
		}
	}

	t.Name, t.Slug = name.Name, name.Slug
	t.Touch()
	if err := s.store.UpdateTag(ctx, t); err != nil {
		return nil, store.ToDomain(err, "update tag")
	}

	s.logger.Info("tag renamed", "tag_id", t.ID, "slug", t.Slug, "owner_id", ownerID)
	return t, nil
}

// DeleteTag removes one of the owner's tags and detaches it everywhere.
func (s *TagService) DeleteTag(ctx context.Context, ownerID, tagID int64) error {
	if _, err := s.GetTag(ctx, ownerID, tagID); err != nil {
		return err
	}
	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return store.ToDomain(err, "delete tag")
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "owner_id", ownerID)
	return nil
}
