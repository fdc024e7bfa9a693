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
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// CreatePlaceRequest is the input for a new usage record.
type CreatePlaceRequest struct {
	Place    string `json:"place" validate:"required,max=255"`
	Location string `json:"location" validate:"max=255"`
	Used     string `json:"used" validate:"omitempty,datetime=2006-01-02"`
}

// UpdatePlaceRequest is a partial update; nil fields are left alone.
// IllustrationID, when set, must name the illustration the place belongs to.
type UpdatePlaceRequest struct {
	IllustrationID *int64  `json:"illustration_id,omitempty"`
	Place          *string `json:"place,omitempty" validate:"omitempty,min=1,max=255"`
	Location       *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Used           *string `json:"used,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PlaceService manages where illustrations were used.
// Only the owner of an illustration can read or change its places.
type PlaceService struct {
	store         store.Store
	illustrations *IllustrationService
	validator     *validation.Validator
	logger        *slog.Logger
}

// NewPlaceService creates a new place service.
func NewPlaceService(store store.Store, illustrations *IllustrationService, validator *validation.Validator, logger *slog.Logger) *PlaceService {
	return &PlaceService{
		store:         store,
		illustrations: illustrations,
		validator:     validator,
		logger:        logger,
	}
}

// List returns the places recorded for one of the owner's illustrations.
func (s *PlaceService) List(ctx context.Context, ownerID, illustrationID int64) ([]*domain.Place, error) {
	if _, err := s.illustrations.Get(ctx, ownerID, illustrationID); err != nil {
		return nil, err
	}
	places, err := s.store.ListPlaces(ctx, illustrationID)
	return places, store.ToDomain(err, "list places")
}

// Create records a new use of one of the owner's illustrations.
func (s *PlaceService) Create(ctx context.Context, ownerID, illustrationID int64, req CreatePlaceRequest) (*domain.Place, error) {
	req.Place = strings.TrimSpace(req.Place)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.illustrations.Get(ctx, ownerID, illustrationID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &domain.Place{
		IllustrationID: illustrationID,
		OwnerID:        ownerID,
		Place:          req.Place,
		Location:       strings.TrimSpace(req.Location),
		Used:           req.Used,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreatePlace(ctx, p); err != nil {
		return nil, store.ToDomain(err, "create place")
	}

	s.logger.Info("place created", "place_id", p.ID, "illustration_id", illustrationID, "owner_id", ownerID)
	return p, nil
}

// Get returns one of the owner's places.
func (s *PlaceService) Get(ctx context.Context, ownerID, placeID int64) (*domain.Place, error) {
	p, err := s.store.GetPlace(ctx, placeID)
	if err != nil {
		return nil, store.ToDomain(err, "get place")
	}
	if p.OwnerID != ownerID {
		return nil, domainerrors.Forbidden(fmt.Sprintf("place %d is not owned by the requester", placeID))
	}
	return p, nil
}

// Update applies a partial update to one of the owner's places.
func (s *PlaceService) Update(ctx context.Context, ownerID, placeID int64, req UpdatePlaceRequest) (*domain.Place, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, ownerID, placeID)
	if err != nil {
		return nil, err
	}
	if req.IllustrationID != nil && *req.IllustrationID != p.IllustrationID {
		return nil, domainerrors.ValidationField("illustration_id",
			fmt.Sprintf("does not match place %d", placeID))
	}

	if req.Place != nil {
		name := strings.TrimSpace(*req.Place)
		if name == "" {
			return nil, domainerrors.ValidationField("place", "is required")
		}
		p.Place = name
	}
	if req.Location != nil {
		p.Location = strings.TrimSpace(*req.Location)
	}
	if req.Used != nil {
		p.Used = *req.Used
	}
	p.Touch()

	if err := s.store.UpdatePlace(ctx, p); err != nil {
		return nil, store.ToDomain(err, "update place")
	}

	s.logger.Info("place updated", "place_id", p.ID, "owner_id", ownerID)
	return p, nil
}

// Delete removes one of the owner's places.
func (s *PlaceService) Delete(ctx context.Context, ownerID, placeID int64) error {
	if _, err := s.Get(ctx, ownerID, placeID); err != nil {
		return err
	}
	if err := s.store.DeletePlace(ctx, placeID); err != nil {
		return store.ToDomain(err, "delete place")
	}

	s.logger.Info("place deleted", "place_id", placeID, "owner_id", ownerID)
	return nil
}
