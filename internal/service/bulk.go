package service

import (
	"context"
	"log/slog"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/id"
	"github.com/illustrationsapp/illustrations-server/internal/metrics"
	"github.com/illustrationsapp/illustrations-server/internal/store"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// BulkService applies bulk mutations atomically.
type BulkService struct {
	store  store.Store
	logger *slog.Logger
}

// NewBulkService creates a new bulk mutation service.
func NewBulkService(store store.Store, logger *slog.Logger) *BulkService {
	return &BulkService{
		store:  store,
		logger: logger,
	}
}

// Apply validates req and applies it for ownerID in one transaction.
// Either every illustration is mutated or none is.
func (s *BulkService) Apply(ctx context.Context, ownerID int64, req domain.BulkRequest) (*domain.BulkResult, error) {
	action, err := validation.ValidateBulkAction(req)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, ownerID, action)
}

// Execute applies an already validated action.
func (s *BulkService) Execute(ctx context.Context, ownerID int64, action domain.BulkAction) (*domain.BulkResult, error) {
	opID := id.OperationID()
	logger := s.logger.With("operation_id", opID, "owner_id", ownerID, "action", action.Action)

	changed, err := s.store.ApplyMutation(ctx, ownerID, action)
	metrics.ObserveBulk(string(action.Action), changed, err)
	if err != nil {
		logger.Warn("bulk mutation rejected", "ids", len(action.IllustrationIDs), "error", err)
		return nil, store.ToDomain(err, "apply bulk mutation")
	}

	logger.Info("bulk mutation applied",
		"ids", len(action.IllustrationIDs),
		"changed", changed,
	)

	return &domain.BulkResult{
		OperationID:     opID,
		Action:          action.Action,
		IllustrationIDs: action.IllustrationIDs,
		Changed:         changed,
	}, nil
}
