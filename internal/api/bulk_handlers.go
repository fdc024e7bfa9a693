package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
)

func (s *Server) registerBulkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "bulkIllustrations",
		Method:      http.MethodPost,
		Path:        "/api/v1/illustrations/bulk",
		Summary:     "Bulk mutate illustrations",
		Description: "Applies one action to a batch of the caller's illustrations in a single transaction. Any missing or foreign id aborts the whole batch.",
		Tags:        []string{groupIllustrations},
		Security:    bearerSecurity,
	}, s.handleBulk)
}

// BulkRequestBody is the bulk mutation request.
type BulkRequestBody struct {
	IllustrationIDs []int64         `json:"illustration_ids" doc:"Illustration ids, 1 to 1000"`
	Action          string          `json:"action" doc:"toggle_privacy or remove_tag"`
	Data            json.RawMessage `json:"data" doc:"Boolean for toggle_privacy; tag slug or id for remove_tag"`
}

// BulkInput wraps the bulk request for Huma.
type BulkInput struct {
	Authorization string `header:"Authorization"`
	Body          BulkRequestBody
}

// BulkOutput wraps the bulk result for Huma.
type BulkOutput struct {
	Body *domain.BulkResult
}

func (s *Server) handleBulk(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Bulk.Apply(ctx, ownerID, domain.BulkRequest{
		IllustrationIDs: input.Body.IllustrationIDs,
		Action:          input.Body.Action,
		Data:            input.Body.Data,
	})
	if err != nil {
		logger.FromContext(ctx, s.log).WithOwner(ownerID).WithError(err).
			Debug("bulk mutation rejected", "action", input.Body.Action, "ids", len(input.Body.IllustrationIDs))
		return nil, err
	}

	return &BulkOutput{Body: result}, nil
}
