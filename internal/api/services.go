package api

import (
	"github.com/illustrationsapp/illustrations-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Search       *service.SearchService
	Bulk         *service.BulkService
	Illustration *service.IllustrationService
	Tag          *service.TagService
	Place        *service.PlaceService
}
