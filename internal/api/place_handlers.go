package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/service"
)

func (s *Server) registerPlaceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPlaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/illustrations/{id}/places",
		Summary:     "List places",
		Description: "Returns where an illustration was used, most recent first",
		Tags:        []string{groupPlaces},
		Security:    bearerSecurity,
	}, s.handleListPlaces)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPlace",
		Method:        http.MethodPost,
		Path:          "/api/v1/illustrations/{id}/places",
		Summary:       "Record place",
		Description:   "Records a use of one of the caller's illustrations",
		Tags:          []string{groupPlaces},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePlace)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePlace",
		Method:      http.MethodPatch,
		Path:        "/api/v1/places/{id}",
		Summary:     "Update place",
		Description: "Partially updates a usage record",
		Tags:        []string{groupPlaces},
		Security:    bearerSecurity,
	}, s.handleUpdatePlace)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deletePlace",
		Method:        http.MethodDelete,
		Path:          "/api/v1/places/{id}",
		Summary:       "Delete place",
		Description:   "Deletes a usage record",
		Tags:          []string{groupPlaces},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeletePlace)
}

// === DTOs ===

// CreatePlaceBody is the request body for recording a place.
type CreatePlaceBody struct {
	Place    string `json:"place" minLength:"1" maxLength:"255" doc:"Where the illustration was used"`
	Location string `json:"location,omitempty" maxLength:"255" doc:"City or venue"`
	Used     string `json:"used,omitempty" doc:"Date used, YYYY-MM-DD"`
}

// CreatePlaceInput wraps the create request for Huma.
type CreatePlaceInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Illustration ID"`
	Body          CreatePlaceBody
}

// UpdatePlaceBody is the request body for a partial place update.
type UpdatePlaceBody struct {
	IllustrationID *int64  `json:"illustration_id,omitempty" doc:"Must match the place's illustration when given"`
	Place          *string `json:"place,omitempty" maxLength:"255" doc:"New place"`
	Location       *string `json:"location,omitempty" maxLength:"255" doc:"New location"`
	Used           *string `json:"used,omitempty" doc:"New date used, YYYY-MM-DD"`
}

// UpdatePlaceInput wraps the update request for Huma.
type UpdatePlaceInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Place ID"`
	Body          UpdatePlaceBody
}

// PlaceIDInput addresses a single place.
type PlaceIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Place ID"`
}

// PlaceOutput wraps one place for Huma.
type PlaceOutput struct {
	Body *domain.Place
}

// ListPlacesResponse contains an illustration's places.
type ListPlacesResponse struct {
	Places []*domain.Place `json:"places" doc:"Places, most recently used first"`
}

// ListPlacesOutput wraps the list response for Huma.
type ListPlacesOutput struct {
	Body ListPlacesResponse
}

// === Handlers ===

func (s *Server) handleListPlaces(ctx context.Context, input *IllustrationIDInput) (*ListPlacesOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	places, err := s.services.Place.List(ctx, ownerID, input.ID)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []*domain.Place{}
	}
	return &ListPlacesOutput{Body: ListPlacesResponse{Places: places}}, nil
}

func (s *Server) handleCreatePlace(ctx context.Context, input *CreatePlaceInput) (*PlaceOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.services.Place.Create(ctx, ownerID, input.ID, service.CreatePlaceRequest{
		Place:    input.Body.Place,
		Location: input.Body.Location,
		Used:     input.Body.Used,
	})
	if err != nil {
		return nil, err
	}
	return &PlaceOutput{Body: p}, nil
}

func (s *Server) handleUpdatePlace(ctx context.Context, input *UpdatePlaceInput) (*PlaceOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.services.Place.Update(ctx, ownerID, input.ID, service.UpdatePlaceRequest{
		IllustrationID: input.Body.IllustrationID,
		Place:          input.Body.Place,
		Location:       input.Body.Location,
		Used:           input.Body.Used,
	})
	if err != nil {
		return nil, err
	}
	return &PlaceOutput{Body: p}, nil
}

func (s *Server) handleDeletePlace(ctx context.Context, input *PlaceIDInput) (*struct{}, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Place.Delete(ctx, ownerID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
