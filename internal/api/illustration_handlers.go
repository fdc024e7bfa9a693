package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/service"
)

func (s *Server) registerIllustrationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createIllustration",
		Method:        http.MethodPost,
		Path:          "/api/v1/illustrations",
		Summary:       "Create illustration",
		Description:   "Creates an illustration. Blank title, author and content receive defaults; tags are created as needed.",
		Tags:          []string{groupIllustrations},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateIllustration)

	huma.Register(s.api, huma.Operation{
		OperationID: "listIllustrations",
		Method:      http.MethodGet,
		Path:        "/api/v1/illustrations",
		Summary:     "List illustrations",
		Description: "Returns the caller's illustrations, newest first",
		Tags:        []string{groupIllustrations},
		Security:    bearerSecurity,
	}, s.handleListIllustrations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIllustration",
		Method:      http.MethodGet,
		Path:        "/api/v1/illustrations/{id}",
		Summary:     "Get illustration",
		Description: "Returns one of the caller's illustrations",
		Tags:        []string{groupIllustrations},
		Security:    bearerSecurity,
	}, s.handleGetIllustration)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIllustration",
		Method:      http.MethodPatch,
		Path:        "/api/v1/illustrations/{id}",
		Summary:     "Update illustration",
		Description: "Partially updates an illustration. A tags array replaces the tag set.",
		Tags:        []string{groupIllustrations},
		Security:    bearerSecurity,
	}, s.handleUpdateIllustration)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteIllustration",
		Method:        http.MethodDelete,
		Path:          "/api/v1/illustrations/{id}",
		Summary:       "Delete illustration",
		Description:   "Deletes an illustration and its tag links",
		Tags:          []string{groupIllustrations},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteIllustration)
}

// === DTOs ===

// CreateIllustrationBody is the request body for creating an illustration.
type CreateIllustrationBody struct {
	Title     string   `json:"title,omitempty" maxLength:"255" doc:"Title, stored in title case"`
	Author    string   `json:"author,omitempty" maxLength:"255" doc:"Author"`
	Source    string   `json:"source,omitempty" maxLength:"1000" doc:"Where the passage came from"`
	Content   string   `json:"content,omitempty" maxLength:"20000" doc:"Passage text"`
	Tags      []string `json:"tags,omitempty" maxItems:"50" doc:"Tag names"`
	IsPrivate bool     `json:"is_private,omitempty" doc:"Hide from other users' searches"`
}

// CreateIllustrationInput wraps the create request for Huma.
type CreateIllustrationInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateIllustrationBody
}

// UpdateIllustrationBody is the request body for a partial update.
type UpdateIllustrationBody struct {
	Title     *string  `json:"title,omitempty" maxLength:"255" doc:"New title"`
	Author    *string  `json:"author,omitempty" maxLength:"255" doc:"New author"`
	Source    *string  `json:"source,omitempty" maxLength:"1000" doc:"New source"`
	Content   *string  `json:"content,omitempty" maxLength:"20000" doc:"New passage text"`
	Tags      []string `json:"tags,omitempty" maxItems:"50" doc:"Replacement tag names"`
	IsPrivate *bool    `json:"is_private,omitempty" doc:"New privacy flag"`
}

// UpdateIllustrationInput wraps the update request for Huma.
type UpdateIllustrationInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Illustration ID"`
	Body          UpdateIllustrationBody
}

// IllustrationIDInput addresses a single illustration.
type IllustrationIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Illustration ID"`
}

// ListIllustrationsInput contains pagination parameters.
type ListIllustrationsInput struct {
	Authorization string `header:"Authorization"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset        int    `query:"offset" minimum:"0" doc:"Rows to skip"`
}

// IllustrationOutput wraps one illustration for Huma.
type IllustrationOutput struct {
	Body *domain.Illustration
}

// ListIllustrationsResponse contains a page of illustrations.
type ListIllustrationsResponse struct {
	Illustrations []*domain.Illustration `json:"illustrations" doc:"Illustrations, newest first"`
	Limit         int                    `json:"limit" doc:"Page size used"`
	Offset        int                    `json:"offset" doc:"Rows skipped"`
}

// ListIllustrationsOutput wraps the list response for Huma.
type ListIllustrationsOutput struct {
	Body ListIllustrationsResponse
}

// === Handlers ===

func (s *Server) handleCreateIllustration(ctx context.Context, input *CreateIllustrationInput) (*IllustrationOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	il, err := s.services.Illustration.Create(ctx, ownerID, service.CreateIllustrationRequest{
		Title:     input.Body.Title,
		Author:    input.Body.Author,
		Source:    input.Body.Source,
		Content:   input.Body.Content,
		Tags:      input.Body.Tags,
		IsPrivate: input.Body.IsPrivate,
	})
	if err != nil {
		return nil, err
	}
	return &IllustrationOutput{Body: il}, nil
}

func (s *Server) handleListIllustrations(ctx context.Context, input *ListIllustrationsInput) (*ListIllustrationsOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = service.DefaultListLimit
	}

	list, err := s.services.Illustration.List(ctx, ownerID, limit, input.Offset)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.Illustration{}
	}

	return &ListIllustrationsOutput{
		Body: ListIllustrationsResponse{Illustrations: list, Limit: limit, Offset: input.Offset},
	}, nil
}

func (s *Server) handleGetIllustration(ctx context.Context, input *IllustrationIDInput) (*IllustrationOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	il, err := s.services.Illustration.Get(ctx, ownerID, input.ID)
	if err != nil {
		return nil, err
	}
	return &IllustrationOutput{Body: il}, nil
}

func (s *Server) handleUpdateIllustration(ctx context.Context, input *UpdateIllustrationInput) (*IllustrationOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	il, err := s.services.Illustration.Update(ctx, ownerID, input.ID, service.UpdateIllustrationRequest{
		Title:     input.Body.Title,
		Author:    input.Body.Author,
		Source:    input.Body.Source,
		Content:   input.Body.Content,
		Tags:      input.Body.Tags,
		IsPrivate: input.Body.IsPrivate,
	})
	if err != nil {
		return nil, err
	}
	return &IllustrationOutput{Body: il}, nil
}

func (s *Server) handleDeleteIllustration(ctx context.Context, input *IllustrationIDInput) (*struct{}, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Illustration.Delete(ctx, ownerID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
