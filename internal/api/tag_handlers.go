package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags for the current owner, by name",
		Tags:        []string{groupTags},
		Security:    bearerSecurity,
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/search/{prefix}",
		Summary:     "Search tags",
		Description: "Returns up to 10 of the owner's tags whose name starts with prefix",
		Tags:        []string{groupTags},
		Security:    bearerSecurity,
	}, s.handleSearchTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagIllustrations",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/name/{name}/illustrations",
		Summary:     "List illustrations by tag",
		Description: "Returns the owner's illustrations carrying the named tag, newest first. The name is normalized to its slug.",
		Tags:        []string{groupTags},
		Security:    bearerSecurity,
	}, s.handleListTagIllustrations)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Description:   "Creates a new tag. The slug must be unique per owner.",
		Tags:          []string{groupTags},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{groupTags},
		Security:    bearerSecurity,
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Rename tag",
		Description: "Renames a tag and regenerates its slug",
		Tags:        []string{groupTags},
		Security:    bearerSecurity,
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tags/{id}",
		Summary:       "Delete tag",
		Description:   "Deletes a tag and detaches it from every illustration",
		Tags:          []string{groupTags},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteTag)
}

// === DTOs ===

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Authorization string `header:"Authorization"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []*domain.Tag `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// SearchTagsInput contains the name prefix to match.
type SearchTagsInput struct {
	Authorization string `header:"Authorization"`
	Prefix        string `path:"prefix" maxLength:"100" doc:"Name prefix"`
}

// TagIllustrationsInput addresses a tag by name and pages its illustrations.
type TagIllustrationsInput struct {
	Authorization string `header:"Authorization"`
	Name          string `path:"name" maxLength:"100" doc:"Tag name or slug"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset        int    `query:"offset" minimum:"0" doc:"Rows to skip"`
}

// TagNameRequest is the request body for creating or renaming a tag.
type TagNameRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"100" doc:"Tag name, normalized to title case"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          TagNameRequest
}

// TagIDInput addresses a single tag.
type TagIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Tag ID"`
}

// UpdateTagInput wraps the rename request for Huma.
type UpdateTagInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" minimum:"1" doc:"Tag ID"`
	Body          TagNameRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *ListTagsInput) (*ListTagsOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: nonNilTags(tags)}}, nil
}

func (s *Server) handleSearchTags(ctx context.Context, input *SearchTagsInput) (*ListTagsOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.SearchTags(ctx, ownerID, input.Prefix)
	if err != nil {
		return nil, err
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: nonNilTags(tags)}}, nil
}

func (s *Server) handleListTagIllustrations(ctx context.Context, input *TagIllustrationsInput) (*ListIllustrationsOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = service.DefaultListLimit
	}

	list, err := s.services.Illustration.ListByTag(ctx, ownerID, input.Name, limit, input.Offset)
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

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.CreateTag(ctx, ownerID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagIDInput) (*TagOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.GetTag(ctx, ownerID, input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.RenameTag(ctx, ownerID, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.DeleteTag(ctx, ownerID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func nonNilTags(tags []*domain.Tag) []*domain.Tag {
	if tags == nil {
		return []*domain.Tag{}
	}
	return tags
}
