package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchIllustrations",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search illustrations",
		Description: "Ranks the caller's illustrations by trigram similarity, optionally fused with embedding similarity",
		Tags:        []string{groupSearch},
		Security:    bearerSecurity,
	}, s.handleSearch)
}

// === DTOs ===

// SearchRequestBody is the search request. Text and embedding rules are enforced by the search service.
type SearchRequestBody struct {
	Text           string    `json:"text" doc:"Query text, 1 to 500 characters after trimming"`
	Embedding      []float64 `json:"embedding,omitempty" doc:"Query embedding; enables hybrid ranking"`
	Limit          *int      `json:"limit,omitempty" doc:"Maximum results, 1 to 100 (default 20)"`
	IncludeDetails bool      `json:"include_details,omitempty" doc:"Attach the illustration to each result"`
	Strategy       string    `json:"strategy,omitempty" doc:"Fusion strategy: weighted or rrf (default from server configuration)"`
}

// SearchInput wraps the search request for Huma.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Body          SearchRequestBody
}

// SearchResponse contains ranked candidates.
type SearchResponse struct {
	Results []domain.Candidate `json:"results" doc:"Candidates sorted by fused score descending, ties by id ascending"`
	Count   int                `json:"count" doc:"Number of results"`
	TookMs  int64              `json:"took_ms" doc:"Search duration in milliseconds"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	ownerID, err := GetOwnerID(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.services.Search.Search(ctx, ownerID, domain.SearchRequest{
		Text:           input.Body.Text,
		Embedding:      input.Body.Embedding,
		Limit:          input.Body.Limit,
		IncludeDetails: input.Body.IncludeDetails,
		Strategy:       input.Body.Strategy,
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.Candidate{}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Results: results,
			Count:   len(results),
			TookMs:  time.Since(start).Milliseconds(),
		},
	}, nil
}
