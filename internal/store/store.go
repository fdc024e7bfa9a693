// Package store defines the persistence interface for the illustrations server.
package store

import (
	"context"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

// Store defines every persistence operation used by the services.
// Implementations live in the sqlite and postgres subpackages.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Search & bulk mutation
	FetchEligibleIllustrations(ctx context.Context, ownerID int64) ([]*domain.Illustration, error)
	ApplyMutation(ctx context.Context, ownerID int64, action domain.BulkAction) (int, error)
	IsSlugTaken(ctx context.Context, ownerID int64, slug string) (bool, error)

	// Illustrations
	CreateIllustration(ctx context.Context, il *domain.Illustration) error
	GetIllustration(ctx context.Context, id int64) (*domain.Illustration, error)
	ListIllustrations(ctx context.Context, ownerID int64, limit, offset int) ([]*domain.Illustration, error)
	UpdateIllustration(ctx context.Context, il *domain.Illustration) error
	DeleteIllustration(ctx context.Context, id int64) error
	ListIllustrationsByTag(ctx context.Context, ownerID int64, slug string, limit, offset int) ([]*domain.Illustration, error)
	ListIllustrationsMissingEmbedding(ctx context.Context, ownerID, afterID int64, limit int) ([]*domain.Illustration, error)
	SetIllustrationEmbedding(ctx context.Context, id int64, embedding []float32) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	GetTagBySlug(ctx context.Context, ownerID int64, slug string) (*domain.Tag, error)
	ListTags(ctx context.Context, ownerID int64) ([]*domain.Tag, error)
	SearchTags(ctx context.Context, ownerID int64, prefix string, limit int) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, id int64) error

	// Places
	CreatePlace(ctx context.Context, p *domain.Place) error
	GetPlace(ctx context.Context, id int64) (*domain.Place, error)
	ListPlaces(ctx context.Context, illustrationID int64) ([]*domain.Place, error)
	UpdatePlace(ctx context.Context, p *domain.Place) error
	DeletePlace(ctx context.Context, id int64) error
}
