package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type illustrationOpt func(*domain.Illustration)

func withEmbedding(v ...float32) illustrationOpt {
	return func(il *domain.Illustration) { il.Embedding = v }
}

func withTags(tags ...*domain.Tag) illustrationOpt {
	return func(il *domain.Illustration) {
		for _, t := range tags {
			il.Tags = append(il.Tags, *t)
		}
	}
}

func withPrivate(p bool) illustrationOpt {
	return func(il *domain.Illustration) { il.IsPrivate = p }
}

func createTestIllustration(t *testing.T, s *sqlite.Store, ownerID int64, content string, opts ...illustrationOpt) *domain.Illustration {
	t.Helper()
	now := time.Now()
	il := &domain.Illustration{
		OwnerID:   ownerID,
		Title:     domain.DefaultTitle,
		Author:    domain.DefaultAuthor,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(il)
	}
	require.NoError(t, s.CreateIllustration(context.Background(), il))
	return il
}

func createTestTag(t *testing.T, s *sqlite.Store, ownerID int64, name, slug string) *domain.Tag {
	t.Helper()
	now := time.Now()
	tag := &domain.Tag{OwnerID: ownerID, Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return tag
}
