package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// newTestStore connects to the database named by ILLUSTRATIONS_TEST_POSTGRES_URL,
// skipping the test when it is unset. Each test gets a fresh owner id so runs
// do not interfere.
func newTestStore(t *testing.T) (*Store, int64) {
	t.Helper()
	url := os.Getenv("ILLUSTRATIONS_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("ILLUSTRATIONS_TEST_POSTGRES_URL not set")
	}

	s, err := Open(context.Background(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s, time.Now().UnixNano()
}

func seedIllustration(t *testing.T, s *Store, ownerID int64, content string, tags ...*domain.Tag) *domain.Illustration {
	t.Helper()
	now := time.Now().UTC()
	il := &domain.Illustration{
		OwnerID:   ownerID,
		Title:     "Title",
		Author:    "Author",
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, tag := range tags {
		il.Tags = append(il.Tags, *tag)
	}
	require.NoError(t, s.CreateIllustration(context.Background(), il))
	t.Cleanup(func() { _ = s.DeleteIllustration(context.Background(), il.ID) })
	return il
}

func TestFetchEligibleIllustrations(t *testing.T) {
	s, owner := newTestStore(t)
	ctx := context.Background()

	il := seedIllustration(t, s, owner, "A red dragon flies", &domain.Tag{Name: "Grace", Slug: "grace"})
	require.Len(t, il.Tags, 1)
	tag := il.Tags[0]
	assert.NotZero(t, tag.ID)
	t.Cleanup(func() { _ = s.DeleteTag(context.Background(), tag.ID) })

	other := seedIllustration(t, s, owner, "Another", &domain.Tag{Name: "Grace", Slug: "grace"})
	assert.Equal(t, tag.ID, other.Tags[0].ID, "existing tag reused")

	require.NoError(t, s.SetIllustrationEmbedding(ctx, il.ID, []float32{0.5, 0.25, -1}))

	got, err := s.FetchEligibleIllustrations(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, il.ID, got[0].ID)
	assert.Equal(t, []float32{0.5, 0.25, -1}, got[0].Embedding)
	assert.True(t, got[0].HasTag("grace"))
	assert.Nil(t, got[1].Embedding)
}

func TestApplyMutation_Atomic(t *testing.T) {
	s, owner := newTestStore(t)
	ctx := context.Background()

	il := seedIllustration(t, s, owner, "first")

	_, err := s.ApplyMutation(ctx, owner, domain.BulkAction{
		IllustrationIDs: []int64{il.ID, -1},
		Action:          domain.ActionTogglePrivacy,
		Private:         true,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetIllustration(ctx, il.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrivate)

	changed, err := s.ApplyMutation(ctx, owner, domain.BulkAction{
		IllustrationIDs: []int64{il.ID},
		Action:          domain.ActionTogglePrivacy,
		Private:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}

func TestApplyMutation_RemoveTag(t *testing.T) {
	s, owner := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	tag := &domain.Tag{OwnerID: owner, Name: "Fire Ice", Slug: "fire-ice", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateTag(ctx, tag))
	t.Cleanup(func() { _ = s.DeleteTag(context.Background(), tag.ID) })

	one := seedIllustration(t, s, owner, "one", tag)
	two := seedIllustration(t, s, owner, "two")

	changed, err := s.ApplyMutation(ctx, owner, domain.BulkAction{
		IllustrationIDs: []int64{one.ID, two.ID},
		Action:          domain.ActionRemoveTag,
		Tag:             domain.TagRef{Slug: "fire-ice"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	taken, err := s.IsSlugTaken(ctx, owner, "fire-ice")
	require.NoError(t, err)
	assert.True(t, taken)
}
