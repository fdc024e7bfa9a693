package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/embedding"
	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/store/sqlite"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// stubEmbedder counts calls and can be told to fail.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (e *stubEmbedder) Dimensions() int { return 3 }

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("provider down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func newTestIllustrations(t *testing.T, embedder *stubEmbedder) (*IllustrationService, *sqlite.Store) {
	t.Helper()
	s := newTestStore(t)
	tags := NewTagService(s, testLogger())
	var e embedding.Embedder
	if embedder != nil {
		e = embedder
	}
	return NewIllustrationService(s, tags, e, validation.New(), testLogger()), s
}

func strPtr(s string) *string { return &s }

func TestIllustrationService_CreateDefaults(t *testing.T) {
	svc, _ := newTestIllustrations(t, nil)

	il, err := svc.Create(context.Background(), 1, CreateIllustrationRequest{
		Tags: []string{"  fire & ice ", "Fire-Ice", "grace"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultTitle, il.Title)
	assert.Equal(t, domain.DefaultAuthor, il.Author)
	assert.Equal(t, domain.DefaultContent, il.Content)
	assert.False(t, il.HasEmbedding())

	require.Len(t, il.Tags, 2)
	assert.True(t, il.HasTag("fire-ice"))
	assert.True(t, il.HasTag("grace"))
}

func TestIllustrationService_CreateTitleCasesAndEmbeds(t *testing.T) {
	emb := &stubEmbedder{}
	svc, s := newTestIllustrations(t, emb)
	ctx := context.Background()

	il, err := svc.Create(ctx, 1, CreateIllustrationRequest{
		Title:   "the prodigal son",
		Content: "A father runs to meet his son.",
	})
	require.NoError(t, err)
	assert.Equal(t, "The Prodigal Son", il.Title)
	assert.Equal(t, 1, emb.calls)

	got, err := s.GetIllustration(ctx, il.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
}

func TestIllustrationService_EmbedderFailureIsNotFatal(t *testing.T) {
	svc, _ := newTestIllustrations(t, &stubEmbedder{fail: true})

	il, err := svc.Create(context.Background(), 1, CreateIllustrationRequest{Content: "text"})
	require.NoError(t, err)
	assert.False(t, il.HasEmbedding())
}

func TestIllustrationService_Validation(t *testing.T) {
	svc, _ := newTestIllustrations(t, nil)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.Create(context.Background(), 1, CreateIllustrationRequest{Title: string(long)})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Create(context.Background(), 1, CreateIllustrationRequest{Tags: []string{"???"}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestIllustrationService_UpdateReembedsOnTextChange(t *testing.T) {
	emb := &stubEmbedder{}
	svc, _ := newTestIllustrations(t, emb)
	ctx := context.Background()

	il, err := svc.Create(ctx, 1, CreateIllustrationRequest{Content: "original", Tags: []string{"grace"}})
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)

	private := true
	updated, err := svc.Update(ctx, 1, il.ID, UpdateIllustrationRequest{IsPrivate: &private})
	require.NoError(t, err)
	assert.True(t, updated.IsPrivate)
	assert.True(t, updated.HasTag("grace"))
	assert.Equal(t, 1, emb.calls)

	updated, err = svc.Update(ctx, 1, il.ID, UpdateIllustrationRequest{
		Content: strPtr("changed"),
		Tags:    []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Content)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, 2, emb.calls)
}

func TestIllustrationService_OwnerChecks(t *testing.T) {
	svc, _ := newTestIllustrations(t, nil)
	ctx := context.Background()

	il, err := svc.Create(ctx, 1, CreateIllustrationRequest{Content: "mine"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, il.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = svc.Update(ctx, 2, il.ID, UpdateIllustrationRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, 2, il.ID), domainerrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, 1, il.ID))

	_, err = svc.Get(ctx, 1, il.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestIllustrationService_List(t *testing.T) {
	svc, _ := newTestIllustrations(t, nil)
	ctx := context.Background()

	for range 3 {
		_, err := svc.Create(ctx, 1, CreateIllustrationRequest{Content: "x"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = svc.List(ctx, 1, 101, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestIllustrationService_ListByTag(t *testing.T) {
	svc, _ := newTestIllustrations(t, nil)
	ctx := context.Background()

	tagged, err := svc.Create(ctx, 1, CreateIllustrationRequest{Content: "tagged", Tags: []string{"Fire & Ice"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, CreateIllustrationRequest{Content: "plain", Tags: []string{"grace"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, CreateIllustrationRequest{Content: "foreign", Tags: []string{"fire-ice"}})
	require.NoError(t, err)

	got, err := svc.ListByTag(ctx, 1, "fire ice", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tagged.ID, got[0].ID)
	assert.True(t, got[0].HasTag("fire-ice"))

	_, err = svc.ListByTag(ctx, 1, "hope", 0, 0)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.ListByTag(ctx, 1, "&&&", 0, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.ListByTag(ctx, 1, "grace", MaxListLimit+1, 0)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestIllustrationService_CreateFailureLeavesNoTags(t *testing.T) {
	svc, s := newTestIllustrations(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, 1, CreateIllustrationRequest{Content: "c", Tags: []string{"orphan"}})
	require.Error(t, err)

	tags, err := s.ListTags(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
