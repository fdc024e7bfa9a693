package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/illustrationsapp/illustrations-server/internal/store"
)

func TestCreateAndGetIllustration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	grace := seedTag(t, s, 1, "Grace", "grace")
	hope := seedTag(t, s, 1, "Hope", "hope")
	il := seedIllustration(t, s, 1, "A red dragon flies", true, hope, grace)
	if il.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetIllustration(ctx, il.ID)
	if err != nil {
		t.Fatalf("GetIllustration: %v", err)
	}
	if got.Content != "A red dragon flies" || !got.IsPrivate || got.OwnerID != 1 {
		t.Errorf("unexpected illustration: %+v", got)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got.Tags))
	}
	if got.Tags[0].Slug != "grace" || got.Tags[1].Slug != "hope" {
		t.Errorf("expected tags ordered by name, got %q, %q", got.Tags[0].Slug, got.Tags[1].Slug)
	}
	if got.HasEmbedding() {
		t.Error("expected no embedding")
	}
}

func TestGetIllustration_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetIllustration(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchEligibleIllustrations_OwnerScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedIllustration(t, s, 1, "A red dragon flies", false)
	seedIllustration(t, s, 2, "Someone else's dragon", false)
	b := seedIllustration(t, s, 1, "A cat sleeps", true)

	got, err := s.FetchEligibleIllustrations(ctx, 1)
	if err != nil {
		t.Fatalf("FetchEligibleIllustrations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 illustrations, got %d", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("expected id order [%d %d], got [%d %d]", a.ID, b.ID, got[0].ID, got[1].ID)
	}

	empty, err := s.FetchEligibleIllustrations(ctx, 3)
	if err != nil {
		t.Fatalf("FetchEligibleIllustrations: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}

func TestUpdateIllustration_ReplacesTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	grace := seedTag(t, s, 1, "Grace", "grace")
	hope := seedTag(t, s, 1, "Hope", "hope")
	il := seedIllustration(t, s, 1, "content", false, grace)

	il.Title = "New Title"
	il.Tags = nil
	il.Tags = append(il.Tags, *hope)
	il.Touch()
	if err := s.UpdateIllustration(ctx, il); err != nil {
		t.Fatalf("UpdateIllustration: %v", err)
	}

	got, err := s.GetIllustration(ctx, il.ID)
	if err != nil {
		t.Fatalf("GetIllustration: %v", err)
	}
	if got.Title != "New Title" {
		t.Errorf("Title: got %q", got.Title)
	}
	if len(got.Tags) != 1 || got.Tags[0].Slug != "hope" {
		t.Errorf("expected only hope tag, got %+v", got.Tags)
	}

	il.ID = 12345
	if err := s.UpdateIllustration(ctx, il); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIllustration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	il := seedIllustration(t, s, 1, "content", false)
	if err := s.DeleteIllustration(ctx, il.ID); err != nil {
		t.Fatalf("DeleteIllustration: %v", err)
	}
	if err := s.DeleteIllustration(ctx, il.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListIllustrations_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for range 5 {
		seedIllustration(t, s, 1, "content", false)
	}

	page, err := s.ListIllustrations(ctx, 1, 2, 0)
	if err != nil {
		t.Fatalf("ListIllustrations: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2, got %d", len(page))
	}

	rest, err := s.ListIllustrations(ctx, 1, 10, 2)
	if err != nil {
		t.Fatalf("ListIllustrations: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("expected 3, got %d", len(rest))
	}
}

func TestEmbeddingLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedIllustration(t, s, 1, "first", false)
	b := seedIllustration(t, s, 2, "second", false)

	missing, err := s.ListIllustrationsMissingEmbedding(ctx, 0, 0, 10)
	if err != nil {
		t.Fatalf("ListIllustrationsMissingEmbedding: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(missing))
	}

	if err := s.SetIllustrationEmbedding(ctx, a.ID, []float32{0.25, -0.5, 1}); err != nil {
		t.Fatalf("SetIllustrationEmbedding: %v", err)
	}

	got, err := s.GetIllustration(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetIllustration: %v", err)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != -0.5 {
		t.Errorf("unexpected embedding %v", got.Embedding)
	}

	missing, err = s.ListIllustrationsMissingEmbedding(ctx, 2, 0, 10)
	if err != nil {
		t.Fatalf("ListIllustrationsMissingEmbedding: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != b.ID {
		t.Errorf("expected only illustration %d, got %+v", b.ID, missing)
	}

	missing, err = s.ListIllustrationsMissingEmbedding(ctx, 0, b.ID, 10)
	if err != nil {
		t.Fatalf("ListIllustrationsMissingEmbedding: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected nothing after id %d, got %d", b.ID, len(missing))
	}

	if err := s.SetIllustrationEmbedding(ctx, 999, []float32{1}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
