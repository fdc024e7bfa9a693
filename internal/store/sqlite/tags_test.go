package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(ownerID int64, name, slug string) *domain.Tag {
	now := time.Now()
	return &domain.Tag{
		OwnerID:   ownerID,
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag(1, "Slow Burn", "slow-burn")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	if got.Name != "Slow Burn" || got.Slug != "slow-burn" || got.OwnerID != 1 {
		t.Errorf("unexpected tag: %+v", got)
	}

	// Timestamps should round-trip through RFC3339Nano.
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTag(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTag_DuplicateSlugPerOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTag(ctx, makeTestTag(1, "Fire Ice", "fire-ice")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	err := s.CreateTag(ctx, makeTestTag(1, "Fire Ice", "fire-ice"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Another owner may use the same slug.
	if err := s.CreateTag(ctx, makeTestTag(2, "Fire Ice", "fire-ice")); err != nil {
		t.Errorf("other owner CreateTag: %v", err)
	}
}

func TestIsSlugTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedTag(t, s, 1, "Grace", "grace")

	taken, err := s.IsSlugTaken(ctx, 1, "grace")
	if err != nil {
		t.Fatalf("IsSlugTaken: %v", err)
	}
	if !taken {
		t.Error("expected slug taken for owner 1")
	}

	taken, err = s.IsSlugTaken(ctx, 2, "grace")
	if err != nil {
		t.Fatalf("IsSlugTaken: %v", err)
	}
	if taken {
		t.Error("expected slug free for owner 2")
	}
}

func TestCreateIllustration_ResolvesTagsInTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing := seedTag(t, s, 1, "Hope", "hope")

	now := time.Now()
	il := &domain.Illustration{
		OwnerID:   1,
		Title:     "T",
		Content:   "c",
		Tags:      []domain.Tag{{Name: "Hope", Slug: "hope"}, {Name: "Grace", Slug: "grace"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateIllustration(ctx, il); err != nil {
		t.Fatalf("CreateIllustration: %v", err)
	}
	if il.Tags[0].ID != existing.ID {
		t.Errorf("hope: got id %d, want %d", il.Tags[0].ID, existing.ID)
	}
	if il.Tags[1].ID == 0 || il.Tags[1].OwnerID != 1 {
		t.Errorf("grace not created: %+v", il.Tags[1])
	}

	got, err := s.GetIllustration(ctx, il.ID)
	if err != nil {
		t.Fatalf("GetIllustration: %v", err)
	}
	if !got.HasTag("hope") || !got.HasTag("grace") {
		t.Errorf("tags not linked: %+v", got.Tags)
	}
}

func TestCreateIllustration_FailureLeavesNoNewTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	il := &domain.Illustration{
		OwnerID: 1,
		Title:   "T",
		// The second tag does not exist, so linking it violates the foreign key
		// after "orphan" was inserted.
		Tags:      []domain.Tag{{Name: "Orphan", Slug: "orphan"}, {ID: 9999, Name: "Ghost", Slug: "ghost"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateIllustration(ctx, il); err == nil {
		t.Fatal("expected CreateIllustration to fail")
	}

	taken, err := s.IsSlugTaken(ctx, 1, "orphan")
	if err != nil {
		t.Fatalf("IsSlugTaken: %v", err)
	}
	if taken {
		t.Error("tag left behind by a failed create")
	}

	list, err := s.ListIllustrations(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("ListIllustrations: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no illustrations, got %d", len(list))
	}
}

func TestListAndSearchTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedTag(t, s, 1, "Grace", "grace")
	seedTag(t, s, 1, "Gratitude", "gratitude")
	seedTag(t, s, 1, "Hope", "hope")
	seedTag(t, s, 1, "100% Sure", "100-sure")
	seedTag(t, s, 2, "Grief", "grief")

	all, err := s.ListTags(ctx, 1)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 tags, got %d", len(all))
	}
	if all[0].Name != "100% Sure" || all[1].Name != "Grace" {
		t.Errorf("expected name order, got %q, %q", all[0].Name, all[1].Name)
	}

	found, err := s.SearchTags(ctx, 1, "gra", 10)
	if err != nil {
		t.Fatalf("SearchTags: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}

	limited, err := s.SearchTags(ctx, 1, "g", 1)
	if err != nil {
		t.Fatalf("SearchTags: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}

	// Wildcards in the prefix are literal.
	none, err := s.SearchTags(ctx, 1, "%", 10)
	if err != nil {
		t.Fatalf("SearchTags: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no match for %%, got %d", len(none))
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := seedTag(t, s, 1, "Grace", "grace")
	seedTag(t, s, 1, "Hope", "hope")

	tag.Name, tag.Slug = "Mercy", "mercy"
	tag.Touch()
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTagBySlug(ctx, 1, "mercy")
	if err != nil {
		t.Fatalf("GetTagBySlug: %v", err)
	}
	if got.ID != tag.ID {
		t.Errorf("ID: got %d, want %d", got.ID, tag.ID)
	}

	tag.Name, tag.Slug = "Hope", "hope"
	if err := s.UpdateTag(ctx, tag); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists on rename collision, got %v", err)
	}
}

func TestDeleteTag_CascadesLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := seedTag(t, s, 1, "Grace", "grace")
	il := seedIllustration(t, s, 1, "amazing grace", false, tag)

	if err := s.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	got, err := s.GetIllustration(ctx, il.ID)
	if err != nil {
		t.Fatalf("GetIllustration: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected tag link removed, got %d tags", len(got.Tags))
	}

	if err := s.DeleteTag(ctx, tag.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
