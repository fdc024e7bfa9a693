package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

const tagColumns = `id, owner_id, name, slug, created_at, updated_at`

const prefixedTagColumns = `t.id, t.owner_id, t.name, t.slug, t.created_at, t.updated_at`

// scanTag scans leading extra columns into prefix, then a tag.
func scanTag(row pgx.Row, prefix ...any) (*domain.Tag, error) {
	var t domain.Tag
	dest := append(prefix, &t.ID, &t.OwnerID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a new tag and writes the generated ID back.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tags (owner_id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.OwnerID, t.Name, t.Slug, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("tag %q already exists", t.Slug))
	}
	return err
}

// GetTag retrieves a tag by its ID.
func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	t, err := scanTag(s.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", id))
	}
	return t, err
}

// GetTagBySlug retrieves an owner's tag by slug.
func (s *Store) GetTagBySlug(ctx context.Context, ownerID int64, slug string) (*domain.Tag, error) {
	t, err := scanTag(s.pool.QueryRow(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = $1 AND slug = $2`, ownerID, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %q not found", slug))
	}
	return t, err
}

// IsSlugTaken reports whether the owner already has a tag with slug.
func (s *Store) IsSlugTaken(ctx context.Context, ownerID int64, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tags WHERE owner_id = $1 AND slug = $2)`, ownerID, slug).Scan(&exists)
	return exists, err
}

// ListTags returns an owner's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, ownerID int64) ([]*domain.Tag, error) {
	return s.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
}

// SearchTags returns up to limit of an owner's tags whose name starts with prefix.
func (s *Store) SearchTags(ctx context.Context, ownerID int64, prefix string, limit int) ([]*domain.Tag, error) {
	return s.queryTags(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE owner_id = $1 AND name ILIKE $2
		ORDER BY name ASC
		LIMIT $3`,
		ownerID, escapeLike(prefix)+"%", limit)
}

// UpdateTag renames a tag.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tags SET name = $1, slug = $2, updated_at = $3 WHERE id = $4`,
		t.Name, t.Slug, t.UpdatedAt, t.ID)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("tag %q already exists", t.Slug))
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", t.ID))
	}
	return nil
}

// DeleteTag removes a tag; its illustration links cascade.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", id))
	}
	return nil
}

func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
