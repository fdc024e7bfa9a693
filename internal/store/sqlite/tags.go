package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, owner_id, name, slug, created_at, updated_at`

// prefixedTagColumns is tagColumns qualified with the "t" alias for joins.
const prefixedTagColumns = `t.id, t.owner_id, t.name, t.slug, t.created_at, t.updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	return scanTagWithPrefix(scanner)
}

// scanTagWithPrefix scans leading extra columns into prefix, then a tag.
func scanTagWithPrefix(scanner interface{ Scan(dest ...any) error }, prefix ...any) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdAt string
		updatedAt string
	)

	dest := append(prefix,
		&t.ID,
		&t.OwnerID,
		&t.Name,
		&t.Slug,
		&createdAt,
		&updatedAt,
	)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag and writes the generated ID back.
// Returns store.ErrAlreadyExists when the owner already has the slug.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (owner_id, name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.OwnerID,
		t.Name,
		t.Slug,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("tag %q already exists", t.Slug))
		}
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTag retrieves a tag by its ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagBySlug retrieves an owner's tag by slug.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagBySlug(ctx context.Context, ownerID int64, slug string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? AND slug = ?`, ownerID, slug)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %q not found", slug))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// IsSlugTaken reports whether the owner already has a tag with slug.
func (s *Store) IsSlugTaken(ctx context.Context, ownerID int64, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tags WHERE owner_id = ? AND slug = ?)`, ownerID, slug).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// ListTags returns an owner's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, ownerID int64) ([]*domain.Tag, error) {
	return s.queryTags(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? ORDER BY name ASC`, ownerID)
}

// SearchTags returns up to limit of an owner's tags whose name starts with
// prefix, case-insensitively, ordered by name.
func (s *Store) SearchTags(ctx context.Context, ownerID int64, prefix string, limit int) ([]*domain.Tag, error) {
	return s.queryTags(ctx, `
		SELECT `+tagColumns+` FROM tags
		WHERE owner_id = ? AND name LIKE ? ESCAPE '\'
		ORDER BY name ASC
		LIMIT ?`,
		ownerID, escapeLike(prefix)+"%", limit)
}

// UpdateTag renames a tag.
// Returns store.ErrAlreadyExists when the new slug collides.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Slug, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("tag %q already exists", t.Slug))
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", t.ID))
	}
	return nil
}

// DeleteTag removes a tag; its illustration links cascade.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", id))
	}
	return nil
}

func (s *Store) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
