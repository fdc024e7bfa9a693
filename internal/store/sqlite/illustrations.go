package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// illustrationColumns is the ordered list of columns selected in illustration queries.
// Must match the scan order in scanIllustration.
const illustrationColumns = `id, owner_id, title, author, source, content, is_private, embedding, created_at, updated_at`

// prefixedIllustrationColumns is illustrationColumns qualified with the "i" alias for joins.
const prefixedIllustrationColumns = `i.id, i.owner_id, i.title, i.author, i.source, i.content, i.is_private, i.embedding, i.created_at, i.updated_at`

// scanIllustration scans a sql.Row (or sql.Rows via its Scan method) into a domain.Illustration.
// Tags are left empty; callers load them with loadTags.
func scanIllustration(scanner interface{ Scan(dest ...any) error }) (*domain.Illustration, error) {
	var il domain.Illustration

	var (
		isPrivate int
		embedding []byte
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&il.ID,
		&il.OwnerID,
		&il.Title,
		&il.Author,
		&il.Source,
		&il.Content,
		&isPrivate,
		&embedding,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	il.IsPrivate = isPrivate != 0
	il.Tags = []domain.Tag{}

	if il.Embedding, err = decodeEmbedding(embedding); err != nil {
		return nil, fmt.Errorf("illustration %d: %w", il.ID, err)
	}
	if il.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if il.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &il, nil
}

// queryIllustrations runs a query selecting illustrationColumns and loads tags.
func (s *Store) queryIllustrations(ctx context.Context, query string, args ...any) ([]*domain.Illustration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	illustrations := []*domain.Illustration{}
	for rows.Next() {
		il, err := scanIllustration(rows)
		if err != nil {
			return nil, err
		}
		illustrations = append(illustrations, il)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, illustrations); err != nil {
		return nil, err
	}
	return illustrations, nil
}

// FetchEligibleIllustrations returns every illustration owned by ownerID, with tags,
// ordered by id. An owner with no illustrations gets an empty slice.
func (s *Store) FetchEligibleIllustrations(ctx context.Context, ownerID int64) ([]*domain.Illustration, error) {
	return s.queryIllustrations(ctx,
		`SELECT `+illustrationColumns+` FROM illustrations WHERE owner_id = ? ORDER BY id ASC`, ownerID)
}

// loadTags reads the join table once for the given illustrations and fills their Tags.
func (s *Store) loadTags(ctx context.Context, illustrations []*domain.Illustration) error {
	if len(illustrations) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Illustration, len(illustrations))
	ids := make([]int64, len(illustrations))
	for i, il := range illustrations {
		byID[il.ID] = il
		ids[i] = il.ID
	}

	for start := 0; start < len(ids); start += maxInParams {
		chunk := ids[start:min(start+maxInParams, len(ids))]
		rows, err := s.db.QueryContext(ctx, `
			SELECT it.illustration_id, `+prefixedTagColumns+`
			FROM illustration_tags it
			JOIN tags t ON t.id = it.tag_id
			WHERE it.illustration_id IN (`+placeholders(len(chunk))+`)
			ORDER BY t.name ASC`,
			int64Args(chunk)...)
		if err != nil {
			return fmt.Errorf("load illustration tags: %w", err)
		}

		for rows.Next() {
			var illustrationID int64
			t, err := scanTagWithPrefix(rows, &illustrationID)
			if err != nil {
				rows.Close()
				return err
			}
			if il, ok := byID[illustrationID]; ok {
				il.Tags = append(il.Tags, *t)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

// CreateIllustration inserts an illustration and attaches its tags (by tag ID).
// The generated ID is written back to il.
func (s *Store) CreateIllustration(ctx context.Context, il *domain.Illustration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO illustrations (owner_id, title, author, source, content, is_private, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		il.OwnerID,
		il.Title,
		il.Author,
		il.Source,
		il.Content,
		boolToInt(il.IsPrivate),
		encodeEmbedding(il.Embedding),
		formatTime(il.CreatedAt),
		formatTime(il.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert illustration: %w", err)
	}
	if il.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("illustration id: %w", err)
	}

	if err := replaceTags(ctx, tx, il); err != nil {
		return err
	}

	return tx.Commit()
}

// GetIllustration retrieves an illustration with its tags.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetIllustration(ctx context.Context, id int64) (*domain.Illustration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+illustrationColumns+` FROM illustrations WHERE id = ?`, id)

	il, err := scanIllustration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", id))
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, []*domain.Illustration{il}); err != nil {
		return nil, err
	}
	return il, nil
}

// ListIllustrations returns a page of an owner's illustrations, newest first.
func (s *Store) ListIllustrations(ctx context.Context, ownerID int64, limit, offset int) ([]*domain.Illustration, error) {
	return s.queryIllustrations(ctx, `
		SELECT `+illustrationColumns+` FROM illustrations
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
}

// ListIllustrationsByTag returns a page of an owner's illustrations carrying
// the tag with slug, newest first.
func (s *Store) ListIllustrationsByTag(ctx context.Context, ownerID int64, slug string, limit, offset int) ([]*domain.Illustration, error) {
	return s.queryIllustrations(ctx, `
		SELECT `+prefixedIllustrationColumns+` FROM illustrations i
		JOIN illustration_tags it ON it.illustration_id = i.id
		JOIN tags t ON t.id = it.tag_id
		WHERE i.owner_id = ? AND t.owner_id = ? AND t.slug = ?
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ? OFFSET ?`,
		ownerID, ownerID, slug, limit, offset)
}

// UpdateIllustration rewrites an illustration's fields and replaces its tag set.
// The embedding column is left untouched; use SetIllustrationEmbedding.
func (s *Store) UpdateIllustration(ctx context.Context, il *domain.Illustration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE illustrations
		SET title = ?, author = ?, source = ?, content = ?, is_private = ?, updated_at = ?
		WHERE id = ?`,
		il.Title,
		il.Author,
		il.Source,
		il.Content,
		boolToInt(il.IsPrivate),
		formatTime(il.UpdatedAt),
		il.ID,
	)
	if err != nil {
		return fmt.Errorf("update illustration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", il.ID))
	}

	if err := replaceTags(ctx, tx, il); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteIllustration removes an illustration; its tag links cascade.
func (s *Store) DeleteIllustration(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM illustrations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete illustration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", id))
	}
	return nil
}

// ListIllustrationsMissingEmbedding returns up to limit illustrations without an
// embedding whose id is greater than afterID, in id order. ownerID 0 means
// every owner.
func (s *Store) ListIllustrationsMissingEmbedding(ctx context.Context, ownerID, afterID int64, limit int) ([]*domain.Illustration, error) {
	if ownerID == 0 {
		return s.queryIllustrations(ctx, `
			SELECT `+illustrationColumns+` FROM illustrations
			WHERE embedding IS NULL AND id > ? ORDER BY id ASC LIMIT ?`, afterID, limit)
	}
	return s.queryIllustrations(ctx, `
		SELECT `+illustrationColumns+` FROM illustrations
		WHERE owner_id = ? AND embedding IS NULL AND id > ? ORDER BY id ASC LIMIT ?`, ownerID, afterID, limit)
}

// SetIllustrationEmbedding stores (or clears, for nil) an illustration's embedding.
func (s *Store) SetIllustrationEmbedding(ctx context.Context, id int64, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE illustrations SET embedding = ?, updated_at = ? WHERE id = ?`,
		encodeEmbedding(embedding), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", id))
	}
	return nil
}

// replaceTags swaps the join rows of one illustration inside tx.
// Tags without an ID are found or created by slug in the same transaction and
// written back to il.Tags, so a failed write leaves no new tags behind.
func replaceTags(ctx context.Context, tx *sql.Tx, il *domain.Illustration) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM illustration_tags WHERE illustration_id = ?`, il.ID); err != nil {
		return fmt.Errorf("delete illustration_tags: %w", err)
	}

	now := formatTime(time.Now())
	for i := range il.Tags {
		if il.Tags[i].ID == 0 {
			t, err := ensureTag(ctx, tx, il.OwnerID, il.Tags[i], now)
			if err != nil {
				return err
			}
			il.Tags[i] = *t
		}

		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO illustration_tags (illustration_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			il.ID, il.Tags[i].ID, now)
		if err != nil {
			return fmt.Errorf("insert illustration_tag: %w", err)
		}
	}
	return nil
}

// ensureTag returns the owner's tag with t.Slug, inserting it inside tx when missing.
func ensureTag(ctx context.Context, tx *sql.Tx, ownerID int64, t domain.Tag, now string) (*domain.Tag, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tags (owner_id, name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, slug) DO NOTHING`,
		ownerID, t.Name, t.Slug, now, now)
	if err != nil {
		return nil, fmt.Errorf("ensure tag %q: %w", t.Slug, err)
	}

	got, err := scanTag(tx.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? AND slug = ?`, ownerID, t.Slug))
	if err != nil {
		return nil, fmt.Errorf("load tag %q: %w", t.Slug, err)
	}
	return got, nil
}
