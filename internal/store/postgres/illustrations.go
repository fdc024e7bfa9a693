package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

const illustrationColumns = `id, owner_id, title, author, source, content, is_private, embedding, created_at, updated_at`

const prefixedIllustrationColumns = `i.id, i.owner_id, i.title, i.author, i.source, i.content, i.is_private, i.embedding, i.created_at, i.updated_at`

func scanIllustration(row pgx.Row) (*domain.Illustration, error) {
	var (
		il        domain.Illustration
		embedding *pgvector.Vector
	)
	err := row.Scan(
		&il.ID,
		&il.OwnerID,
		&il.Title,
		&il.Author,
		&il.Source,
		&il.Content,
		&il.IsPrivate,
		&embedding,
		&il.CreatedAt,
		&il.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	il.Embedding = fromVector(embedding)
	il.Tags = []domain.Tag{}
	return &il, nil
}

func (s *Store) queryIllustrations(ctx context.Context, query string, args ...any) ([]*domain.Illustration, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query illustrations: %w", err)
	}
	defer rows.Close()

	illustrations := []*domain.Illustration{}
	for rows.Next() {
		il, err := scanIllustration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan illustration: %w", err)
		}
		illustrations = append(illustrations, il)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := s.loadTags(ctx, illustrations); err != nil {
		return nil, err
	}
	return illustrations, nil
}

// FetchEligibleIllustrations returns every illustration owned by ownerID, with tags,
// ordered by id.
func (s *Store) FetchEligibleIllustrations(ctx context.Context, ownerID int64) ([]*domain.Illustration, error) {
	return s.queryIllustrations(ctx,
		`SELECT `+illustrationColumns+` FROM illustrations WHERE owner_id = $1 ORDER BY id ASC`, ownerID)
}

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

	rows, err := s.pool.Query(ctx, `
		SELECT it.illustration_id, `+prefixedTagColumns+`
		FROM illustration_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.illustration_id = ANY($1)
		ORDER BY t.name ASC`, ids)
	if err != nil {
		return fmt.Errorf("load illustration tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var illustrationID int64
		t, err := scanTag(rows, &illustrationID)
		if err != nil {
			return err
		}
		if il, ok := byID[illustrationID]; ok {
			il.Tags = append(il.Tags, *t)
		}
	}
	return rows.Err()
}

// CreateIllustration inserts an illustration and attaches its tags.
func (s *Store) CreateIllustration(ctx context.Context, il *domain.Illustration) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO illustrations (owner_id, title, author, source, content, is_private, embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			il.OwnerID, il.Title, il.Author, il.Source, il.Content, il.IsPrivate,
			toVector(il.Embedding), il.CreatedAt, il.UpdatedAt,
		).Scan(&il.ID)
		if err != nil {
			return fmt.Errorf("insert illustration: %w", err)
		}
		return replaceTags(ctx, tx, il)
	})
}

// GetIllustration retrieves an illustration with its tags.
func (s *Store) GetIllustration(ctx context.Context, id int64) (*domain.Illustration, error) {
	il, err := scanIllustration(s.pool.QueryRow(ctx,
		`SELECT `+illustrationColumns+` FROM illustrations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
}

// ListIllustrationsByTag returns a page of an owner's illustrations carrying
// the tag with slug, newest first.
func (s *Store) ListIllustrationsByTag(ctx context.Context, ownerID int64, slug string, limit, offset int) ([]*domain.Illustration, error) {
	return s.queryIllustrations(ctx, `
		SELECT `+prefixedIllustrationColumns+` FROM illustrations i
		JOIN illustration_tags it ON it.illustration_id = i.id
		JOIN tags t ON t.id = it.tag_id
		WHERE i.owner_id = $1 AND t.owner_id = $1 AND t.slug = $2
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT $3 OFFSET $4`,
		ownerID, slug, limit, offset)
}

// UpdateIllustration rewrites an illustration's fields and replaces its tag set.
// The embedding column is left untouched.
func (s *Store) UpdateIllustration(ctx context.Context, il *domain.Illustration) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE illustrations
			SET title = $1, author = $2, source = $3, content = $4, is_private = $5, updated_at = $6
			WHERE id = $7`,
			il.Title, il.Author, il.Source, il.Content, il.IsPrivate, il.UpdatedAt, il.ID)
		if err != nil {
			return fmt.Errorf("update illustration: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", il.ID))
		}
		return replaceTags(ctx, tx, il)
	})
}

// DeleteIllustration removes an illustration; its tag links cascade.
func (s *Store) DeleteIllustration(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM illustrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete illustration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", id))
	}
	return nil
}

// ListIllustrationsMissingEmbedding returns up to limit illustrations without an
// embedding whose id is greater than afterID, in id order. ownerID 0 means
// every owner.
func (s *Store) ListIllustrationsMissingEmbedding(ctx context.Context, ownerID, afterID int64, limit int) ([]*domain.Illustration, error) {
	return s.queryIllustrations(ctx, `
		SELECT `+illustrationColumns+` FROM illustrations
		WHERE embedding IS NULL AND ($1::bigint = 0 OR owner_id = $1::bigint) AND id > $2
		ORDER BY id ASC LIMIT $3`, ownerID, afterID, limit)
}

// SetIllustrationEmbedding stores (or clears, for nil) an illustration's embedding.
func (s *Store) SetIllustrationEmbedding(ctx context.Context, id int64, embedding []float32) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE illustrations SET embedding = $1, updated_at = $2 WHERE id = $3`,
		toVector(embedding), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", id))
	}
	return nil
}

// replaceTags swaps the join rows of one illustration inside tx.
// Tags without an ID are found or created by slug in the same transaction and
// written back to il.Tags.
func replaceTags(ctx context.Context, tx pgx.Tx, il *domain.Illustration) error {
	if _, err := tx.Exec(ctx, `DELETE FROM illustration_tags WHERE illustration_id = $1`, il.ID); err != nil {
		return fmt.Errorf("delete illustration_tags: %w", err)
	}

	if len(il.Tags) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range il.Tags {
		if il.Tags[i].ID != 0 {
			continue
		}
		t, err := scanTag(tx.QueryRow(ctx, `
			INSERT INTO tags (owner_id, name, slug, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (owner_id, slug) DO UPDATE SET slug = EXCLUDED.slug
			RETURNING `+tagColumns,
			il.OwnerID, il.Tags[i].Name, il.Tags[i].Slug, now))
		if err != nil {
			return fmt.Errorf("ensure tag %q: %w", il.Tags[i].Slug, err)
		}
		il.Tags[i] = *t
	}

	batch := &pgx.Batch{}
	for _, t := range il.Tags {
		batch.Queue(`
			INSERT INTO illustration_tags (illustration_id, tag_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			il.ID, t.ID, now)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert illustration_tags: %w", err)
	}
	return nil
}
