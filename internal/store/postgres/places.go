package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

const placeColumns = `id, illustration_id, owner_id, place, location, used, created_at, updated_at`

func scanPlace(row pgx.Row) (*domain.Place, error) {
	var p domain.Place
	err := row.Scan(&p.ID, &p.IllustrationID, &p.OwnerID, &p.Place, &p.Location, &p.Used, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlace inserts a usage record and writes the generated ID back.
func (s *Store) CreatePlace(ctx context.Context, p *domain.Place) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO places (illustration_id, owner_id, place, location, used, created_at, updated_at)
		SELECT id, $2, $3, $4, $5, $6, $7 FROM illustrations WHERE id = $1
		RETURNING id`,
		p.IllustrationID, p.OwnerID, p.Place, p.Location, p.Used, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", p.IllustrationID))
	}
	return err
}

// GetPlace retrieves a usage record by ID.
func (s *Store) GetPlace(ctx context.Context, id int64) (*domain.Place, error) {
	p, err := scanPlace(s.pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("place %d not found", id))
	}
	return p, err
}

// ListPlaces returns an illustration's usage records, most recently used first.
func (s *Store) ListPlaces(ctx context.Context, illustrationID int64) ([]*domain.Place, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+placeColumns+` FROM places
		WHERE illustration_id = $1
		ORDER BY used DESC, id DESC`, illustrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := []*domain.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// UpdatePlace rewrites a usage record's place, location and date.
func (s *Store) UpdatePlace(ctx context.Context, p *domain.Place) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE places SET place = $1, location = $2, used = $3, updated_at = $4
		WHERE id = $5`,
		p.Place, p.Location, p.Used, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("place %d not found", p.ID))
	}
	return nil
}

// DeletePlace removes a usage record.
func (s *Store) DeletePlace(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("place %d not found", id))
	}
	return nil
}
