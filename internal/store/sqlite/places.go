package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

const placeColumns = `id, illustration_id, owner_id, place, location, used, created_at, updated_at`

func scanPlace(scanner interface{ Scan(dest ...any) error }) (*domain.Place, error) {
	var (
		p         domain.Place
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(
		&p.ID,
		&p.IllustrationID,
		&p.OwnerID,
		&p.Place,
		&p.Location,
		&p.Used,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlace inserts a usage record and writes the generated ID back.
// Returns store.ErrNotFound when the illustration does not exist.
func (s *Store) CreatePlace(ctx context.Context, p *domain.Place) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO places (illustration_id, owner_id, place, location, used, created_at, updated_at)
		SELECT id, ?, ?, ?, ?, ?, ? FROM illustrations WHERE id = ?`,
		p.OwnerID,
		p.Place,
		p.Location,
		p.Used,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		p.IllustrationID,
	)
	if err != nil {
		return fmt.Errorf("insert place: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", p.IllustrationID))
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetPlace retrieves a usage record by ID.
func (s *Store) GetPlace(ctx context.Context, id int64) (*domain.Place, error) {
	p, err := scanPlace(s.db.QueryRowContext(ctx,
		`SELECT `+placeColumns+` FROM places WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("place %d not found", id))
	}
	return p, err
}

// ListPlaces returns an illustration's usage records, most recently used first.
func (s *Store) ListPlaces(ctx context.Context, illustrationID int64) ([]*domain.Place, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+placeColumns+` FROM places
		WHERE illustration_id = ?
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
	res, err := s.db.ExecContext(ctx, `
		UPDATE places SET place = ?, location = ?, used = ?, updated_at = ?
		WHERE id = ?`,
		p.Place, p.Location, p.Used, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("place %d not found", p.ID))
	}
	return nil
}

// DeletePlace removes a usage record.
func (s *Store) DeletePlace(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("place %d not found", id))
	}
	return nil
}
