package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// ApplyMutation locks the requested rows, verifies ownership and applies the
// action in one transaction. Rollback happens on any error or cancellation.
func (s *Store) ApplyMutation(ctx context.Context, ownerID int64, action domain.BulkAction) (int, error) {
	var changed int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := lockOwnedRows(ctx, tx, action.IllustrationIDs)
		if err != nil {
			return err
		}
		if err := store.CheckOwnership(action.IllustrationIDs, rows, ownerID); err != nil {
			return err
		}

		switch action.Action {
		case domain.ActionTogglePrivacy:
			changed, err = setPrivacy(ctx, tx, action.IllustrationIDs, action.Private)
		case domain.ActionRemoveTag:
			changed, err = removeTag(ctx, tx, ownerID, action.IllustrationIDs, action.Tag)
		default:
			err = fmt.Errorf("unsupported bulk action %q", action.Action)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// lockOwnedRows reads and row-locks ids, ordered by id to avoid lock-order deadlocks.
func lockOwnedRows(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]store.OwnedRow, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, owner_id, is_private FROM illustrations
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve illustrations: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]store.OwnedRow, len(ids))
	for rows.Next() {
		var (
			id  int64
			row store.OwnedRow
		)
		if err := rows.Scan(&id, &row.OwnerID, &row.IsPrivate); err != nil {
			return nil, err
		}
		result[id] = row
	}
	return result, rows.Err()
}

func setPrivacy(ctx context.Context, tx pgx.Tx, ids []int64, private bool) (int, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE illustrations SET is_private = $1, updated_at = $2
		WHERE id = ANY($3) AND is_private <> $1`,
		private, time.Now().UTC(), ids)
	if err != nil {
		return 0, fmt.Errorf("update privacy: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func removeTag(ctx context.Context, tx pgx.Tx, ownerID int64, ids []int64, ref domain.TagRef) (int, error) {
	tagID, err := resolveTag(ctx, tx, ownerID, ref)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE illustrations SET updated_at = $1
		WHERE id IN (SELECT illustration_id FROM illustration_tags WHERE tag_id = $2 AND illustration_id = ANY($3))`,
		time.Now().UTC(), tagID, ids); err != nil {
		return 0, fmt.Errorf("touch illustrations: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM illustration_tags WHERE tag_id = $1 AND illustration_id = ANY($2)`, tagID, ids)
	if err != nil {
		return 0, fmt.Errorf("detach tag: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func resolveTag(ctx context.Context, tx pgx.Tx, ownerID int64, ref domain.TagRef) (int64, error) {
	if ref.ID != 0 {
		var tagOwner int64
		err := tx.QueryRow(ctx, `SELECT owner_id FROM tags WHERE id = $1`, ref.ID).Scan(&tagOwner)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %d not found", ref.ID))
		}
		if err != nil {
			return 0, fmt.Errorf("resolve tag: %w", err)
		}
		if tagOwner != ownerID {
			return 0, store.ErrForbidden.WithMessage(fmt.Sprintf("tag %d is not owned by the requester", ref.ID))
		}
		return ref.ID, nil
	}

	var id int64
	err := tx.QueryRow(ctx,
		`SELECT id FROM tags WHERE owner_id = $1 AND slug = $2`, ownerID, ref.Slug).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %q not found", ref.Slug))
	}
	if err != nil {
		return 0, fmt.Errorf("resolve tag: %w", err)
	}
	return id, nil
}
