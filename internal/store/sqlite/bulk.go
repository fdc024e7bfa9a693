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

// maxInParams bounds the number of bound parameters in one IN (...) clause.
const maxInParams = 500

// ApplyMutation resolves action.IllustrationIDs and applies the action in a
// single transaction. Any missing or foreign id aborts the batch before a
// write. Returns the number of illustrations whose state changed.
func (s *Store) ApplyMutation(ctx context.Context, ownerID int64, action domain.BulkAction) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := resolveOwnedRows(ctx, tx, action.IllustrationIDs)
	if err != nil {
		return 0, err
	}
	if err := store.CheckOwnership(action.IllustrationIDs, rows, ownerID); err != nil {
		return 0, err
	}

	var changed int
	switch action.Action {
	case domain.ActionTogglePrivacy:
		changed, err = setPrivacy(ctx, tx, action.IllustrationIDs, rows, action.Private)
	case domain.ActionRemoveTag:
		changed, err = removeTag(ctx, tx, ownerID, action.IllustrationIDs, action.Tag)
	default:
		err = fmt.Errorf("unsupported bulk action %q", action.Action)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk mutation: %w", err)
	}
	return changed, nil
}

// resolveOwnedRows reads owner and privacy state for ids inside tx.
func resolveOwnedRows(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]store.OwnedRow, error) {
	result := make(map[int64]store.OwnedRow, len(ids))

	for start := 0; start < len(ids); start += maxInParams {
		chunk := ids[start:min(start+maxInParams, len(ids))]
		rows, err := tx.QueryContext(ctx,
			`SELECT id, owner_id, is_private FROM illustrations WHERE id IN (`+placeholders(len(chunk))+`)`,
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("resolve illustrations: %w", err)
		}

		for rows.Next() {
			var (
				id        int64
				row       store.OwnedRow
				isPrivate int
			)
			if err := rows.Scan(&id, &row.OwnerID, &isPrivate); err != nil {
				rows.Close()
				return nil, err
			}
			row.IsPrivate = isPrivate != 0
			result[id] = row
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return result, nil
}

// setPrivacy writes is_private on the rows whose flag differs from private.
func setPrivacy(ctx context.Context, tx *sql.Tx, ids []int64, rows map[int64]store.OwnedRow, private bool) (int, error) {
	targets := make([]int64, 0, len(ids))
	for _, id := range ids {
		if rows[id].IsPrivate != private {
			targets = append(targets, id)
		}
	}

	now := formatTime(time.Now())
	changed := 0
	for start := 0; start < len(targets); start += maxInParams {
		chunk := targets[start:min(start+maxInParams, len(targets))]
		args := append([]any{boolToInt(private), now}, int64Args(chunk)...)
		res, err := tx.ExecContext(ctx,
			`UPDATE illustrations SET is_private = ?, updated_at = ? WHERE id IN (`+placeholders(len(chunk))+`)`,
			args...)
		if err != nil {
			return 0, fmt.Errorf("update privacy: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		changed += int(n)
	}
	return changed, nil
}

// removeTag detaches the referenced tag from ids. Illustrations without the
// tag are left alone.
func removeTag(ctx context.Context, tx *sql.Tx, ownerID int64, ids []int64, ref domain.TagRef) (int, error) {
	tagID, err := resolveTag(ctx, tx, ownerID, ref)
	if err != nil {
		return 0, err
	}

	now := formatTime(time.Now())
	changed := 0
	for start := 0; start < len(ids); start += maxInParams {
		chunk := ids[start:min(start+maxInParams, len(ids))]
		in := placeholders(len(chunk))

		args := append([]any{now, tagID}, int64Args(chunk)...)
		if _, err := tx.ExecContext(ctx, `
			UPDATE illustrations SET updated_at = ?
			WHERE id IN (SELECT illustration_id FROM illustration_tags WHERE tag_id = ? AND illustration_id IN (`+in+`))`,
			args...); err != nil {
			return 0, fmt.Errorf("touch illustrations: %w", err)
		}

		args = append([]any{tagID}, int64Args(chunk)...)
		res, err := tx.ExecContext(ctx,
			`DELETE FROM illustration_tags WHERE tag_id = ? AND illustration_id IN (`+in+`)`,
			args...)
		if err != nil {
			return 0, fmt.Errorf("detach tag: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		changed += int(n)
	}
	return changed, nil
}

// resolveTag finds the owner's tag by id or slug inside tx.
func resolveTag(ctx context.Context, tx *sql.Tx, ownerID int64, ref domain.TagRef) (int64, error) {
	if ref.ID != 0 {
		var tagOwner int64
		err := tx.QueryRowContext(ctx, `SELECT owner_id FROM tags WHERE id = ?`, ref.ID).Scan(&tagOwner)
		if errors.Is(err, sql.ErrNoRows) {
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
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM tags WHERE owner_id = ? AND slug = ?`, ownerID, ref.Slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound.WithMessage(fmt.Sprintf("tag %q not found", ref.Slug))
	}
	if err != nil {
		return 0, fmt.Errorf("resolve tag: %w", err)
	}
	return id, nil
}
