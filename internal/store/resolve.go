package store

import "fmt"

// OwnedRow is the minimal illustration state read while resolving a bulk batch.
type OwnedRow struct {
	OwnerID   int64
	IsPrivate bool
}

// CheckOwnership verifies every requested id resolved to a row owned by ownerID.
// The first offending id, in request order, determines the error: a missing id
// yields ErrNotFound and a foreign one ErrForbidden.
func CheckOwnership(ids []int64, rows map[int64]OwnedRow, ownerID int64) error {
	for _, id := range ids {
		row, ok := rows[id]
		if !ok {
			return ErrNotFound.WithMessage(fmt.Sprintf("illustration %d not found", id))
		}
		if row.OwnerID != ownerID {
			return ErrForbidden.WithMessage(fmt.Sprintf("illustration %d is not owned by the requester", id))
		}
	}
	return nil
}
