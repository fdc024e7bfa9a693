package domain

import "encoding/json"

// BulkActionKind names a bulk mutation. Only the literal values below are accepted.
type BulkActionKind string

// Supported bulk actions.
const (
	ActionTogglePrivacy BulkActionKind = "toggle_privacy"
	ActionRemoveTag     BulkActionKind = "remove_tag"
)

// BulkRequest is the raw, unvalidated bulk mutation input.
type BulkRequest struct {
	IllustrationIDs []int64         `json:"illustration_ids"`
	Action          string          `json:"action"`
	Data            json.RawMessage `json:"data"`
}

// TagRef identifies a tag either by ID or by slug.
type TagRef struct {
	ID   int64  `json:"id,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// BulkAction is a validated bulk mutation.
// Private is meaningful for toggle_privacy and Tag for remove_tag.
type BulkAction struct {
	IllustrationIDs []int64
	Action          BulkActionKind
	Private         bool
	Tag             TagRef
}

// BulkResult reports the outcome of a committed bulk mutation.
type BulkResult struct {
	OperationID     string         `json:"operation_id"`
	Action          BulkActionKind `json:"action"`
	IllustrationIDs []int64        `json:"illustration_ids"`
	Changed         int            `json:"changed"`
}
