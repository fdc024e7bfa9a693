package domain

import "time"

// Tag is an owner-scoped label attached to illustrations.
// Name is stored in title case; Slug is derived from Name and is unique per owner.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// TagName is the canonical pair produced by tag normalization.
type TagName struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// IllustrationTag is a row of the illustration/tag join table.
type IllustrationTag struct {
	IllustrationID int64     `json:"illustration_id"`
	TagID          int64     `json:"tag_id"`
	CreatedAt      time.Time `json:"created_at"`
}
