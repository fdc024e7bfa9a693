package domain

import "time"

// Place records where and when an illustration was used, such as a talk or
// a class. Used is a calendar date (YYYY-MM-DD) or empty.
type Place struct {
	ID             int64     `json:"id"`
	IllustrationID int64     `json:"illustration_id"`
	OwnerID        int64     `json:"owner_id"`
	Place          string    `json:"place"`
	Location       string    `json:"location"`
	Used           string    `json:"used,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (p *Place) Touch() {
	p.UpdatedAt = time.Now()
}
