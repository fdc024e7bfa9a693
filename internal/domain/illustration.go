// Package domain holds the core types of the illustrations server.
package domain

import (
	"strings"
	"time"
)

// Defaults applied to blank illustration fields on create.
const (
	DefaultTitle   = "Untitled"
	DefaultAuthor  = "Unknown"
	DefaultContent = "No description"
)

// Illustration is a stored passage owned by exactly one user.
// Search never mutates it; only explicit updates and bulk actions do.
type Illustration struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	OwnerID   int64     `json:"owner_id"`
	Tags      []Tag     `json:"tags"`
	IsPrivate bool      `json:"is_private"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasEmbedding reports whether an embedding vector is stored.
func (i *Illustration) HasEmbedding() bool {
	return len(i.Embedding) > 0
}

// ApplyDefaults fills blank title, author and content.
func (i *Illustration) ApplyDefaults() {
	if strings.TrimSpace(i.Title) == "" {
		i.Title = DefaultTitle
	}
	if strings.TrimSpace(i.Author) == "" {
		i.Author = DefaultAuthor
	}
	if strings.TrimSpace(i.Content) == "" {
		i.Content = DefaultContent
	}
}

// EmbeddingText is the text fed to the embedding model for this illustration.
func (i *Illustration) EmbeddingText() string {
	return strings.TrimSpace(i.Title + "\n\n" + i.Content)
}

// HasTag reports whether a tag with the given slug is attached.
func (i *Illustration) HasTag(slug string) bool {
	for _, t := range i.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// Touch updates the UpdatedAt timestamp.
func (i *Illustration) Touch() {
	i.UpdatedAt = time.Now()
}
