package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIllustration_ApplyDefaults(t *testing.T) {
	il := &Illustration{Title: "  ", Content: "", Author: "C. S. Lewis"}
	il.ApplyDefaults()

	assert.Equal(t, DefaultTitle, il.Title)
	assert.Equal(t, "C. S. Lewis", il.Author)
	assert.Equal(t, DefaultContent, il.Content)
}

func TestIllustration_HasTag(t *testing.T) {
	il := &Illustration{Tags: []Tag{{Slug: "fire-ice"}, {Slug: "quotes"}}}

	assert.True(t, il.HasTag("quotes"))
	assert.False(t, il.HasTag("to-fix"))
}

func TestQuery_HasEmbedding(t *testing.T) {
	assert.False(t, Query{Text: "dragon"}.HasEmbedding())
	assert.True(t, Query{Text: "dragon", Embedding: []float32{0.1}}.HasEmbedding())
}
