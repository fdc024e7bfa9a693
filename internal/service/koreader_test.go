package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const koreaderSingleBook = `{
  "title": "The Pursuit of God",
  "author": "A. W. Tozer",
  "file": "/books/pursuit.epub",
  "entries": [
    {"text": "  To have found God and still to pursue Him  ", "chapter": "1", "color": "yellow", "page": 14, "time": 1700000000},
    {"text": "   ", "page": 15},
    {"text": "To have found God and still to pursue Him", "color": "yellow", "page": 14}
  ]
}`

const koreaderAllBooks = `{
  "created_on": 1700000000,
  "version": "highlights_export",
  "documents": [
    {"title": "Book One", "author": "First", "entries": [{"text": "One", "page": 1}]},
    {"title": "Book Two", "author": "Second", "entries": [{"text": "Two", "color": "blue"}]}
  ]
}`

func TestParseKOReaderJSON_SingleBook(t *testing.T) {
	reqs, err := ParseKOReaderJSON(strings.NewReader(koreaderSingleBook))
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	r := reqs[0]
	assert.Equal(t, "To have found God and still to pursue Him", r.Content)
	assert.Equal(t, "The Pursuit of God", r.Title)
	assert.Equal(t, "A. W. Tozer", r.Author)
	assert.Equal(t, "The Pursuit of God p. 14", r.Source)
	assert.Equal(t, []string{"yellow", "To Fix", "Quotes"}, r.Tags)
}

func TestParseKOReaderJSON_AllBooks(t *testing.T) {
	reqs, err := ParseKOReaderJSON(strings.NewReader(koreaderAllBooks))
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "Book One p. 1", reqs[0].Source)
	assert.Equal(t, "First", reqs[0].Author)
	assert.Equal(t, "Book Two", reqs[1].Source)
	assert.Equal(t, []string{"blue", "To Fix", "Quotes"}, reqs[1].Tags)
}

func TestParseKOReaderJSON_UnknownLayout(t *testing.T) {
	_, err := ParseKOReaderJSON(strings.NewReader(`{"bookmarks": []}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownExport))

	_, err = ParseKOReaderJSON(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestImporter_ImportKOReader(t *testing.T) {
	svc, s := newTestIllustrations(t, nil)
	imp := NewImporter(svc, testLogger())
	ctx := context.Background()

	stats, err := imp.ImportKOReader(ctx, 3, strings.NewReader(koreaderAllBooks))
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Rows: 2, Imported: 2}, stats)

	list, err := s.ListIllustrations(ctx, 3, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
