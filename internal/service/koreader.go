package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/illustrationsapp/illustrations-server/internal/util"
)

// koreaderBook is one document of a KOReader highlights export.
type koreaderBook struct {
	Title   string          `json:"title"`
	Author  string          `json:"author"`
	File    string          `json:"file"`
	Entries []koreaderEntry `json:"entries"`
}

type koreaderEntry struct {
	Text    string `json:"text"`
	Chapter string `json:"chapter"`
	Color   string `json:"color"`
	Page    int    `json:"page"`
	Time    int64  `json:"time"`
}

// koreaderExport covers both export shapes: a single book carries entries at
// the top level, an all-books export lists documents.
type koreaderExport struct {
	koreaderBook
	Documents []koreaderBook `json:"documents"`
}

// ErrUnknownExport is returned when an export matches no known layout.
var ErrUnknownExport = errors.New("unrecognized export layout")

// ParseKOReaderJSON reads a KOReader export and returns one create request
// per highlight, deduplicated by content and source. Empty highlights are dropped.
func ParseKOReaderJSON(r io.Reader) ([]CreateIllustrationRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read koreader export: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode koreader export: %w", err)
	}

	_, hasDocuments := raw["documents"]
	_, hasEntries := raw["entries"]
	if !hasDocuments && !hasEntries {
		return nil, fmt.Errorf("koreader export: %w", ErrUnknownExport)
	}

	var export koreaderExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("decode koreader export: %w", err)
	}

	books := export.Documents
	if hasEntries {
		books = append(books, export.koreaderBook)
	}

	var out []CreateIllustrationRequest
	for _, b := range books {
		for _, e := range b.Entries {
			content := util.CollapseWhitespace(e.Text)
			if content == "" {
				continue
			}

			source := util.CollapseWhitespace(b.Title)
			if e.Page != 0 {
				source += " p. " + strconv.Itoa(e.Page)
			}

			out = append(out, CreateIllustrationRequest{
				Title:   util.Truncate(b.Title, importTitleRunes),
				Author:  b.Author,
				Source:  source,
				Content: content,
				Tags:    importTags(content, e.Color, tagToFix),
			})
		}
	}
	return dedupeHighlights(out), nil
}
