package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/illustrationsapp/illustrations-server/internal/util"
)

// Readwise export columns read by the importer.
const (
	colHighlight    = "Highlight"
	colBookTitle    = "Book Title"
	colBookAuthor   = "Book Author"
	colAmazonID     = "Amazon Book ID"
	colColor        = "Color"
	colLocationType = "Location Type"
	colLocation     = "Location"
)

// ParseReadwiseCSV reads an export and returns one create request per highlight.
// Rows without a highlight are dropped. Highlights clipped as HTML are stored as Markdown.
func ParseReadwiseCSV(r io.Reader) ([]CreateIllustrationRequest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv headers: %w", err)
	}
	indices := make(map[string]int, len(headers))
	for i, h := range headers {
		indices[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := indices[colHighlight]; !ok {
		return nil, fmt.Errorf("csv has no %q column", colHighlight)
	}

	var out []CreateIllustrationRequest
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := indices[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		highlight := util.HTMLToMarkdown(field(colHighlight))
		if highlight == "" {
			continue
		}

		tags := importTags(highlight, field(colAmazonID), field(colColor), tagToFix)

		source := strings.Join(strings.Fields(
			field(colBookTitle)+" "+field(colLocationType)+" "+field(colLocation)), " ")

		out = append(out, CreateIllustrationRequest{
			Title:   util.Truncate(highlight, importTitleRunes),
			Author:  field(colBookAuthor),
			Source:  source,
			Content: highlight,
			Tags:    tags,
		})
	}
	return out, nil
}
