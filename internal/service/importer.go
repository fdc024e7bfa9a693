package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Importer rules shared by every highlight export format.
const (
	importTitleRunes = 100
	quoteMaxRunes    = 150
	tagToFix         = "To Fix"
	tagToDo          = "To Do"
	tagQuotes        = "Quotes"
)

// ImportStats summarizes an import run.
type ImportStats struct {
	Rows     int
	Imported int
	Skipped  int
}

// Importer turns highlight exports from reading apps into illustrations.
type Importer struct {
	illustrations *IllustrationService
	logger        *slog.Logger
}

// NewImporter creates an importer writing through the illustration service.
func NewImporter(illustrations *IllustrationService, logger *slog.Logger) *Importer {
	return &Importer{
		illustrations: illustrations,
		logger:        logger,
	}
}

// ImportReadwise imports a Readwise highlights CSV export.
func (imp *Importer) ImportReadwise(ctx context.Context, ownerID int64, r io.Reader) (ImportStats, error) {
	reqs, err := ParseReadwiseCSV(r)
	if err != nil {
		return ImportStats{}, err
	}
	return imp.create(ctx, ownerID, "readwise", reqs)
}

// ImportKOReader imports a KOReader highlights JSON export, either a single
// book or an all-books document.
func (imp *Importer) ImportKOReader(ctx context.Context, ownerID int64, r io.Reader) (ImportStats, error) {
	reqs, err := ParseKOReaderJSON(r)
	if err != nil {
		return ImportStats{}, err
	}
	return imp.create(ctx, ownerID, "koreader", reqs)
}

// ImportPlayBooks imports a Google Play Books notes export. The format is
// picked from the file name: .html or .docx.
func (imp *Importer) ImportPlayBooks(ctx context.Context, ownerID int64, name string, data []byte) (ImportStats, error) {
	var (
		reqs []CreateIllustrationRequest
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".html", ".htm":
		reqs, err = ParsePlayBooksHTML(bytes.NewReader(data))
	case ".docx":
		reqs, err = ParsePlayBooksDOCX(data)
	default:
		return ImportStats{}, fmt.Errorf("unsupported play books export %q: want .html or .docx", ext)
	}
	if err != nil {
		return ImportStats{}, err
	}
	return imp.create(ctx, ownerID, "playbooks", reqs)
}

// create stores reqs for ownerID. Requests the service rejects are logged
// and counted as skipped; store failures abort the run.
func (imp *Importer) create(ctx context.Context, ownerID int64, format string, reqs []CreateIllustrationRequest) (ImportStats, error) {
	stats := ImportStats{Rows: len(reqs)}
	for i, req := range reqs {
		if _, err := imp.illustrations.Create(ctx, ownerID, req); err != nil {
			if isClientError(err) {
				stats.Skipped++
				imp.logger.Warn("skipping highlight", "format", format, "row", i+1, "error", err)
				continue
			}
			return stats, fmt.Errorf("import row %d: %w", i+1, err)
		}
		stats.Imported++
	}

	imp.logger.Info("import complete",
		"format", format,
		"owner_id", ownerID,
		"rows", stats.Rows,
		"imported", stats.Imported,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// importTags returns the non-empty tags followed by Quotes when content is
// short enough to quote.
func importTags(content string, tags ...string) []string {
	out := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if utf8.RuneCountInString(content) < quoteMaxRunes {
		out = append(out, tagQuotes)
	}
	return out
}

// dedupeHighlights keeps the first request for each content and source pair.
func dedupeHighlights(reqs []CreateIllustrationRequest) []CreateIllustrationRequest {
	seen := make(map[string]struct{}, len(reqs))
	out := reqs[:0]
	for _, r := range reqs {
		key := r.Content + "::" + r.Source
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
