package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/illustrationsapp/illustrations-server/internal/util"
)

// Class names Google Docs assigns in a Play Books notes export.
const (
	playBooksHighlightTable = "c4"
	playBooksHighlightText  = "c9"
	playBooksPageLink       = "c10"
	playBooksTitleSpan      = "c33"
	playBooksAuthorSpan     = "c17"
)

// playBooksBoilerplate marks export banner paragraphs that are not highlights.
var playBooksBoilerplate = []string{
	"Created by",
	"Last synced",
	"This document is overwritten",
	"You should make a copy",
}

// ParsePlayBooksHTML reads a Play Books notes export saved as HTML and
// returns one create request per highlight. Highlight markup is kept as
// Markdown. Highlights without a page link are dropped.
func ParsePlayBooksHTML(r io.Reader) ([]CreateIllustrationRequest, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse play books html: %w", err)
	}

	title := firstText(doc,
		func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, playBooksTitleSpan) && hasAncestor(n, "h1") },
		func(n *html.Node) bool { return isElement(n, "h1") },
		func(n *html.Node) bool { return hasClass(n, "title") },
	)
	author := firstText(doc,
		func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, playBooksAuthorSpan) && hasAncestor(n, "p") },
		func(n *html.Node) bool { return hasClass(n, "subtitle") },
	)

	var out []CreateIllustrationRequest
	for _, table := range findAll(doc, func(n *html.Node) bool {
		return isElement(n, "table") && hasClass(n, playBooksHighlightTable)
	}) {
		var buf strings.Builder
		for _, span := range findAll(table, func(n *html.Node) bool {
			return isElement(n, "span") && hasClass(n, playBooksHighlightText)
		}) {
			if err := html.Render(&buf, span); err != nil {
				return nil, fmt.Errorf("render highlight: %w", err)
			}
		}
		content := util.CollapseWhitespace(util.HTMLToMarkdown(buf.String()))
		if content == "" {
			continue
		}

		page := firstText(table, func(n *html.Node) bool {
			return isElement(n, "a") && hasClass(n, playBooksPageLink)
		})
		if page == "" {
			continue
		}

		out = append(out, CreateIllustrationRequest{
			Title:   util.Truncate(content, importTitleRunes),
			Author:  author,
			Source:  title + " p. " + page,
			Content: content,
			Tags:    importTags(content, tagToDo),
		})
	}
	return dedupeHighlights(out), nil
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func hasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, tag) {
			return true
		}
	}
	return false
}

// findAll returns every descendant of root matching match, in document order.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// firstText returns the text of the first node matched by the first matcher
// that finds a non-empty one.
func firstText(root *html.Node, matchers ...func(*html.Node) bool) string {
	for _, match := range matchers {
		for _, n := range findAll(root, match) {
			if text := util.CollapseWhitespace(nodeText(n)); text != "" {
				return text
			}
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
		sb.WriteByte(' ')
	}
	return sb.String()
}

// WordprocessingML subset of a Play Books DOCX export. Each highlight is a
// nested table whose first row holds the text in cell 1 and the page in cell 2.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Tables []docxTable `xml:"tbl"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs  []docxRun  `xml:"r"`
	Links []docxLink `xml:"hyperlink"`
}

type docxRun struct {
	Text string `xml:"t"`
}

type docxLink struct {
	Runs []docxRun `xml:"r"`
}

func (p docxParagraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	for _, l := range p.Links {
		for _, r := range l.Runs {
			sb.WriteString(r.Text)
		}
	}
	return util.CollapseWhitespace(sb.String())
}

// cellText returns the text of one paragraph of t, or "" when the export is
// shaped differently.
func (t docxTable) cellText(row, cell, para int) string {
	if row >= len(t.Rows) || cell >= len(t.Rows[row].Cells) {
		return ""
	}
	ps := t.Rows[row].Cells[cell].Paragraphs
	if para >= len(ps) {
		return ""
	}
	return ps[para].text()
}

// errNoDocumentXML is returned for a zip that is not a Word document.
var errNoDocumentXML = errors.New("word/document.xml not found")

// ParsePlayBooksDOCX reads a Play Books notes export saved as DOCX and
// returns one create request per highlight. The header table names the book
// and its author; banner paragraphs are skipped.
func ParsePlayBooksDOCX(data []byte) ([]CreateIllustrationRequest, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if body == nil {
		return nil, errNoDocumentXML
	}

	var doc docxDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document.xml: %w", err)
	}
	if len(doc.Body.Tables) == 0 {
		return nil, fmt.Errorf("play books docx: %w", ErrUnknownExport)
	}

	book := doc.Body.Tables[0].cellText(0, 1, 0)
	author := doc.Body.Tables[0].cellText(0, 1, 1)

	var out []CreateIllustrationRequest
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				for _, highlight := range cell.Tables {
					content := highlight.cellText(0, 1, 0)
					if content == "" || isPlayBooksBoilerplate(content) {
						continue
					}

					source := book
					if page := highlight.cellText(0, 2, 0); page != "" {
						source += " p. " + page
					}

					out = append(out, CreateIllustrationRequest{
						Title:   util.Truncate(content, importTitleRunes),
						Author:  author,
						Source:  source,
						Content: content,
						Tags:    importTags(content, tagToFix),
					})
				}
			}
		}
	}
	return dedupeHighlights(out), nil
}

func isPlayBooksBoilerplate(text string) bool {
	for _, b := range playBooksBoilerplate {
		if strings.Contains(text, b) {
			return true
		}
	}
	return false
}
