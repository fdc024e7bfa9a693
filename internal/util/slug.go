// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/domain"
)

var (
	// Matches anything outside the slug source alphabet.
	slugStripRe = regexp.MustCompile(`[^A-Za-z0-9\- ]`)
	// Matches runs of spaces.
	spaceRe = regexp.MustCompile(` +`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)

	// Apostrophes join the letters around them ("don't" is one word).
	apostropheReplacer = strings.NewReplacer("'", "", "’", "")

	// SlugPattern is the exact format of every tag slug.
	SlugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// foldDiacritics decomposes and drops combining marks so "Café" slugs as "cafe".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeTagSlug converts a tag name (or an existing slug) to its slug.
// Applying it to its own output returns the same value.
//
// Normalization rules:
//  1. Fold diacritics
//  2. Strip characters outside [A-Za-z0-9\- ]
//  3. Replace spaces with dashes and lowercase
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"My Tag!"        → "my-tag"
//	"  fire & ice "  → "fire-ice"
//	"Café Noir"      → "cafe-noir"
//	"--leading--"    → "leading"
func NormalizeTagSlug(input string) string {
	s := foldDiacritics(input)
	s = slugStripRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.ToLower(s)
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CanonicalTagName title-cases every word of the input and joins the words
// with single spaces. Words are runs of letters and digits.
//
//	"  fire & ice " → "Fire Ice"
//	"my TAG"        → "My Tag"
func CanonicalTagName(input string) string {
	words := strings.FieldsFunc(apostropheReplacer.Replace(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	caser := cases.Title(language.Und)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// NormalizeTag produces the canonical name and derived slug for a raw tag.
// It fails only when the input reduces to an empty slug.
func NormalizeTag(raw string) (domain.TagName, error) {
	name := CanonicalTagName(raw)
	slug := NormalizeTagSlug(name)
	if slug == "" {
		return domain.TagName{}, domainerrors.ValidationField("name", "must contain at least one letter or digit")
	}
	return domain.TagName{Name: name, Slug: slug}, nil
}
