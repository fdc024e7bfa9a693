package util

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase collapses whitespace and capitalizes each word, keeping punctuation.
//
//	"the  prodigal son's return" → "The Prodigal Son's Return"
func TitleCase(s string) string {
	return cases.Title(language.Und).String(CollapseWhitespace(s))
}

// CollapseWhitespace joins the words of s with single spaces.
//
//	" grace \n\t upon  grace " → "grace upon grace"
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most n runes of s, trimmed of surrounding space.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
