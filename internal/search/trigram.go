// Package search ranks an owner's illustrations against a query using trigram
// text similarity and, when supplied, embedding cosine similarity.
package search

import (
	"strings"
	"unicode"
)

// trigramSet is the set of padded three-rune windows of a string.
type trigramSet map[string]struct{}

// Trigrams splits s into words of letters and digits, pads each word with
// two leading blanks and one trailing blank, and collects every three-rune
// window. Matching is case-insensitive.
func Trigrams(s string) trigramSet {
	set := make(trigramSet)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// intersect returns |a ∩ b|.
func intersect(a, b trigramSet) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}

// similarity is |A ∩ B| / |A ∪ B|, in [0,1]. Two empty sets score 0.
func similarity(a, b trigramSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := intersect(a, b)
	return float64(shared) / float64(len(a)+len(b)-shared)
}

// wordSimilarity is the share of query trigrams present in text, in [0,1].
// A short query fully contained in a long passage scores 1.
func wordSimilarity(query, text trigramSet) float64 {
	if len(query) == 0 || len(text) == 0 {
		return 0
	}
	return float64(intersect(query, text)) / float64(len(query))
}

// Similarity returns the trigram similarity of two strings.
func Similarity(a, b string) float64 {
	return similarity(Trigrams(a), Trigrams(b))
}

// WordSimilarity returns how much of query's trigrams appear in text.
func WordSimilarity(query, text string) float64 {
	return wordSimilarity(Trigrams(query), Trigrams(text))
}
