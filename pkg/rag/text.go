package rag

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on every non-letter, non-digit rune.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// KeywordScore is the fraction of query tokens present in content.
func KeywordScore(content string, queryTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	tokens := make(map[string]struct{})
	for _, tok := range Tokenize(content) {
		tokens[tok] = struct{}{}
	}

	matched := 0
	for _, q := range queryTokens {
		if _, ok := tokens[q]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(queryTokens))
}

// splitSentences cuts text on sentence-ending punctuation. Terminators stay
// attached to their sentence.
func splitSentences(text string) []string {
	var (
		sentences []string
		b         strings.Builder
	)

	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}

	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
