// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity provides the oracles the matcher scores text with:
// a lexical overlap scorer that needs no model, and an embedding scorer
// backed by OpenAI or a local Ollama server.
package similarity

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrUnscorable is returned when a pair of texts cannot be compared, for
// example when one side is empty after normalization.
var ErrUnscorable = errors.New("text cannot be scored")

// defaultStopWords are dropped before comparison so that filler in a
// sentence like "I have a fever" does not dilute the symptom terms.
var defaultStopWords = []string{
	"a", "an", "and", "am", "are", "been", "but", "feel", "feeling", "for",
	"got", "had", "has", "have", "having", "i", "i'm", "im", "in", "is",
	"it", "me", "my", "of", "on", "or", "since", "some", "the", "to",
	"very", "was", "with",
}

// Lexical scores two texts by their overlap coefficient: shared terms
// divided by the size of the smaller term set. A short symptom name fully
// contained in a longer sentence scores 1.0. The converse also holds: a
// one-word query such as "pain" scores 1.0 against every "X pain" entry.
type Lexical struct {
	stopWords map[string]bool
}

// NewLexical returns a Lexical oracle with the default stop-word list.
func NewLexical() *Lexical {
	stop := make(map[string]bool, len(defaultStopWords))
	for _, w := range defaultStopWords {
		stop[w] = true
	}
	return &Lexical{stopWords: stop}
}

// Similarity returns the overlap coefficient of a and b in [0,1].
func (l *Lexical) Similarity(_ context.Context, a, b string) (float64, error) {
	ta, tb := l.terms(a), l.terms(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0, ErrUnscorable
	}

	small, large := ta, tb
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for t := range small {
		if large[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(small)), nil
}

// terms returns the set of normalized, lowercased words in s, minus stop
// words.
func (l *Lexical) terms(s string) map[string]bool {
	s = strings.ToLower(norm.NFKC.String(s))
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	out := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'")
		if w == "" || l.stopWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

// NormalizeText applies NFKC normalization, drops control characters
// other than newline and tab, and trims surrounding whitespace.
func NormalizeText(text string) string {
	normed := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFKC.String(text))
	return strings.TrimSpace(normed)
}
