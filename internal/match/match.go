// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match maps free text to the symptom catalog entries it
// semantically matches.
package match

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/pdiddy/triage-engine/pkg/types"
)

// Oracle scores the semantic similarity of two text spans. Scores are in
// [0,1] for well-behaved backends. An error means the pair could not be
// scored; the matcher treats it as a non-match.
type Oracle interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, a, b string) (float64, error)

// Similarity calls f(ctx, a, b).
func (f OracleFunc) Similarity(ctx context.Context, a, b string) (float64, error) {
	return f(ctx, a, b)
}

// Matcher compares queries against catalog entries through an Oracle.
type Matcher struct {
	oracle    Oracle
	threshold float64
	workers   int
}

// New returns a Matcher. A zero (unset) or negative threshold falls back
// to types.DefaultMatchThreshold; callers that accept user input should
// reject those values first.
func New(oracle Oracle, cfg types.MatcherConfig) *Matcher {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = types.DefaultMatchThreshold
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Matcher{oracle: oracle, threshold: threshold, workers: workers}
}

// Threshold returns the exclusive similarity cutoff in use.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match returns one MatchResult per catalog entry whose canonical name or
// any synonym scores above the threshold against query. Results follow
// catalog order. If ctx is done before all entries are scored, Match
// returns nil rather than a partial set.
func (m *Matcher) Match(ctx context.Context, query string, catalog []types.SymptomEntry) []types.MatchResult {
	if len(catalog) == 0 || ctx.Err() != nil {
		return nil
	}
	q := strings.ToLower(query)

	slots := make([]*types.MatchResult, len(catalog))
	if m.workers == 1 {
		for i := range catalog {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = m.matchEntry(ctx, q, catalog[i])
		}
	} else {
		m.matchConcurrent(ctx, q, catalog, slots)
	}

	if ctx.Err() != nil {
		return nil
	}

	var matches []types.MatchResult
	for _, r := range slots {
		if r != nil {
			matches = append(matches, *r)
		}
	}
	return matches
}

// matchConcurrent fans entries out to a bounded pool. Each goroutine
// writes only its own slot, so assembly order is catalog order.
func (m *Matcher) matchConcurrent(ctx context.Context, q string, catalog []types.SymptomEntry, slots []*types.MatchResult) {
	sem := make(chan struct{}, m.workers)
	var wg sync.WaitGroup

	for i := range catalog {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			slots[i] = m.matchEntry(ctx, q, catalog[i])
		}(i)
	}
	wg.Wait()
}

// matchEntry checks the canonical name first, then each synonym in order.
// The first comparison above the threshold wins.
func (m *Matcher) matchEntry(ctx context.Context, q string, entry types.SymptomEntry) *types.MatchResult {
	if score, ok := m.score(ctx, q, entry.Symptom); ok {
		return &types.MatchResult{Entry: entry, MatchedText: entry.Symptom, Score: score}
	}
	for _, syn := range entry.Synonyms {
		if score, ok := m.score(ctx, q, syn); ok {
			return &types.MatchResult{Entry: entry, MatchedText: syn, Score: score}
		}
	}
	return nil
}

// score reports whether text matches q. Oracle errors and non-finite
// scores count as non-matches.
func (m *Matcher) score(ctx context.Context, q, text string) (float64, bool) {
	if m.oracle == nil {
		return 0, false
	}
	s, err := m.oracle.Similarity(ctx, q, strings.ToLower(text))
	if err != nil || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return s, s > m.threshold
}
