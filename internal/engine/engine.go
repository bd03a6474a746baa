// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs one free-text query through the matcher and feeds
// the shared match set to the diagnosis aggregator and triage classifier.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/triage-engine/internal/diagnose"
	"github.com/pdiddy/triage-engine/internal/match"
	"github.com/pdiddy/triage-engine/internal/triage"
	"github.com/pdiddy/triage-engine/pkg/types"
)

var (
	// ErrEmptyQuery is returned for a query that is blank after trimming.
	ErrEmptyQuery = errors.New("please enter at least one symptom")

	// ErrNoMatch is returned when no catalog entry matched the query,
	// including when the catalog is empty or the query timed out.
	ErrNoMatch = errors.New("no matching symptoms found, please try again")
)

// Engine assesses queries against a fixed catalog. It is safe for
// concurrent use as long as the oracle is.
type Engine struct {
	catalog    types.Catalog
	matcher    *match.Matcher
	classifier *triage.Classifier
	timeout    time.Duration
	w          io.Writer
}

// New returns an Engine over catalog. Warnings are written to w; a nil w
// discards them.
func New(catalog types.Catalog, oracle match.Oracle, cfg types.EngineConfig, w io.Writer) *Engine {
	if w == nil {
		w = io.Discard
	}
	return &Engine{
		catalog:    catalog,
		matcher:    match.New(oracle, cfg.Matcher),
		classifier: triage.New(cfg.Triage.Weights),
		timeout:    cfg.Matcher.Timeout,
		w:          w,
	}
}

// Assess matches query against the catalog and derives a differential
// diagnosis and a triage level from the same matches.
func (e *Engine) Assess(ctx context.Context, query string) (types.Assessment, error) {
	if strings.TrimSpace(query) == "" {
		return types.Assessment{}, ErrEmptyQuery
	}

	a := types.Assessment{ID: uuid.NewString(), Query: query}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	matches := e.matcher.Match(ctx, query, e.catalog.Symptoms)
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(e.w, "warning: assessment %s timed out after %v\n", a.ID, e.timeout)
		}
		return a, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}
	if len(matches) == 0 {
		return a, ErrNoMatch
	}

	a.Matches = matches
	a.Diagnosis = diagnose.Aggregate(matches)
	a.Triage = e.classifier.Classify(matches)
	a.Recommendation = a.Triage.Recommendation()
	a.AssessedAt = time.Now().UTC()
	return a, nil
}
