// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/triage-engine/pkg/types"
)

// ListOptions filters stored entries.
type ListOptions struct {
	// Severity keeps only entries of this severity.
	Severity types.Severity

	// Disease keeps only entries that list this disease.
	Disease string

	// Limit caps the result count. Zero returns everything.
	Limit int
}

// List returns stored entries in import order, filtered by opts.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.SymptomEntry, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT s.name, s.severity, s.synonyms, s.diseases FROM symptoms s WHERE 1=1`)

	if opts.Severity != "" {
		qb.WriteString(` AND s.severity = ?`)
		args = append(args, string(types.ParseSeverity(string(opts.Severity))))
	}
	if opts.Disease != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(s.diseases) WHERE json_extract(value, '$.name') = ? COLLATE NOCASE)`)
		args = append(args, opts.Disease)
	}

	qb.WriteString(` ORDER BY s.position`)
	if opts.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	return s.queryEntries(ctx, qb.String(), args...)
}

// Search finds entries whose name or synonyms contain any word of text,
// ranked by FTS5 relevance. Limit zero uses the store default.
func (s *Store) Search(ctx context.Context, text string, limit int) ([]types.SymptomEntry, error) {
	words := searchWords(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("search text has no searchable words")
	}
	if limit <= 0 {
		limit = s.maxResults
	}
	if !s.fts {
		return s.searchLike(ctx, words, limit)
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	match := strings.Join(quoted, " OR ")
	return s.queryEntries(ctx,
		`SELECT s.name, s.severity, s.synonyms, s.diseases
		FROM symptoms_fts
		JOIN symptoms s ON s.rowid = symptoms_fts.rowid
		WHERE symptoms_fts MATCH ?
		ORDER BY symptoms_fts.rank, s.position
		LIMIT ?`, match, limit)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]types.SymptomEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []types.SymptomEntry
	for rows.Next() {
		var (
			e        types.SymptomEntry
			severity string
			synJSON  sql.NullString
			disJSON  sql.NullString
		)
		if err := rows.Scan(&e.Symptom, &severity, &synJSON, &disJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Severity = types.ParseSeverity(severity)
		e.Synonyms = []string{}
		e.Diseases = []types.DiseaseWeight{}
		if synJSON.Valid && synJSON.String != "" {
			if err := json.Unmarshal([]byte(synJSON.String), &e.Synonyms); err != nil {
				return nil, fmt.Errorf("decoding synonyms of %s: %w", e.Symptom, err)
			}
		}
		if disJSON.Valid && disJSON.String != "" {
			if err := json.Unmarshal([]byte(disJSON.String), &e.Diseases); err != nil {
				return nil, fmt.Errorf("decoding diseases of %s: %w", e.Symptom, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// searchLike matches words as substrings of the name or synonyms.
func (s *Store) searchLike(ctx context.Context, words []string, limit int) ([]types.SymptomEntry, error) {
	var (
		conds []string
		args  []any
	)
	for _, w := range words {
		conds = append(conds, `lower(s.name) LIKE ? OR lower(s.synonyms) LIKE ?`)
		args = append(args, "%"+w+"%", "%"+w+"%")
	}
	args = append(args, limit)
	return s.queryEntries(ctx,
		`SELECT s.name, s.severity, s.synonyms, s.diseases FROM symptoms s
		WHERE `+strings.Join(conds, " OR ")+`
		ORDER BY s.position LIMIT ?`, args...)
}

// searchWords splits free text into lowercase words. Quoting each word
// keeps user punctuation from breaking the FTS5 MATCH syntax.
func searchWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
