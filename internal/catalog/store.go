// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/triage-engine/pkg/types"
)

const dbFile = "catalog.db"

// Store keeps an imported symptom catalog in SQLite.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int

	// fts is false when the driver was built without FTS5 (build tag
	// sqlite_fts5); Search then falls back to LIKE matching.
	fts bool
}

// NewStore opens or creates dbDir/catalog.db and creates the schema if it
// does not exist.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	dir := cfg.DBDir
	if dir == "" {
		dir = "catalog"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS symptoms (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			severity TEXT NOT NULL,
			synonyms TEXT,
			diseases TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_position ON symptoms(position)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_severity ON symptoms(severity)`,
		`CREATE TABLE IF NOT EXISTS import_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT,
			entries INTEGER
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='symptoms_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		_, err := s.db.Exec(`CREATE VIRTUAL TABLE symptoms_fts USING fts5(name, synonyms, content=symptoms, content_rowid=rowid)`)
		if err != nil {
			if strings.Contains(err.Error(), "no such module") {
				return nil
			}
			return fmt.Errorf("creating FTS table: %w", err)
		}
		ftsStatements := []string{
			`CREATE TRIGGER symptoms_ai AFTER INSERT ON symptoms BEGIN
				INSERT INTO symptoms_fts(rowid, name, synonyms) VALUES (new.rowid, new.name, new.synonyms);
			END`,
			`CREATE TRIGGER symptoms_ad AFTER DELETE ON symptoms BEGIN
				INSERT INTO symptoms_fts(symptoms_fts, rowid, name, synonyms) VALUES('delete', old.rowid, old.name, old.synonyms);
			END`,
			`CREATE TRIGGER symptoms_au AFTER UPDATE ON symptoms BEGIN
				INSERT INTO symptoms_fts(symptoms_fts, rowid, name, synonyms) VALUES('delete', old.rowid, old.name, old.synonyms);
				INSERT INTO symptoms_fts(rowid, name, synonyms) VALUES (new.rowid, new.name, new.synonyms);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	s.fts = true
	return nil
}

// ImportSummary reports the outcome of ImportFile.
type ImportSummary struct {
	Source  string
	Entries int
	Skipped bool
}

// ImportFile loads the catalog source at path and replaces the stored
// catalog with it. When the file is unchanged since its last import the
// store is left untouched and the summary reports Skipped. A source that
// fails to load leaves the store untouched and returns the load error.
func (s *Store) ImportFile(ctx context.Context, path string, w io.Writer) (ImportSummary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	summary := ImportSummary{Source: abs}

	info, err := os.Stat(abs)
	if err != nil {
		return summary, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var storedModTime string
	var storedEntries int
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time, entries FROM import_status WHERE source = ?`, abs,
	).Scan(&storedModTime, &storedEntries)
	if err == nil && storedModTime == modTime {
		fmt.Fprintf(w, "skipped %s (unchanged, %d entries)\n", path, storedEntries)
		summary.Entries = storedEntries
		summary.Skipped = true
		return summary, nil
	}

	cat, err := Load(abs, w)
	if err != nil {
		return summary, err
	}

	if err := s.replace(ctx, cat, abs, modTime); err != nil {
		return summary, err
	}
	summary.Entries = len(cat.Symptoms)
	fmt.Fprintf(w, "imported %s (%d entries)\n", path, summary.Entries)
	return summary, nil
}

// Replace swaps the stored catalog for cat in one transaction. Disease
// weights that are negative or not finite are dropped.
func (s *Store) Replace(ctx context.Context, cat types.Catalog) error {
	return s.replace(ctx, cat, "", "")
}

func (s *Store) replace(ctx context.Context, cat types.Catalog, source, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM symptoms`); err != nil {
		return fmt.Errorf("clearing symptoms: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM import_status`); err != nil {
		return fmt.Errorf("clearing import status: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symptoms (position, name, severity, synonyms, diseases) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range cat.Symptoms {
		synonyms := e.Synonyms
		if synonyms == nil {
			synonyms = []string{}
		}
		diseases := make([]types.DiseaseWeight, 0, len(e.Diseases))
		for _, d := range e.Diseases {
			if validProbability(d.Probability) {
				diseases = append(diseases, d)
			}
		}
		synJSON, err := json.Marshal(synonyms)
		if err != nil {
			return fmt.Errorf("encoding synonyms of %s: %w", e.Symptom, err)
		}
		disJSON, err := json.Marshal(diseases)
		if err != nil {
			return fmt.Errorf("encoding diseases of %s: %w", e.Symptom, err)
		}
		if _, err := stmt.ExecContext(ctx,
			i, e.Symptom, string(types.ParseSeverity(string(e.Severity))), string(synJSON), string(disJSON),
		); err != nil {
			return fmt.Errorf("inserting symptom %s: %w", e.Symptom, err)
		}
	}

	if source != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO import_status (source, file_mod_time, entries) VALUES (?, ?, ?)`,
			source, modTime, len(cat.Symptoms),
		); err != nil {
			return fmt.Errorf("updating import status: %w", err)
		}
	}

	return tx.Commit()
}

// Catalog returns every stored entry in import order.
func (s *Store) Catalog(ctx context.Context) (types.Catalog, error) {
	entries, err := s.List(ctx, ListOptions{})
	if err != nil {
		return types.Catalog{}, err
	}
	return types.Catalog{Symptoms: entries}, nil
}
