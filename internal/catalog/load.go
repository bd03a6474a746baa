// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads symptom catalogs from JSON or YAML sources and
// keeps an imported copy in a SQLite database with full-text search over
// symptom names and synonyms.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/triage-engine/pkg/types"
)

// ErrCatalogUnavailable reports a catalog source that is missing or not a
// well-formed catalog document. Loaders return it alongside an empty
// catalog.
var ErrCatalogUnavailable = errors.New("symptom catalog unavailable")

// Format is the serialization of a catalog source.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from the file extension. Anything other
// than .yaml or .yml is read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// rawEntry mirrors a catalog entry loosely so that odd severity values
// survive decoding and can be mapped to low.
type rawEntry struct {
	Symptom  string       `json:"symptom" yaml:"symptom"`
	Synonyms []string     `json:"synonyms" yaml:"synonyms"`
	Severity any          `json:"severity" yaml:"severity"`
	Diseases []rawDisease `json:"diseases" yaml:"diseases"`
}

type rawDisease struct {
	Name        string  `json:"name" yaml:"name"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// entryDecoder decodes one catalog entry into v.
type entryDecoder func(v any) error

// Load reads a catalog source from path. A missing or malformed document
// yields an empty catalog and an error wrapping ErrCatalogUnavailable.
// Individual malformed entries are skipped with a warning on w.
func Load(path string, w io.Writer) (types.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Catalog{}, fmt.Errorf("%w: reading %s: %v", ErrCatalogUnavailable, path, err)
	}
	cat, err := Parse(data, FormatForPath(path), w)
	if err != nil {
		return types.Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a catalog document. The document must carry a top-level
// "symptoms" sequence.
func Parse(data []byte, format Format, w io.Writer) (types.Catalog, error) {
	var (
		decoders []entryDecoder
		err      error
	)
	switch format {
	case FormatYAML:
		decoders, err = yamlEntries(data)
	default:
		decoders, err = jsonEntries(data)
	}
	if err != nil {
		return types.Catalog{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	cat := types.Catalog{Symptoms: make([]types.SymptomEntry, 0, len(decoders))}
	for i, decode := range decoders {
		var re rawEntry
		if err := decode(&re); err != nil {
			fmt.Fprintf(w, "warning: skipping catalog entry %d: %v\n", i, err)
			continue
		}
		entry, ok := convertEntry(i, re, w)
		if !ok {
			continue
		}
		cat.Symptoms = append(cat.Symptoms, entry)
	}
	return cat, nil
}

func jsonEntries(data []byte) ([]entryDecoder, error) {
	var doc struct {
		Symptoms *[]json.RawMessage `json:"symptoms"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	if doc.Symptoms == nil {
		return nil, errors.New(`missing top-level "symptoms" list`)
	}
	decoders := make([]entryDecoder, len(*doc.Symptoms))
	for i, raw := range *doc.Symptoms {
		raw := raw
		decoders[i] = func(v any) error { return json.Unmarshal(raw, v) }
	}
	return decoders, nil
}

func yamlEntries(data []byte) ([]entryDecoder, error) {
	var doc struct {
		Symptoms *yaml.Node `yaml:"symptoms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %v", err)
	}
	if doc.Symptoms == nil || doc.Symptoms.Kind != yaml.SequenceNode {
		return nil, errors.New(`missing top-level "symptoms" list`)
	}
	decoders := make([]entryDecoder, len(doc.Symptoms.Content))
	for i, node := range doc.Symptoms.Content {
		node := node
		decoders[i] = func(v any) error { return node.Decode(v) }
	}
	return decoders, nil
}

// convertEntry validates a decoded entry. Entries without a name are
// dropped; blank synonyms and invalid disease weights are dropped from an
// otherwise valid entry.
func convertEntry(i int, re rawEntry, w io.Writer) (types.SymptomEntry, bool) {
	name := strings.TrimSpace(re.Symptom)
	if name == "" {
		fmt.Fprintf(w, "warning: skipping catalog entry %d: missing symptom name\n", i)
		return types.SymptomEntry{}, false
	}

	entry := types.SymptomEntry{
		Symptom:  name,
		Synonyms: []string{},
		Severity: types.ParseSeverity(severityString(re.Severity)),
		Diseases: []types.DiseaseWeight{},
	}
	for _, s := range re.Synonyms {
		if s = strings.TrimSpace(s); s != "" {
			entry.Synonyms = append(entry.Synonyms, s)
		}
	}
	for _, d := range re.Diseases {
		dname := strings.TrimSpace(d.Name)
		switch {
		case dname == "":
			fmt.Fprintf(w, "warning: %s: dropping disease with no name\n", name)
		case !validProbability(d.Probability):
			fmt.Fprintf(w, "warning: %s: dropping disease %s with invalid probability %v\n", name, dname, d.Probability)
		default:
			entry.Diseases = append(entry.Diseases, types.DiseaseWeight{Name: dname, Probability: d.Probability})
		}
	}
	return entry, true
}

// validProbability reports whether p is a usable raw disease weight.
func validProbability(p float64) bool {
	return p >= 0 && !math.IsInf(p, 0)
}

func severityString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
