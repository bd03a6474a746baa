// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the triage engine:
// the symptom catalog, match results, the differential diagnosis, the
// triage level, and the configuration of each stage.
package types

import "strings"

// Severity grades how serious a symptom is. It drives the triage level.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// ParseSeverity maps a raw catalog value to a Severity. Matching is
// case-insensitive; unknown or empty values become SeverityLow.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityHigh:
		return SeverityHigh
	case SeverityModerate:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// DiseaseWeight associates a disease with a symptom.
type DiseaseWeight struct {
	// Name identifies the disease (e.g. "Influenza").
	Name string `json:"name" yaml:"name"`

	// Probability is a raw, entry-local weight. Weights are additive across
	// entries and are only normalized after aggregation.
	Probability float64 `json:"probability" yaml:"probability"`
}

// SymptomEntry is one row of the symptom catalog.
type SymptomEntry struct {
	// Symptom is the canonical symptom name.
	Symptom string `json:"symptom" yaml:"symptom"`

	// Synonyms are alternate phrasings of the symptom. May be empty.
	Synonyms []string `json:"synonyms" yaml:"synonyms"`

	// Severity grades the symptom; unknown values are stored as low.
	Severity Severity `json:"severity" yaml:"severity"`

	// Diseases lists the candidate diseases this symptom points to. An
	// entry with no diseases still counts toward triage.
	Diseases []DiseaseWeight `json:"diseases" yaml:"diseases"`
}

// Catalog is the reference set of known symptoms, in source order.
type Catalog struct {
	Symptoms []SymptomEntry `json:"symptoms" yaml:"symptoms"`
}

// IsEmpty reports whether the catalog has no entries.
func (c Catalog) IsEmpty() bool {
	return len(c.Symptoms) == 0
}
