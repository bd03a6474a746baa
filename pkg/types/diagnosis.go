// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MatchResult is a catalog entry confirmed relevant to a query. Each
// entry contributes at most one MatchResult per query.
type MatchResult struct {
	// Entry is the matched catalog entry.
	Entry SymptomEntry `json:"entry" yaml:"entry"`

	// MatchedText is the canonical name or synonym that crossed the
	// similarity threshold.
	MatchedText string `json:"matched_text" yaml:"matched_text"`

	// Score is the similarity between the query and MatchedText.
	Score float64 `json:"score" yaml:"score"`
}

// DiseaseScore is one row of a differential diagnosis.
type DiseaseScore struct {
	Name        string  `json:"name" yaml:"name"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// DiagnosisDistribution is a ranked list of candidate diseases whose
// probabilities sum to 1.0. It is empty when no weight was accumulated.
type DiagnosisDistribution []DiseaseScore

// TriageLevel is an urgency classification derived from the severities of
// matched symptoms.
type TriageLevel string

const (
	TriageEmergent  TriageLevel = "Emergent"
	TriageUrgent    TriageLevel = "Urgent"
	TriageNonUrgent TriageLevel = "Non-urgent"
)

// Recommendation returns the advice shown alongside the level.
func (l TriageLevel) Recommendation() string {
	switch l {
	case TriageEmergent:
		return "Seek immediate medical attention."
	case TriageUrgent:
		return "Consult a healthcare provider soon."
	default:
		return "Monitor symptoms and consult a doctor if they persist."
	}
}

// String returns the level with its advice, e.g.
// "Urgent: Consult a healthcare provider soon."
func (l TriageLevel) String() string {
	return string(l) + ": " + l.Recommendation()
}

// Assessment is the outcome of one query. It is built per request and
// never stored.
type Assessment struct {
	// ID correlates diagnostics written while the query ran.
	ID string `json:"id" yaml:"id"`

	// Query is the free text as entered.
	Query string `json:"query" yaml:"query"`

	// Matches lists the matched catalog entries in catalog order.
	Matches []MatchResult `json:"matches" yaml:"matches"`

	// Diagnosis is the ranked differential diagnosis.
	Diagnosis DiagnosisDistribution `json:"diagnosis" yaml:"diagnosis"`

	// Triage is the urgency level.
	Triage TriageLevel `json:"triage" yaml:"triage"`

	// Recommendation is the advice for Triage.
	Recommendation string `json:"recommendation" yaml:"recommendation"`

	// AssessedAt is when the assessment was produced.
	AssessedAt time.Time `json:"assessed_at" yaml:"assessed_at"`
}
