// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package triage derives an urgency level from the severities of matched
// symptoms.
package triage

import "github.com/pdiddy/triage-engine/pkg/types"

// Classifier maps the most severe matched symptom to a TriageLevel.
type Classifier struct {
	weights types.SeverityWeights
}

// New returns a Classifier. Zero weights fall back to
// types.DefaultSeverityWeights.
func New(weights types.SeverityWeights) *Classifier {
	if weights.IsZero() {
		weights = types.DefaultSeverityWeights()
	}
	return &Classifier{weights: weights}
}

// Classify takes the maximum severity weight across matches. A maximum at
// or above the high weight is Emergent, at or above the moderate weight is
// Urgent, and anything lower (including no matches) is Non-urgent.
func (c *Classifier) Classify(matches []types.MatchResult) types.TriageLevel {
	maxWeight := 0
	for _, m := range matches {
		if w := c.weights.Weight(m.Entry.Severity); w > maxWeight {
			maxWeight = w
		}
	}

	switch {
	case len(matches) > 0 && maxWeight >= c.weights.High:
		return types.TriageEmergent
	case len(matches) > 0 && maxWeight >= c.weights.Moderate:
		return types.TriageUrgent
	default:
		return types.TriageNonUrgent
	}
}

// Classify uses the default severity weights.
func Classify(matches []types.MatchResult) types.TriageLevel {
	return New(types.SeverityWeights{}).Classify(matches)
}
