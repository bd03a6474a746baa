// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diagnose turns matched symptoms into a ranked differential
// diagnosis.
package diagnose

import (
	"math"
	"sort"

	"github.com/pdiddy/triage-engine/pkg/types"
)

// Aggregate sums disease weights across all matches, normalizes them to
// sum to 1.0, and ranks them by weight descending. Ties keep the order in
// which diseases first appeared. When no weight was accumulated the
// result is empty. Negative and non-finite weights are ignored.
func Aggregate(matches []types.MatchResult) types.DiagnosisDistribution {
	// Weights are divided by the largest one before summing so that
	// sums of very large weights cannot overflow to Inf.
	var maxWeight float64
	for _, m := range matches {
		for _, d := range m.Entry.Diseases {
			if validWeight(d.Probability) && d.Probability > maxWeight {
				maxWeight = d.Probability
			}
		}
	}
	if maxWeight == 0 {
		return types.DiagnosisDistribution{}
	}

	index := make(map[string]int) // disease name → position in scores
	var scores types.DiagnosisDistribution

	for _, m := range matches {
		for _, d := range m.Entry.Diseases {
			if !validWeight(d.Probability) {
				continue
			}
			idx, ok := index[d.Name]
			if !ok {
				idx = len(scores)
				index[d.Name] = idx
				scores = append(scores, types.DiseaseScore{Name: d.Name})
			}
			scores[idx].Probability += d.Probability / maxWeight
		}
	}

	var total float64
	for _, s := range scores {
		total += s.Probability
	}

	for i := range scores {
		scores[i].Probability /= total
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})
	return scores
}

func validWeight(p float64) bool {
	return p >= 0 && !math.IsInf(p, 0)
}
