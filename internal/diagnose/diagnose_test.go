// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package diagnose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/triage-engine/pkg/types"
)

func matched(diseases ...types.DiseaseWeight) types.MatchResult {
	return types.MatchResult{Entry: types.SymptomEntry{Symptom: "s", Diseases: diseases}}
}

func dw(name string, p float64) types.DiseaseWeight {
	return types.DiseaseWeight{Name: name, Probability: p}
}

func sum(d types.DiagnosisDistribution) float64 {
	var total float64
	for _, s := range d {
		total += s.Probability
	}
	return total
}

func TestAggregateSingleEntry(t *testing.T) {
	got := Aggregate([]types.MatchResult{matched(dw("Flu", 0.6), dw("Malaria", 0.4))})

	require.Len(t, got, 2)
	assert.Equal(t, "Flu", got[0].Name)
	assert.InDelta(t, 0.6, got[0].Probability, 1e-9)
	assert.Equal(t, "Malaria", got[1].Name)
	assert.InDelta(t, 0.4, got[1].Probability, 1e-9)
}

func TestAggregateSharedDisease(t *testing.T) {
	got := Aggregate([]types.MatchResult{matched(dw("Flu", 0.3)), matched(dw("Flu", 0.5))})

	require.Len(t, got, 1)
	assert.Equal(t, "Flu", got[0].Name)
	assert.InDelta(t, 1.0, got[0].Probability, 1e-9)
}

func TestAggregateSumsToOne(t *testing.T) {
	tests := []struct {
		name    string
		matches []types.MatchResult
	}{
		{"single", []types.MatchResult{matched(dw("A", 3))}},
		{"overlapping", []types.MatchResult{
			matched(dw("A", 0.2), dw("B", 0.7)),
			matched(dw("B", 0.1), dw("C", 5)),
			matched(dw("A", 0.33)),
		}},
		{"tiny weights", []types.MatchResult{matched(dw("A", 1e-12), dw("B", 3e-12))}},
		{"many", func() []types.MatchResult {
			var ms []types.MatchResult
			for i := 0; i < 40; i++ {
				ms = append(ms, matched(dw(string(rune('A'+i%7)), float64(i)/7)))
			}
			return ms
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.matches)
			require.NotEmpty(t, got)
			assert.InDelta(t, 1.0, sum(got), 1e-9)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Probability, got[i].Probability)
			}
		})
	}
}

func TestAggregateAccumulatesAcrossEntries(t *testing.T) {
	got := Aggregate([]types.MatchResult{
		matched(dw("Flu", 0.5), dw("Cold", 0.5)),
		matched(dw("Flu", 1.0)),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Flu", got[0].Name)
	assert.InDelta(t, 0.75, got[0].Probability, 1e-9)
	assert.InDelta(t, 0.25, got[1].Probability, 1e-9)
}

func TestAggregateZeroWeight(t *testing.T) {
	tests := []struct {
		name    string
		matches []types.MatchResult
	}{
		{"no matches", nil},
		{"empty disease lists", []types.MatchResult{matched(), matched()}},
		{"all zero", []types.MatchResult{matched(dw("A", 0), dw("B", 0))}},
		{"only negative", []types.MatchResult{matched(dw("A", -1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.matches)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestAggregateIgnoresInvalidWeights(t *testing.T) {
	got := Aggregate([]types.MatchResult{matched(
		dw("A", 1), dw("B", -4), dw("C", math.NaN()), dw("D", math.Inf(1)), dw("E", math.Inf(-1)),
	)})

	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)
	assert.InDelta(t, 1.0, got[0].Probability, 1e-9)

	assert.Empty(t, Aggregate([]types.MatchResult{matched(dw("Only", math.Inf(1)))}))
}

func TestAggregateHugeWeightsDoNotOverflow(t *testing.T) {
	got := Aggregate([]types.MatchResult{
		matched(dw("A", 1e308), dw("B", math.MaxFloat64)),
		matched(dw("B", 1e308)),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, "A", got[1].Name)
	for _, d := range got {
		assert.False(t, math.IsNaN(d.Probability) || math.IsInf(d.Probability, 0), "%s = %v", d.Name, d.Probability)
	}
	assert.InDelta(t, 1.0, sum(got), 1e-9)

	same := Aggregate([]types.MatchResult{matched(dw("A", 1e308)), matched(dw("B", 1e308))})
	require.Len(t, same, 2)
	assert.InDelta(t, 0.5, same[0].Probability, 1e-9)
	assert.InDelta(t, 0.5, same[1].Probability, 1e-9)
}

func TestAggregateTiesKeepFirstAppearance(t *testing.T) {
	input := []types.MatchResult{
		matched(dw("Zeta", 1), dw("Alpha", 1)),
		matched(dw("Mid", 1), dw("Top", 2)),
	}
	for i := 0; i < 20; i++ {
		got := Aggregate(input)
		require.Len(t, got, 4)
		names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
		assert.Equal(t, []string{"Top", "Zeta", "Alpha", "Mid"}, names)
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	input := []types.MatchResult{matched(dw("Flu", 0.3)), matched(dw("Flu", 0.5))}
	Aggregate(input)
	assert.Equal(t, 0.3, input[0].Entry.Diseases[0].Probability)
	assert.Equal(t, 0.5, input[1].Entry.Diseases[0].Probability)
}
