// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/triage-engine/pkg/types"
)

func sampleAssessment() types.Assessment {
	fever := types.SymptomEntry{Symptom: "fever", Synonyms: []string{"high temperature"}, Severity: types.SeverityHigh}
	return types.Assessment{
		ID:    "4f1c2a9e-0000-4000-8000-000000000001",
		Query: "high temperature since yesterday",
		Matches: []types.MatchResult{
			{Entry: fever, MatchedText: "high temperature", Score: 1},
		},
		Diagnosis: types.DiagnosisDistribution{
			{Name: "Flu", Probability: 0.6},
			{Name: "Malaria", Probability: 0.4},
		},
		Triage:         types.TriageEmergent,
		Recommendation: types.TriageEmergent.Recommendation(),
		AssessedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatText(sampleAssessment(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Differential Diagnosis\n"))
	assert.Contains(t, out, "Likelihood")
	assert.Regexp(t, `1\s+Flu\s+60\.00%`, out)
	assert.Regexp(t, `2\s+Malaria\s+40\.00%`, out)
	assert.Contains(t, out, `fever (high, via "high temperature")`)
	assert.Contains(t, out, "Triage Recommendation: Emergent: Seek immediate medical attention.")
}

func TestFormatTextEmptyDiagnosis(t *testing.T) {
	a := sampleAssessment()
	a.Diagnosis = types.DiagnosisDistribution{}
	a.Matches[0].MatchedText = "fever"

	var buf bytes.Buffer
	require.NoError(t, FormatText(a, &buf))
	assert.Contains(t, buf.String(), "no weighted diseases")
	assert.Contains(t, buf.String(), "  - fever (high)\n")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleAssessment(), &buf))

	var got types.Assessment
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleAssessment(), got)
	assert.Contains(t, buf.String(), `"triage": "Emergent"`)
}

func TestFormatYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatYAML(sampleAssessment(), &buf))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Emergent", got["triage"])
	assert.Equal(t, "high temperature since yesterday", got["query"])
	assert.Len(t, got["diagnosis"], 2)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Flu", 10, "Flu"},
		{"exact", "Influenza", 9, "Influenza"},
		{"ascii cut", "Myocardial infarction", 10, "Myocard..."},
		{"multibyte cut", "Ménière’s disease", 8, "Méniè..."},
		{"tiny width", "インフルエンザ", 2, "イン"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestFormatTextLongMultibyteName(t *testing.T) {
	a := sampleAssessment()
	a.Diagnosis = types.DiagnosisDistribution{{Name: strings.Repeat("é", 60), Probability: 1}}

	var buf bytes.Buffer
	require.NoError(t, FormatText(a, &buf))
	assert.True(t, utf8.ValidString(buf.String()))
	assert.Contains(t, buf.String(), strings.Repeat("é", diseaseWidth-3)+"...")
}
