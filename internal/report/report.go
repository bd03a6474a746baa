// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders an assessment for the terminal or as JSON/YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/triage-engine/pkg/types"
)

const diseaseWidth = 40

// FormatText writes the differential diagnosis table, the matched
// symptoms, and the triage recommendation.
func FormatText(a types.Assessment, w io.Writer) error {
	var b strings.Builder

	b.WriteString("Differential Diagnosis\n")
	fmt.Fprintf(&b, "%-4s  %-*s  %s\n", "Rank", diseaseWidth, "Disease", "Likelihood")
	b.WriteString(strings.Repeat("-", 4+2+diseaseWidth+2+10) + "\n")
	if len(a.Diagnosis) == 0 {
		b.WriteString("(no weighted diseases for the matched symptoms)\n")
	}
	for i, d := range a.Diagnosis {
		name := Truncate(d.Name, diseaseWidth)
		fmt.Fprintf(&b, "%-4d  %-*s  %.2f%%\n", i+1, diseaseWidth, name, d.Probability*100)
	}

	b.WriteString("\nMatched Symptoms\n")
	for _, m := range a.Matches {
		if strings.EqualFold(m.MatchedText, m.Entry.Symptom) {
			fmt.Fprintf(&b, "  - %s (%s)\n", m.Entry.Symptom, m.Entry.Severity)
		} else {
			fmt.Fprintf(&b, "  - %s (%s, via %q)\n", m.Entry.Symptom, m.Entry.Severity, m.MatchedText)
		}
	}

	fmt.Fprintf(&b, "\nTriage Recommendation: %s\n", a.Triage)

	_, err := io.WriteString(w, b.String())
	return err
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// FormatJSON writes a as indented JSON.
func FormatJSON(a types.Assessment, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// FormatYAML writes a as a YAML document.
func FormatYAML(a types.Assessment, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}
