// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultMatchThreshold is the similarity score a query must exceed to
// match a symptom name or synonym.
const DefaultMatchThreshold = 0.8

// MatcherConfig holds settings for the symptom matcher.
type MatcherConfig struct {
	// Threshold is the exclusive similarity cutoff (default 0.8). Zero
	// means unset and selects the default; the CLI rejects values outside
	// (0, 1].
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Workers bounds concurrent oracle calls across catalog entries.
	// Values <= 1 score entries sequentially.
	Workers int `json:"workers" yaml:"workers"`

	// Timeout bounds a whole query. A timed-out query has no matches.
	// Zero disables the timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SeverityWeights maps each severity to a rank used for triage.
type SeverityWeights struct {
	Low      int `json:"low" yaml:"low"`
	Moderate int `json:"moderate" yaml:"moderate"`
	High     int `json:"high" yaml:"high"`
}

// DefaultSeverityWeights returns low 1, moderate 2, high 3.
func DefaultSeverityWeights() SeverityWeights {
	return SeverityWeights{Low: 1, Moderate: 2, High: 3}
}

// Weight returns the rank for s. Unknown severities rank as low.
func (w SeverityWeights) Weight(s Severity) int {
	switch ParseSeverity(string(s)) {
	case SeverityHigh:
		return w.High
	case SeverityModerate:
		return w.Moderate
	default:
		return w.Low
	}
}

// IsZero reports whether no weight has been set.
func (w SeverityWeights) IsZero() bool {
	return w == SeverityWeights{}
}

// TriageConfig holds settings for the triage classifier.
type TriageConfig struct {
	Weights SeverityWeights `json:"weights" yaml:"weights"`
}

// OracleBackend identifies the similarity backend.
type OracleBackend string

const (
	OracleLexical OracleBackend = "lexical"
	OracleOpenAI  OracleBackend = "openai"
	OracleOllama  OracleBackend = "ollama"
)

// OracleConfig holds settings for the similarity oracle.
type OracleConfig struct {
	// Backend selects the oracle: lexical, openai, or ollama.
	Backend OracleBackend `json:"backend" yaml:"backend"`

	// Model is the embedding model identifier (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the embedding API. When empty the
	// openai-api-key secret is used.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the embedding API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// CacheDir stores embeddings on disk between runs. Empty keeps the
	// cache in memory only.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	// Timeout is the HTTP request timeout for remote backends.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CatalogConfig holds settings for the catalog source and store.
type CatalogConfig struct {
	// Path is the catalog source file (.json, .yaml, .yml).
	Path string `json:"path" yaml:"path"`

	// DBDir is the directory holding catalog.db.
	DBDir string `json:"db_dir" yaml:"db_dir"`

	// MaxResults limits catalog search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Matcher MatcherConfig `json:"matcher" yaml:"matcher"`
	Triage  TriageConfig  `json:"triage" yaml:"triage"`
	Oracle  OracleConfig  `json:"oracle" yaml:"oracle"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
}

// DefaultEngineConfig returns the documented defaults for every stage.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Matcher: MatcherConfig{
			Threshold: DefaultMatchThreshold,
			Workers:   1,
		},
		Triage: TriageConfig{Weights: DefaultSeverityWeights()},
		Oracle: OracleConfig{
			Backend:    OracleLexical,
			Timeout:    30 * time.Second,
			MaxRetries: 5,
		},
		Catalog: CatalogConfig{
			Path:       "symptoms.json",
			DBDir:      "catalog",
			MaxResults: 20,
		},
	}
}
