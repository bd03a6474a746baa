// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/triage-engine/pkg/types"
)

// Config keys. Nested keys map to TRIAGE_ENGINE_<SECTION>_<KEY> in the
// environment, e.g. TRIAGE_ENGINE_ORACLE_BACKEND.
const (
	keyThreshold   = "matcher.threshold"
	keyWorkers     = "matcher.workers"
	keyTimeout     = "matcher.timeout"
	keyWeightLow   = "triage.weights.low"
	keyWeightMod   = "triage.weights.moderate"
	keyWeightHigh  = "triage.weights.high"
	keyBackend     = "oracle.backend"
	keyModel       = "oracle.model"
	keyAPIKey      = "oracle.api_key"
	keyBaseURL     = "oracle.base_url"
	keyCacheDir    = "oracle.cache_dir"
	keyOracleTime  = "oracle.timeout"
	keyMaxRetries  = "oracle.max_retries"
	keyCatalogPath = "catalog.path"
	keyDBDir       = "catalog.db_dir"
	keyMaxResults  = "catalog.max_results"
)

func setDefaults(d types.EngineConfig) {
	viper.SetDefault(keyThreshold, d.Matcher.Threshold)
	viper.SetDefault(keyWorkers, d.Matcher.Workers)
	viper.SetDefault(keyTimeout, d.Matcher.Timeout)
	viper.SetDefault(keyWeightLow, d.Triage.Weights.Low)
	viper.SetDefault(keyWeightMod, d.Triage.Weights.Moderate)
	viper.SetDefault(keyWeightHigh, d.Triage.Weights.High)
	viper.SetDefault(keyBackend, string(d.Oracle.Backend))
	viper.SetDefault(keyModel, d.Oracle.Model)
	viper.SetDefault(keyAPIKey, "")
	viper.SetDefault(keyBaseURL, d.Oracle.BaseURL)
	viper.SetDefault(keyCacheDir, d.Oracle.CacheDir)
	viper.SetDefault(keyOracleTime, d.Oracle.Timeout)
	viper.SetDefault(keyMaxRetries, d.Oracle.MaxRetries)
	viper.SetDefault(keyCatalogPath, d.Catalog.Path)
	viper.SetDefault(keyDBDir, d.Catalog.DBDir)
	viper.SetDefault(keyMaxResults, d.Catalog.MaxResults)
}

// bindFlags binds the named flags of cmd to config keys. Binding happens
// per command at run time because several commands share a key.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig assembles the engine configuration from defaults, the config
// file, the environment and bound flags, in increasing precedence.
func loadConfig() types.EngineConfig {
	return types.EngineConfig{
		Matcher: types.MatcherConfig{
			Threshold: viper.GetFloat64(keyThreshold),
			Workers:   viper.GetInt(keyWorkers),
			Timeout:   viper.GetDuration(keyTimeout),
		},
		Triage: types.TriageConfig{Weights: types.SeverityWeights{
			Low:      viper.GetInt(keyWeightLow),
			Moderate: viper.GetInt(keyWeightMod),
			High:     viper.GetInt(keyWeightHigh),
		}},
		Oracle: types.OracleConfig{
			Backend:    types.OracleBackend(viper.GetString(keyBackend)),
			Model:      viper.GetString(keyModel),
			APIKey:     viper.GetString(keyAPIKey),
			BaseURL:    viper.GetString(keyBaseURL),
			CacheDir:   viper.GetString(keyCacheDir),
			Timeout:    viper.GetDuration(keyOracleTime),
			MaxRetries: viper.GetInt(keyMaxRetries),
		},
		Catalog: types.CatalogConfig{
			Path:       viper.GetString(keyCatalogPath),
			DBDir:      viper.GetString(keyDBDir),
			MaxResults: viper.GetInt(keyMaxResults),
		},
	}
}

// validateConfig rejects settings the engine would otherwise replace with
// defaults. A zero threshold would make match.New fall back to 0.8.
func validateConfig(cfg types.EngineConfig) error {
	if t := cfg.Matcher.Threshold; !(t > 0 && t <= 1) {
		return fmt.Errorf("%s must be in (0, 1], got %v", keyThreshold, t)
	}
	if cfg.Matcher.Timeout < 0 {
		return fmt.Errorf("%s must not be negative, got %v", keyTimeout, cfg.Matcher.Timeout)
	}
	return nil
}
