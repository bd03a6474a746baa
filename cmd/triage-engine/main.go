// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the triage-engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/triage-engine/internal/httputil"
	"github.com/pdiddy/triage-engine/internal/secrets"
	"github.com/pdiddy/triage-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

var rootCmd = &cobra.Command{
	Use:   "triage-engine",
	Short: "Match free-text symptoms to a catalog and suggest a triage level",
	Long: `triage-engine matches a free-text description of symptoms against a
symptom catalog, ranks candidate diseases by their normalized weights, and
classifies urgency from the most severe matched symptom.

The catalog is a JSON or YAML file with a top-level "symptoms" list. It can
also be imported into a local SQLite store with "catalog import" and used
with "assess --from-db".

Results are informational and are not a medical diagnosis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		httputil.Log = os.Stderr

		s, err := secrets.Load(secrets.DefaultDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./triage-engine.yaml or ~/.config/triage-engine/triage-engine.yaml)")
}

func initConfig() {
	setDefaults(types.DefaultEngineConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("triage-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "triage-engine"))
		}
	}

	viper.SetEnvPrefix("TRIAGE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
