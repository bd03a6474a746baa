// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/triage-engine/internal/catalog"
	"github.com/pdiddy/triage-engine/internal/engine"
	"github.com/pdiddy/triage-engine/internal/report"
	"github.com/pdiddy/triage-engine/internal/similarity"
	"github.com/pdiddy/triage-engine/pkg/types"
)

var assessCmd = &cobra.Command{
	Use:   "assess [symptoms...]",
	Short: "Assess free-text symptoms against the catalog",
	Long: `Assess matches the given text (or standard input when no text is given)
against the symptom catalog and prints a ranked differential diagnosis with a
triage recommendation.

With --interactive, assess prompts for one description per line until end
of input, reporting each result and continuing after errors.

Examples:
  triage-engine assess "I have a fever and chest pain"
  echo "runny nose" | triage-engine assess --json
  triage-engine assess --from-db --oracle ollama --model nomic-embed-text "dizzy"`,
	RunE: runAssess,
}

var assessFlagKeys = map[string]string{
	keyCatalogPath: "catalog",
	keyDBDir:       "db-dir",
	keyThreshold:   "threshold",
	keyWorkers:     "workers",
	keyTimeout:     "timeout",
	keyBackend:     "oracle",
	keyModel:       "model",
	keyCacheDir:    "cache-dir",
}

func runAssess(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, assessFlagKeys); err != nil {
		return err
	}
	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		return err
	}
	fromDB, _ := cmd.Flags().GetBool("from-db")
	interactive, _ := cmd.Flags().GetBool("interactive")

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cat, err := loadCatalog(ctx, cfg.Catalog, fromDB)
	if err != nil {
		return err
	}
	oracle, err := similarity.New(cfg.Oracle, loadedSecrets, os.Stderr)
	if err != nil {
		return err
	}
	eng := engine.New(cat, oracle, cfg, os.Stderr)

	if interactive {
		return assessLines(ctx, eng, format, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	query := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading symptoms from stdin: %w", err)
		}
		query = string(data)
	}

	a, err := eng.Assess(ctx, query)
	if err != nil {
		return err
	}
	return format(a, cmd.OutOrStdout())
}

// assessLines runs one assessment per input line. Query errors are
// reported and the loop continues.
func assessLines(ctx context.Context, eng *engine.Engine, format formatFunc, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "Your symptoms> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a, err := eng.Assess(ctx, scanner.Text())
		switch {
		case errors.Is(err, engine.ErrEmptyQuery), errors.Is(err, engine.ErrNoMatch):
			fmt.Fprintf(out, "%v\n", err)
		case err != nil:
			return err
		default:
			if err := format(a, out); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "\nYour symptoms> ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

type formatFunc func(types.Assessment, io.Writer) error

func outputFormat(cmd *cobra.Command) (formatFunc, error) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	yamlOut, _ := cmd.Flags().GetBool("yaml")
	switch {
	case jsonOut && yamlOut:
		return nil, fmt.Errorf("--json and --yaml are mutually exclusive")
	case jsonOut:
		return report.FormatJSON, nil
	case yamlOut:
		return report.FormatYAML, nil
	default:
		return report.FormatText, nil
	}
}

// loadCatalog reads the catalog source file, or the imported store when
// fromDB is set. An empty store counts as an unavailable catalog.
func loadCatalog(ctx context.Context, cfg types.CatalogConfig, fromDB bool) (types.Catalog, error) {
	if !fromDB {
		return catalog.Load(cfg.Path, os.Stderr)
	}

	store, err := catalog.NewStore(cfg)
	if err != nil {
		return types.Catalog{}, err
	}
	defer store.Close()

	cat, err := store.Catalog(ctx)
	if err != nil {
		return types.Catalog{}, err
	}
	if cat.IsEmpty() {
		return types.Catalog{}, fmt.Errorf("%w: no entries in %s, run \"triage-engine catalog import\" first",
			catalog.ErrCatalogUnavailable, cfg.DBDir)
	}
	return cat, nil
}

func init() {
	d := types.DefaultEngineConfig()

	assessCmd.Flags().String("catalog", d.Catalog.Path, "catalog source file (.json, .yaml, .yml)")
	assessCmd.Flags().Bool("from-db", false, "use the imported catalog store instead of the source file")
	assessCmd.Flags().String("db-dir", d.Catalog.DBDir, "directory holding catalog.db")
	assessCmd.Flags().Float64("threshold", d.Matcher.Threshold, "similarity score a match must exceed")
	assessCmd.Flags().Int("workers", d.Matcher.Workers, "concurrent catalog entries to score")
	assessCmd.Flags().Duration("timeout", d.Matcher.Timeout, "time limit per query (0 = none)")
	assessCmd.Flags().String("oracle", string(d.Oracle.Backend), "similarity backend: lexical, openai, or ollama")
	assessCmd.Flags().String("model", "", "embedding model for openai or ollama")
	assessCmd.Flags().String("cache-dir", "", "directory for cached embeddings (empty = memory only)")
	assessCmd.Flags().Bool("interactive", false, "prompt for one description per line")
	assessCmd.Flags().Bool("json", false, "output the assessment as JSON")
	assessCmd.Flags().Bool("yaml", false, "output the assessment as YAML")

	rootCmd.AddCommand(assessCmd)
}
