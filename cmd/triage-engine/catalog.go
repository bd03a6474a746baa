// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/triage-engine/internal/catalog"
	"github.com/pdiddy/triage-engine/internal/report"
	"github.com/pdiddy/triage-engine/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the imported symptom catalog (import, list, search, export)",
	Long: `Catalog manages a local SQLite copy of a symptom catalog. Import a JSON or
YAML source once, then browse it, search names and synonyms, or export it
back to a source file.`,
}

var catalogFlagKeys = map[string]string{
	keyDBDir:      "db-dir",
	keyMaxResults: "max-results",
}

// --- import subcommand ---

var catalogImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a catalog source file into the store",
	Long: `Import loads a JSON or YAML catalog source and replaces the stored
catalog with it. A file that has not changed since its last import is
skipped. Without an argument the configured catalog path is imported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogImport,
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	path := cfg.Path
	if len(args) == 1 {
		path = args[0]
	}
	_, err = store.ImportFile(cmd.Context(), path, cmd.OutOrStdout())
	return err
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored symptoms, optionally filtered by severity or disease",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	entries, err := store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return formatEntries(cmd.OutOrStdout(), entries)
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Full-text search over symptom names and synonyms",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	return formatEntries(cmd.OutOrStdout(), entries)
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored catalog to YAML or JSON",
	Long: `Export writes the stored catalog (or a filtered subset) to
<db-dir>/export.yaml or export.json in catalog source format.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = string(catalog.FormatYAML)
	}
	path, err := store.Export(cmd.Context(), catalog.Format(format), opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*catalog.Store, types.CatalogConfig, error) {
	if err := bindFlags(cmd, catalogFlagKeys); err != nil {
		return nil, types.CatalogConfig{}, err
	}
	cfg := loadConfig().Catalog
	store, err := catalog.NewStore(cfg)
	return store, cfg, err
}

func listOptsFromFlags(cmd *cobra.Command) (catalog.ListOptions, error) {
	severity, _ := cmd.Flags().GetString("severity")
	disease, _ := cmd.Flags().GetString("disease")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := catalog.ListOptions{Disease: disease, Limit: limit}
	if severity != "" {
		s := types.ParseSeverity(severity)
		if !strings.EqualFold(strings.TrimSpace(severity), string(s)) {
			return opts, fmt.Errorf("unknown severity %q: use low, moderate, or high", severity)
		}
		opts.Severity = s
	}
	return opts, nil
}

func formatEntries(w io.Writer, entries []types.SymptomEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No symptoms found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-24s  %-8s  %-30s  %s\n", "#", "Symptom", "Severity", "Synonyms", "Diseases")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, e := range entries {
		synonyms := report.Truncate(strings.Join(e.Synonyms, ", "), 30)
		diseases := make([]string, len(e.Diseases))
		for j, d := range e.Diseases {
			diseases[j] = fmt.Sprintf("%s (%.2f)", d.Name, d.Probability)
		}
		fmt.Fprintf(w, "%-4d  %-24s  %-8s  %-30s  %s\n",
			i+1, e.Symptom, e.Severity, synonyms, strings.Join(diseases, ", "))
	}
	fmt.Fprintf(w, "\n%d symptoms\n", len(entries))
	return nil
}

func init() {
	d := types.DefaultEngineConfig()

	catalogCmd.PersistentFlags().String("db-dir", d.Catalog.DBDir, "directory holding catalog.db")
	catalogCmd.PersistentFlags().Int("max-results", d.Catalog.MaxResults, "default search result limit")

	for _, c := range []*cobra.Command{catalogListCmd, catalogExportCmd} {
		c.Flags().String("severity", "", "filter by severity: low, moderate, high")
		c.Flags().String("disease", "", "filter by disease name (case-insensitive)")
		c.Flags().Int("limit", 0, "maximum entries (0 = all)")
	}
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use --max-results)")
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
