// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/triage-engine/pkg/types"
)

// Export writes the stored catalog (filtered by opts) to
// dbDir/export.yaml or dbDir/export.json in catalog source format, so the
// file can be loaded again with Load. It returns the written path.
func (s *Store) Export(ctx context.Context, format Format, opts ListOptions) (string, error) {
	entries, err := s.List(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []types.SymptomEntry{}
	}
	doc := types.Catalog{Symptoms: entries}

	var (
		data []byte
		name string
	)
	switch format {
	case FormatYAML:
		name = "export.yaml"
		data, err = yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("marshaling YAML: %w", err)
		}
	case FormatJSON:
		name = "export.json"
		data, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling JSON: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
