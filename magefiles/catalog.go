//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Catalog groups catalog store targets.
type Catalog mg.Namespace

// Import builds the CLI and imports the configured catalog source into
// the SQLite store.
func (Catalog) Import() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "catalog", "import")
}

// Export builds the CLI and exports the stored catalog as YAML.
func (Catalog) Export() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "catalog", "export", "--format", "yaml")
}
