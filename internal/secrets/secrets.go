// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials for the similarity backends from a
// directory of plain-text files. The filename is the key name and the
// trimmed file contents are the value.
//
// Recognized keys: openai-api-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// envFallback maps key names to environment variables consulted by Lookup
// when the key has no file.
var envFallback = map[string]string{
	"openai-api-key": "OPENAI_API_KEY",
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty map. Unreadable files are reported on w and skipped.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Lookup returns the named secret, falling back to its environment
// variable when the secrets map has no value.
func Lookup(secrets map[string]string, name string) string {
	if v := secrets[name]; v != "" {
		return v
	}
	if env, ok := envFallback[name]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}
