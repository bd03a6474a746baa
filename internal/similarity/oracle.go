// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"fmt"
	"io"

	"github.com/pdiddy/triage-engine/internal/match"
	"github.com/pdiddy/triage-engine/internal/secrets"
	"github.com/pdiddy/triage-engine/pkg/types"
)

// OpenAIKeySecret is the .secrets/ file name holding the OpenAI API key.
const OpenAIKeySecret = "openai-api-key"

// New builds the oracle selected by cfg.Backend. Embedding backends are
// wrapped in a CachedEmbedder so each catalog phrase is embedded once;
// cache warnings go to w.
func New(cfg types.OracleConfig, creds map[string]string, w io.Writer) (match.Oracle, error) {
	switch cfg.Backend {
	case types.OracleLexical, "":
		return NewLexical(), nil

	case types.OracleOpenAI:
		key := cfg.APIKey
		if key == "" {
			key = secrets.Lookup(creds, OpenAIKeySecret)
		}
		if key == "" {
			return nil, fmt.Errorf("openai oracle needs an API key: set oracle.api_key, .secrets/%s, or OPENAI_API_KEY", OpenAIKeySecret)
		}
		return cachedOracle(NewOpenAIEmbedder(cfg, key), cfg.CacheDir, w)

	case types.OracleOllama:
		return cachedOracle(NewOllamaEmbedder(cfg), cfg.CacheDir, w)

	default:
		return nil, fmt.Errorf("unsupported oracle backend %q: use lexical, openai, or ollama", cfg.Backend)
	}
}

func cachedOracle(e Embedder, cacheDir string, w io.Writer) (match.Oracle, error) {
	cached, err := NewCachedEmbedder(e, cacheDir, w)
	if err != nil {
		return nil, err
	}
	return NewEmbedding(cached), nil
}
