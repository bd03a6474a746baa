// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/triage-engine/internal/httputil"
	"github.com/pdiddy/triage-engine/pkg/types"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
)

// OllamaEmbedder embeds text with a local Ollama server's
// /api/embeddings endpoint. HTTP 429 responses are retried with backoff.
type OllamaEmbedder struct {
	Client     *http.Client
	BaseURL    string
	Model      string
	MaxRetries int
}

// NewOllamaEmbedder constructs an embedder from cfg.
func NewOllamaEmbedder(cfg types.OracleConfig) *OllamaEmbedder {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaEmbedder{
		Client:     &http.Client{Timeout: cfg.Timeout},
		BaseURL:    strings.TrimRight(base, "/"),
		Model:      model,
		MaxRetries: cfg.MaxRetries,
	}
}

// ModelID returns the embedding model name.
func (e *OllamaEmbedder) ModelID() string { return "ollama/" + e.Model }

// EmbedText requests a single embedding.
func (e *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: e.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, e.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Ollama embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama embeddings returned HTTP %d", resp.StatusCode)
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("parsing Ollama response: %w", err)
	}
	if len(or.Embedding) == 0 {
		return nil, fmt.Errorf("Ollama returned an empty embedding for model %s", e.Model)
	}
	return or.Embedding, nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}
