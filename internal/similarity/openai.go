// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/triage-engine/pkg/types"
)

const defaultOpenAIModel = string(openai.SmallEmbedding3)

// OpenAIEmbedder embeds text with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder constructs an embedder from cfg. BaseURL overrides the
// API endpoint (useful for compatible gateways); Model defaults to
// text-embedding-3-small.
func NewOpenAIEmbedder(cfg types.OracleConfig, apiKey string) *OpenAIEmbedder {
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(oc), model: model}
}

// ModelID returns the embedding model name.
func (e *OpenAIEmbedder) ModelID() string { return "openai/" + e.model }

// EmbedText requests a single embedding.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.client == nil {
		return nil, errors.New("openai client not initialized")
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("OpenAI embeddings response has no data")
	}
	return resp.Data[0].Embedding, nil
}
