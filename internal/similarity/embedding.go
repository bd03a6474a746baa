// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Embedder turns text into a dense vector. Implementations must be safe
// for concurrent use.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	ModelID() string
}

// Embedding scores two texts by the cosine similarity of their
// embeddings, clamped to [0,1].
type Embedding struct {
	embedder Embedder
}

// NewEmbedding returns an oracle backed by e.
func NewEmbedding(e Embedder) *Embedding {
	return &Embedding{embedder: e}
}

// Similarity embeds both texts and returns their clamped cosine
// similarity. Empty text, zero vectors and mismatched dimensions are
// unscorable.
func (o *Embedding) Similarity(ctx context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, ErrUnscorable
	}
	va, err := o.embedder.EmbedText(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embedding %q: %w", a, err)
	}
	vb, err := o.embedder.EmbedText(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embedding %q: %w", b, err)
	}
	score, ok := cosine(va, vb)
	if !ok {
		return 0, ErrUnscorable
	}
	return clamp01(score), nil
}

func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
