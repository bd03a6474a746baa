// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/triage-engine/internal/httputil"
	"github.com/pdiddy/triage-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 0
}

// --- Lexical ---

func TestLexicalSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"symptom inside sentence", "i have a fever", "fever", 1.0},
		{"symmetric", "fever", "i have a fever", 1.0},
		{"identical", "chest pain", "chest pain", 1.0},
		{"half overlap", "pain in my back", "chest pain", 0.5},
		{"no overlap", "i have a fever", "high temperature", 0},
		{"case and punctuation", "Headache!!! and NAUSEA.", "headache", 1.0},
		{"unicode normalization", "ｆｅｖｅｒ", "fever", 1.0},
		{"apostrophes", "can't breathe", "cant breathe", 0.5},
	}
	l := NewLexical()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Similarity(context.Background(), tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLexicalSingleWordQueryMatchesEveryCompound(t *testing.T) {
	l := NewLexical()
	ctx := context.Background()
	for _, entry := range []string{"chest pain", "abdominal pain", "back pain"} {
		got, err := l.Similarity(ctx, "pain", entry)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-9, entry)
	}
	got, err := l.Similarity(ctx, "pain", "headache")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestLexicalUnscorable(t *testing.T) {
	l := NewLexical()
	for _, pair := range [][2]string{{"", "fever"}, {"fever", "   "}, {"i have a", "fever"}, {"!!!", "???"}} {
		_, err := l.Similarity(context.Background(), pair[0], pair[1])
		assert.ErrorIs(t, err, ErrUnscorable, "pair %q", pair)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "fever", NormalizeText("  ｆｅｖｅｒ \u0007"))
	assert.Equal(t, "a\tb\nc", NormalizeText("a\tb\nc"))
}

// --- Embedding ---

// mapEmbedder returns fixed vectors and counts calls.
type mapEmbedder struct {
	vecs  map[string][]float32
	calls atomic.Int32
}

func (m *mapEmbedder) ModelID() string { return "test-model" }

func (m *mapEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	v, ok := m.vecs[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func TestEmbeddingSimilarity(t *testing.T) {
	e := &mapEmbedder{vecs: map[string][]float32{
		"i have a fever":   {1, 0, 0},
		"fever":            {0.9, 0.1, 0},
		"high temperature": {0.8, 0.2, 0},
		"opposite":         {-1, 0, 0},
		"zero":             {0, 0, 0},
		"short":            {1, 0},
	}}
	o := NewEmbedding(e)
	ctx := context.Background()

	got, err := o.Similarity(ctx, "i have a fever", "fever")
	require.NoError(t, err)
	assert.Greater(t, got, 0.99)

	got, err = o.Similarity(ctx, "i have a fever", "opposite")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got, "negative cosine clamps to zero")

	_, err = o.Similarity(ctx, "i have a fever", "zero")
	assert.ErrorIs(t, err, ErrUnscorable)

	_, err = o.Similarity(ctx, "i have a fever", "short")
	assert.ErrorIs(t, err, ErrUnscorable)

	_, err = o.Similarity(ctx, "", "fever")
	assert.ErrorIs(t, err, ErrUnscorable)

	_, err = o.Similarity(ctx, "unknown", "fever")
	assert.Error(t, err)
}

// --- Cache ---

func TestCachedEmbedderMemory(t *testing.T) {
	inner := &mapEmbedder{vecs: map[string][]float32{"fever": {1, 2, 3}}}
	c, err := NewCachedEmbedder(inner, "", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := c.EmbedText(context.Background(), "  fever ")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, v)
	}
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "test-model", c.ModelID())
}

func TestCachedEmbedderReturnsCopies(t *testing.T) {
	inner := &mapEmbedder{vecs: map[string][]float32{"fever": {1, 2, 3}}}
	c, err := NewCachedEmbedder(inner, "", nil)
	require.NoError(t, err)

	v, err := c.EmbedText(context.Background(), "fever")
	require.NoError(t, err)
	v[0] = 99

	again, err := c.EmbedText(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, float32(1), again[0])
}

func TestCachedEmbedderDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "embeddings")
	inner := &mapEmbedder{vecs: map[string][]float32{"cough": {0.5, -0.25}}}

	first, err := NewCachedEmbedder(inner, dir, nil)
	require.NoError(t, err)
	_, err = first.EmbedText(context.Background(), "cough")
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "*.bin"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	// A fresh cache over the same directory must not call the embedder.
	second, err := NewCachedEmbedder(inner, dir, nil)
	require.NoError(t, err)
	v, err := second.EmbedText(context.Background(), "cough")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25}, v)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedEmbedderIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	inner := &mapEmbedder{vecs: map[string][]float32{"rash": {1}}}
	c, err := NewCachedEmbedder(inner, dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, c.cacheKey("rash")+".bin"), []byte{1, 2}, 0o644))

	v, err := c.EmbedText(context.Background(), "rash")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, v)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedEmbedderWarnsOnceWhenDiskWriteFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "embeddings")
	inner := &mapEmbedder{vecs: map[string][]float32{"cough": {1, 0}, "rash": {0, 1}}}
	var warn bytes.Buffer
	c, err := NewCachedEmbedder(inner, dir, &warn)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	for _, text := range []string{"cough", "rash"} {
		_, err := c.EmbedText(context.Background(), text)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, strings.Count(warn.String(), "warning: embedding cache write failed"))
}

func TestCachedEmbedderPropagatesErrors(t *testing.T) {
	c, err := NewCachedEmbedder(&mapEmbedder{}, "", nil)
	require.NoError(t, err)
	_, err = c.EmbedText(context.Background(), "missing")
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

// --- OpenAI ---

func TestOpenAIEmbedder(t *testing.T) {
	var gotModel, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`)
	}))
	defer ts.Close()

	e := NewOpenAIEmbedder(types.OracleConfig{BaseURL: ts.URL + "/v1"}, "sk-test")
	v, err := e.EmbedText(context.Background(), "fever")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v)
	assert.Equal(t, "text-embedding-3-small", gotModel)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "openai/text-embedding-3-small", e.ModelID())
}

func TestOpenAIEmbedderHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	e := NewOpenAIEmbedder(types.OracleConfig{BaseURL: ts.URL + "/v1", Model: "custom"}, "sk-bad")
	_, err := e.EmbedText(context.Background(), "fever")
	assert.Error(t, err)
}

// --- Ollama ---

func TestOllamaEmbedder(t *testing.T) {
	var req ollamaRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprint(w, `{"embedding":[1,0,0.5]}`)
	}))
	defer ts.Close()

	e := NewOllamaEmbedder(types.OracleConfig{BaseURL: ts.URL + "/"})
	v, err := e.EmbedText(context.Background(), "shortness of breath")
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 0, 0.5}, v)
	assert.Equal(t, "nomic-embed-text", req.Model)
	assert.Equal(t, "shortness of breath", req.Prompt)
}

func TestOllamaEmbedderRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"embedding":[0.3]}`)
	}))
	defer ts.Close()

	e := NewOllamaEmbedder(types.OracleConfig{BaseURL: ts.URL, MaxRetries: 2})
	v, err := e.EmbedText(context.Background(), "rash")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3}, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaEmbedderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, ``, "HTTP 500"},
		{"bad json", http.StatusOK, `not json`, "parsing"},
		{"empty embedding", http.StatusOK, `{"embedding":[]}`, "empty embedding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			_, err := NewOllamaEmbedder(types.OracleConfig{BaseURL: ts.URL}).EmbedText(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// --- Backend selection ---

func TestNew(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	o, err := New(types.OracleConfig{}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Lexical{}, o)

	_, err = New(types.OracleConfig{Backend: types.OracleOpenAI}, nil, nil)
	assert.Error(t, err, "openai without a key")

	o, err = New(types.OracleConfig{Backend: types.OracleOpenAI}, map[string]string{OpenAIKeySecret: "sk"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Embedding{}, o)

	o, err = New(types.OracleConfig{Backend: types.OracleOllama, CacheDir: t.TempDir()}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Embedding{}, o)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	o, err = New(types.OracleConfig{Backend: types.OracleOpenAI}, nil, nil)
	require.NoError(t, err, "key from the environment")
	assert.IsType(t, &Embedding{}, o)

	_, err = New(types.OracleConfig{Backend: "word2vec"}, nil, nil)
	assert.Error(t, err)
}

func TestEmbeddingOracleEndToEnd(t *testing.T) {
	vectors := map[string][]float32{
		"i have a fever": {1, 0},
		"fever":          {0.95, 0.05},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaRequest
		json.NewDecoder(r.Body).Decode(&body)
		v, ok := vectors[body.Prompt]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(ollamaResponse{Embedding: v})
	}))
	defer ts.Close()

	o, err := New(types.OracleConfig{Backend: types.OracleOllama, BaseURL: ts.URL}, nil, nil)
	require.NoError(t, err)

	score, err := o.Similarity(context.Background(), "i have a fever", "fever")
	require.NoError(t, err)
	assert.Greater(t, score, 0.8)

	_, err = o.Similarity(context.Background(), "i have a fever", "unknown")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnscorable))
}
