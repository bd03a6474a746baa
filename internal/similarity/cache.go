// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// CachedEmbedder wraps an Embedder with an in-memory cache and an
// optional on-disk cache. Catalog names and synonyms are embedded once per
// model instead of once per query.
type CachedEmbedder struct {
	next Embedder
	dir  string
	w    io.Writer

	warnOnce sync.Once

	mu  sync.RWMutex
	mem map[string][]float32
}

// NewCachedEmbedder wraps next. When dir is non-empty, vectors are also
// persisted under dir as <sha1>.bin files. The first failed disk write is
// reported on w; a nil w discards it.
func NewCachedEmbedder(next Embedder, dir string, w io.Writer) (*CachedEmbedder, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating embedding cache directory: %w", err)
		}
	}
	if w == nil {
		w = io.Discard
	}
	return &CachedEmbedder{next: next, dir: dir, w: w, mem: make(map[string][]float32)}, nil
}

// ModelID returns the wrapped embedder's model identifier.
func (c *CachedEmbedder) ModelID() string { return c.next.ModelID() }

// EmbedText returns the cached vector for text or computes and stores it.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	normalized := NormalizeText(text)
	key := c.cacheKey(normalized)

	if vec, ok := c.fromMemory(key); ok {
		return vec, nil
	}
	if vec, err := c.loadFromDisk(key); err == nil {
		c.storeInMemory(key, vec)
		return cloneVector(vec), nil
	}

	vec, err := c.next.EmbedText(ctx, normalized)
	if err != nil {
		return nil, err
	}
	c.storeInMemory(key, vec)
	if err := c.saveToDisk(key, vec); err != nil {
		c.warnOnce.Do(func() {
			fmt.Fprintf(c.w, "warning: embedding cache write failed, vectors stay in memory: %v\n", err)
		})
	}
	return cloneVector(vec), nil
}

// Len returns the number of vectors held in memory.
func (c *CachedEmbedder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.next.ModelID())
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) fromMemory(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.mem[key]
	if !ok {
		return nil, false
	}
	return cloneVector(vec), true
}

func (c *CachedEmbedder) storeInMemory(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = cloneVector(vec)
}

// loadFromDisk reads a little-endian length-prefixed float32 vector.
func (c *CachedEmbedder) loadFromDisk(key string) ([]float32, error) {
	if c.dir == "" {
		return nil, os.ErrNotExist
	}
	path := filepath.Join(c.dir, key+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("cache file too small: %s", path)
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, fmt.Errorf("cache length mismatch: %s", path)
	}
	vec := make([]float32, length)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return vec, nil
}

func (c *CachedEmbedder) saveToDisk(key string, vec []float32) error {
	if c.dir == "" {
		return nil
	}
	path := filepath.Join(c.dir, key+".bin")
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(v))
	}
	// Concurrent writers of the same key each use their own temp file.
	tmp, err := os.CreateTemp(c.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
