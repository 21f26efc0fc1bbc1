// Package cache wraps an embedding service with an expiring LRU cache keyed
// by model and text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.CorpusAware      = (*EmbeddingService)(nil)
)

// Default cache settings.
const (
	DefaultSize = 10000
	DefaultTTL  = time.Hour
)

// EmbeddingService serves repeated texts from memory.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

// Wrap returns next behind a cache. Non-positive size or ttl fall back to
// the defaults.
func Wrap(next driven.EmbeddingService, size int, ttl time.Duration) *EmbeddingService {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch forwards only uncached texts, in one call, and merges the
// results back in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	var missing []string
	var missingAt []int
	for i, t := range texts {
		if v, ok := s.cache.Get(s.key(t)); ok {
			out[i] = clone(v)
			continue
		}
		missing = append(missing, t)
		missingAt = append(missingAt, i)
	}
	if hits := len(texts) - len(missing); hits > 0 {
		logger.Debug("Embedding cache: %d hits, %d misses", hits, len(missing))
	}
	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range fresh {
		s.cache.Add(s.key(missing[j]), clone(v))
		out[missingAt[j]] = v
	}
	return out, nil
}

// Prepare forwards to corpus-aware embedders and drops cached vectors,
// which a refit invalidates.
func (s *EmbeddingService) Prepare(ctx context.Context, corpus []string) error {
	ca, ok := s.next.(driven.CorpusAware)
	if !ok {
		return nil
	}
	s.cache.Purge()
	return ca.Prepare(ctx, corpus)
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping validates the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.next.Close()
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(s.next.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	return append([]float32(nil), v...)
}
