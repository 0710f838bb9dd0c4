package storage

import (
	"context"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// BagOfWordsEmbedder generates fixed-dimension embeddings from term
// frequencies, without calling an external embedding service. Suitable
// for local development, tests, and deployments where embedding quality
// is not critical. Production deployments inject their own Embedder.
type BagOfWordsEmbedder struct {
	mu        sync.RWMutex
	dimension int
	vocab     map[string]int
	nextIdx   int
	logger    *zap.Logger
}

// NewBagOfWordsEmbedder creates an embedder with the given dimension
// (128 when dim <= 0).
func NewBagOfWordsEmbedder(dim int, logger *zap.Logger) *BagOfWordsEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dim <= 0 {
		dim = 128
	}
	return &BagOfWordsEmbedder{
		dimension: dim,
		vocab:     make(map[string]int),
		logger:    logger.With(zap.String("component", "embedder")),
	}
}

// Embed maps text into the fixed-dimension vector space and L2
// normalizes the result.
func (e *BagOfWordsEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return make([]float32, e.dimension), nil
	}

	vec := make([]float32, e.dimension)
	for _, word := range words {
		idx := e.getOrAssignIndex(word)
		vec[idx%e.dimension] += 1.0
	}

	normalize32(vec)

	e.logger.Debug("embedding generated",
		zap.Int("word_count", len(words)),
		zap.Int("dimension", e.dimension))

	return vec, nil
}

func (e *BagOfWordsEmbedder) getOrAssignIndex(word string) int {
	e.mu.RLock()
	idx, ok := e.vocab[word]
	e.mu.RUnlock()
	if ok {
		return idx
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if idx, ok := e.vocab[word]; ok {
		return idx
	}
	idx = e.nextIdx
	e.vocab[word] = idx
	e.nextIdx++
	return idx
}

func normalize32(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
