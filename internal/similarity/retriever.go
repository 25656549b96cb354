// Package similarity retrieves labeled emails that resemble a query text.
package similarity

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
)

// Retriever implements core.SimilaritySearcher on an embedder and an index
type Retriever struct {
	embedder core.Embedder
	index    core.VectorIndex
	logger   *zap.Logger
}

// NewRetriever creates a new similarity retriever
func NewRetriever(embedder core.Embedder, index core.VectorIndex, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Search returns up to k matches ordered by ascending distance. A blank query
// has no neighbors and returns an empty list.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]core.SimilarityMatch, error) {
	if k <= 0 {
		k = core.DefaultMatchCount
	}
	if strings.TrimSpace(query) == "" {
		return []core.SimilarityMatch{}, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &core.EmbeddingError{Err: err}
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, &core.EmbeddingError{Err: errors.New("embedding provider returned no vector")}
	}

	matches, err := r.index.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, &core.RetrievalError{Err: err}
	}

	// NaN distances cannot be ordered and are dropped
	ranked := make([]core.SimilarityMatch, 0, len(matches))
	for _, m := range matches {
		if math.IsNaN(m.Distance) {
			continue
		}
		if m.Distance < 0 {
			m.Distance = 0
		}
		ranked = append(ranked, m)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	r.logger.Debug("Retrieved similar emails",
		zap.Int("requested", k),
		zap.Int("returned", len(ranked)))

	return ranked, nil
}
