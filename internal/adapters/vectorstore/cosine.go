// Package vectorstore keeps labeled email embeddings for nearest-neighbor
// queries without a managed index.
package vectorstore

import (
	"errors"
	"math"
	"sort"

	"github.com/mikey/email-fraud-detector/internal/core"
)

// ErrDimensionMismatch is returned when vectors of different length are compared
var ErrDimensionMismatch = errors.New("vector dimensions differ")

// Datapoint is a stored sample with its embedding
type Datapoint struct {
	ID       string
	Vector   []float32
	Metadata core.MatchMetadata
}

// CosineDistance returns 1 - cosine similarity, in [0, 2]. A zero vector is at
// distance 1 from everything. Non-finite components put a point at distance 2.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	if math.IsNaN(d) {
		return 2, nil
	}
	return math.Max(0, math.Min(2, d)), nil
}

// rank returns the k points closest to query. Points with a different
// dimension are skipped. Ties keep the order of points.
func rank(points []Datapoint, query []float32, k int) []core.SimilarityMatch {
	matches := make([]core.SimilarityMatch, 0, len(points))
	for _, p := range points {
		d, err := CosineDistance(query, p.Vector)
		if err != nil {
			continue
		}
		matches = append(matches, core.SimilarityMatch{ID: p.ID, Distance: d, Metadata: p.Metadata})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
