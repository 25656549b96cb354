package similarity

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

type stubIndex struct {
	matches []core.SimilarityMatch
	err     error
	gotK    int
}

func (s *stubIndex) Query(_ context.Context, _ []float32, k int) ([]core.SimilarityMatch, error) {
	s.gotK = k
	return s.matches, s.err
}

func distances(matches []core.SimilarityMatch) []float64 {
	out := make([]float64, len(matches))
	for i, m := range matches {
		out[i] = m.Distance
	}
	return out
}

func TestSearch_SortsAndLimits(t *testing.T) {
	index := &stubIndex{matches: []core.SimilarityMatch{
		{ID: "c", Distance: 0.9},
		{ID: "a", Distance: 0.1},
		{ID: "b1", Distance: 0.5},
		{ID: "b2", Distance: 0.5},
	}}
	r := NewRetriever(&stubEmbedder{vectors: [][]float32{{1, 0}}}, index, nil)

	got, err := r.Search(context.Background(), "win a prize", 3)
	require.NoError(t, err)

	assert.Equal(t, 3, index.gotK)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b1", "b2"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSearch_DropsNaNDistances(t *testing.T) {
	index := &stubIndex{matches: []core.SimilarityMatch{
		{ID: "c", Distance: 0.9},
		{ID: "broken", Distance: math.NaN()},
		{ID: "a", Distance: 0.1},
	}}
	r := NewRetriever(&stubEmbedder{vectors: [][]float32{{1, 0}}}, index, nil)

	got, err := r.Search(context.Background(), "win a prize", 5)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 0.9}, distances(got))
	assert.Equal(t, "a", got[0].ID)
}

func TestSearch_DefaultK(t *testing.T) {
	index := &stubIndex{}
	r := NewRetriever(&stubEmbedder{vectors: [][]float32{{1}}}, index, nil)

	_, err := r.Search(context.Background(), "hello", 0)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultMatchCount, index.gotK)
}

func TestSearch_BlankQuery(t *testing.T) {
	embedder := &stubEmbedder{}
	r := NewRetriever(embedder, &stubIndex{}, nil)

	got, err := r.Search(context.Background(), "   \n", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, embedder.calls)
}

func TestSearch_EmbeddingError(t *testing.T) {
	r := NewRetriever(&stubEmbedder{err: errors.New("quota")}, &stubIndex{}, nil)

	_, err := r.Search(context.Background(), "hello", 5)
	var embedErr *core.EmbeddingError
	require.True(t, errors.As(err, &embedErr))

	r = NewRetriever(&stubEmbedder{vectors: [][]float32{}}, &stubIndex{}, nil)
	_, err = r.Search(context.Background(), "hello", 5)
	assert.True(t, errors.As(err, &embedErr))
}

func TestSearch_RetrievalError(t *testing.T) {
	r := NewRetriever(&stubEmbedder{vectors: [][]float32{{1}}}, &stubIndex{err: errors.New("unreachable")}, nil)

	_, err := r.Search(context.Background(), "hello", 5)
	var retrievalErr *core.RetrievalError
	require.True(t, errors.As(err, &retrievalErr))
	assert.Contains(t, err.Error(), "unreachable")
}

func TestSearch_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("matches are sorted and never more than k", prop.ForAll(
		func(ds []float64, k int) bool {
			matches := make([]core.SimilarityMatch, len(ds))
			for i, d := range ds {
				matches[i] = core.SimilarityMatch{ID: string(rune('a' + i%26)), Distance: d}
			}
			r := NewRetriever(&stubEmbedder{vectors: [][]float32{{1}}}, &stubIndex{matches: matches}, nil)

			got, err := r.Search(context.Background(), "query", k)
			if err != nil {
				return false
			}
			return len(got) <= k && sort.Float64sAreSorted(distances(got))
		},
		gen.SliceOf(gen.Float64Range(0, 2)),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
