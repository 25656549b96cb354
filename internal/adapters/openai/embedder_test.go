package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbeddingAPI struct {
	resp    openai.EmbeddingResponse
	err     error
	request openai.EmbeddingRequest
}

func (f *fakeEmbeddingAPI) CreateEmbeddings(_ context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	f.request = conv.Convert()
	return f.resp, f.err
}

func newTestEmbedder(api EmbeddingAPI, maxBodySize int) *Embedder {
	logger := zap.NewNop()
	return NewEmbedder(api, "text-embedding-3-small", maxBodySize, logger, utils.NewTextProcessor(logger))
}

func TestEmbed_PlacesVectorsByIndex(t *testing.T) {
	api := &fakeEmbeddingAPI{resp: openai.EmbeddingResponse{Data: []openai.Embedding{
		{Index: 1, Embedding: []float32{0, 1}},
		{Index: 0, Embedding: []float32{1, 0}},
	}}}

	vectors, err := newTestEmbedder(api, 4096).Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, openai.EmbeddingModel("text-embedding-3-small"), api.request.Model)
	assert.Equal(t, []string{"first", "second"}, api.request.Input)
}

func TestEmbed_TruncatesInput(t *testing.T) {
	api := &fakeEmbeddingAPI{resp: openai.EmbeddingResponse{Data: []openai.Embedding{{Index: 0, Embedding: []float32{1}}}}}

	_, err := newTestEmbedder(api, 5).Embed(context.Background(), []string{"a long message body"})
	require.NoError(t, err)

	input := api.request.Input.([]string)
	assert.Contains(t, input[0], "a lon")
	assert.Contains(t, input[0], "truncated")
}

func TestEmbed_Failures(t *testing.T) {
	_, err := newTestEmbedder(&fakeEmbeddingAPI{err: errors.New("rate limited")}, 0).
		Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "rate limited")

	_, err = newTestEmbedder(&fakeEmbeddingAPI{}, 0).Embed(context.Background(), []string{"x"})
	assert.Error(t, err)

	api := &fakeEmbeddingAPI{resp: openai.EmbeddingResponse{Data: []openai.Embedding{{Index: 0}}}}
	_, err = newTestEmbedder(api, 0).Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEmbed_NoTexts(t *testing.T) {
	api := &fakeEmbeddingAPI{}
	vectors, err := newTestEmbedder(api, 0).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestFactory_AgainstCompatibleServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float32{0.5, 0.25}},
			},
		})
	}))
	defer server.Close()

	v := config.NewEmptyViper()
	v.Set("openai.api_key", "sk-test")
	v.Set("openai.base_url", server.URL+"/v1")
	logger := zap.NewNop()

	embedder, err := NewFactory(config.NewFromViper(v), logger, utils.NewTextProcessor(logger)).CreateEmbedder()
	require.NoError(t, err)

	vectors, err := embedder.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.25}}, vectors)
}

func TestFactory_RequiresKey(t *testing.T) {
	logger := zap.NewNop()
	_, err := NewFactory(config.NewFromViper(config.NewEmptyViper()), logger, utils.NewTextProcessor(logger)).CreateEmbedder()

	var cfgErr *core.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "openai.api_key", cfgErr.Key)
}
