package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	inputs  []string
	models  []string
	vectors map[string][]float32
	err     error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	var req titanRequest
	if err := json.Unmarshal(params.Body, &req); err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, req.InputText)
	f.models = append(f.models, aws.ToString(params.ModelId))

	body, _ := json.Marshal(titanResponse{Embedding: f.vectors[req.InputText], InputTextTokenCount: 3})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func newTestEmbedder(client InvokeAPI) *Embedder {
	logger := zap.NewNop()
	return NewEmbedder(client, "amazon.titan-embed-text-v2:0", 4096, logger, utils.NewTextProcessor(logger))
}

func TestEmbed_OneCallPerText(t *testing.T) {
	client := &fakeInvoker{vectors: map[string][]float32{
		"urgent": {1, 0},
		"hello":  {0, 1},
	}}

	vectors, err := newTestEmbedder(client).Embed(context.Background(), []string{"urgent", "hello"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, []string{"urgent", "hello"}, client.inputs)
	assert.Equal(t, []string{"amazon.titan-embed-text-v2:0", "amazon.titan-embed-text-v2:0"}, client.models)
}

func TestEmbed_EmptyEmbeddingIsError(t *testing.T) {
	client := &fakeInvoker{vectors: map[string][]float32{}}

	_, err := newTestEmbedder(client).Embed(context.Background(), []string{"unknown"})
	assert.ErrorContains(t, err, "empty embedding")
}

func TestEmbed_InvokeError(t *testing.T) {
	client := &fakeInvoker{err: errors.New("AccessDeniedException")}

	_, err := newTestEmbedder(client).Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "AccessDeniedException")
}
