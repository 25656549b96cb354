package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// InvokeAPI is the part of the Bedrock runtime client used for embeddings
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Embedder is an implementation of the Embedder interface using Amazon
// Bedrock Titan text embedding models
type Embedder struct {
	client        InvokeAPI
	modelID       string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewEmbedder creates a new Bedrock embedder
func NewEmbedder(
	client InvokeAPI,
	modelID string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Embedder {
	return &Embedder{
		client:        client,
		modelID:       modelID,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Embed returns one vector per text, in input order. Titan embeds a single
// text per call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, t := range texts {
		payload, err := json.Marshal(titanRequest{InputText: e.textProcessor.ProcessText(t, e.maxBodySize)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}

		resp, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(e.modelID),
			Body:        payload,
			Accept:      aws.String("application/json"),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
		}

		var out titanResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(out.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding from Titan model for input %d", i)
		}
		vectors = append(vectors, out.Embedding)
	}

	e.logger.Debug("Created Bedrock embeddings",
		zap.String("model", e.modelID),
		zap.Int("count", len(vectors)))

	return vectors, nil
}
