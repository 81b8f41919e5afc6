package embedding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the vector dimension for text-embedding-3-small.
	DefaultDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits.
	DefaultBatchSize = 32
)

// OpenAI implements Embedder on the OpenAI embeddings API. Requests are
// batched, rate-limit errors retry with exponential backoff, and a batch that
// still fails is retried item by item so one bad input yields one empty
// vector instead of failing its whole batch.
type OpenAI struct {
	client    *Client
	model     string
	dimension int
	batchSize int
	logger    *slog.Logger
}

// NewOpenAI creates an OpenAI-backed embedder. Zero values select the
// defaults above.
func NewOpenAI(client *Client, model string, batchSize int, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		client:    client,
		model:     model,
		dimension: DefaultDimension,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (e *OpenAI) Dimension() int { return e.dimension }

func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	vectors, err := e.embedBatchWithRetry(ctx, []string{strings.TrimSpace(text)})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input in input order. Blank inputs are
// never sent to the model.
func (e *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var pending []string
	var pendingIdx []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pending = append(pending, strings.TrimSpace(text))
		pendingIdx = append(pendingIdx, i)
	}

	for start := 0; start < len(pending); start += e.batchSize {
		end := min(start+e.batchSize, len(pending))
		batch := pending[start:end]

		embedded, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			// Isolate the failure: retry items one at a time so a single
			// bad input costs one empty vector, not the batch.
			embedded = e.embedItemwise(ctx, batch)
		}
		for j, vec := range embedded {
			vectors[pendingIdx[start+j]] = vec
		}
	}

	return vectors, nil
}

func (e *OpenAI) embedItemwise(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedBatchWithRetry(ctx, []string{text})
		if err != nil {
			e.logger.Warn("embedding failed, item skipped", "index", i, "error", err)
			continue
		}
		vectors[i] = vec[0]
	}
	return vectors
}

// embedBatchWithRetry generates embeddings for a single batch with retry
// logic. Rate limit errors (HTTP 429) retry with exponential backoff; other
// errors are permanent and fail immediately.
func (e *OpenAI) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // retried with backoff
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32. The API returns float64, but
// storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
