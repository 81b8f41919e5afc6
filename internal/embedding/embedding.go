// Package embedding converts text to fixed-length vectors through an external
// model, with batch submission and a persistent content-hash cache in front.
package embedding

import "context"

// Embedder is the text-to-vector contract. EmbedBatch returns one vector per
// input, same order; a failed or empty item yields an empty vector, never a
// batch-wide failure. Empty or whitespace-only text maps to an empty vector
// without invoking the model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
