// Package embedding defines the contract for external text embedding models.
//
// The embedding model itself is a black box: the pipeline only needs
// `text -> vector` with a stable model name for cache keys.
package embedding

import (
	"context"
	"errors"
)

// ErrProvider is the sentinel for embedding backend failures. Provider
// implementations wrap it so callers can test with errors.Is.
var ErrProvider = errors.New("embedding provider error")

// Provider computes embeddings for text.
//
// All vectors returned under one ModelName must have the same length.
// Implementations must be safe for concurrent use.
type Provider interface {
	// ModelName identifies the model. It is part of the cache key for
	// reference embeddings: changing the model must change the name.
	ModelName() string

	// EmbedBatch computes one embedding per input text, in input order.
	// The call is all-or-nothing: on error no partial results are returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DeviceConfigurable is an optional interface for providers that accept a
// compute-target hint (e.g. "cuda", "cpu"). The hint is opaque to the
// matching pipeline and passed through unchanged.
type DeviceConfigurable interface {
	SetDevice(device string)
}

// Embed is a convenience helper for embedding a single text.
func Embed(ctx context.Context, p Provider, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ErrProvider
	}
	return vectors[0], nil
}
