// Package embedding provides text embedding via remote Gemini models with failover.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text. Documents and queries are
// embedded with different task types, so the two paths are separate methods.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// ErrNoCredential is returned by Unavailable for every embedding request.
var ErrNoCredential = errors.New("embedding unavailable: missing model API credential")

// Unavailable is an Embedder used when no API credential is configured.
// Every call fails with ErrNoCredential so that retrieval degrades to
// "no matches" instead of crashing the process.
type Unavailable struct{}

// EmbedDocument always returns ErrNoCredential.
func (Unavailable) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrNoCredential
}

// EmbedQuery always returns ErrNoCredential.
func (Unavailable) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrNoCredential
}

// Close is a no-op.
func (Unavailable) Close() error { return nil }
