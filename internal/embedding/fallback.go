package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FallbackEmbedder tries a primary embedder and, on any failure, immediately
// retries the same text against a secondary embedder. The primary model may be
// deprecated or rate-limited server-side while the older secondary model is
// still available, so this is a single failover, not a retry loop.
type FallbackEmbedder struct {
	primary   Embedder
	secondary Embedder
	logger    *zap.Logger
}

// NewFallbackEmbedder wires the primary/secondary pair. logger may be nil.
func NewFallbackEmbedder(primary, secondary Embedder, logger *zap.Logger) *FallbackEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackEmbedder{primary: primary, secondary: secondary, logger: logger}
}

// EmbedDocument embeds catalog text, failing over to the secondary model.
func (e *FallbackEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.primary.EmbedDocument(ctx, text)
	if err == nil {
		return vec, nil
	}
	e.logger.Warn("primary embedding model failed, trying fallback", zap.Error(err))
	vec, err2 := e.secondary.EmbedDocument(ctx, text)
	if err2 != nil {
		e.logger.Error("both embedding models failed", zap.NamedError("primary", err), zap.NamedError("fallback", err2))
		return nil, fmt.Errorf("embedding failed after fallback: %w", err2)
	}
	return vec, nil
}

// EmbedQuery embeds a search query, failing over to the secondary model.
func (e *FallbackEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.primary.EmbedQuery(ctx, text)
	if err == nil {
		return vec, nil
	}
	e.logger.Warn("primary embedding model failed, trying fallback", zap.Error(err))
	vec, err2 := e.secondary.EmbedQuery(ctx, text)
	if err2 != nil {
		e.logger.Error("both embedding models failed", zap.NamedError("primary", err), zap.NamedError("fallback", err2))
		return nil, fmt.Errorf("embedding failed after fallback: %w", err2)
	}
	return vec, nil
}

// Close closes both embedders, returning the first error.
func (e *FallbackEmbedder) Close() error {
	err := e.primary.Close()
	if err2 := e.secondary.Close(); err == nil {
		err = err2
	}
	return err
}
