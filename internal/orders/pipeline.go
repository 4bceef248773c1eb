// Package orders turns free-form Vietnamese sales messages into
// structured draft orders, using catalog similarity search to ground
// the model's product naming.
package orders

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/catalog"
	"github.com/bizflow/ai-svc/internal/llm"
	"github.com/bizflow/ai-svc/internal/models"
	"github.com/bizflow/ai-svc/pkg/utils"
)

// generator is the slice of llm.Client the pipeline needs.
type generator interface {
	Generate(ctx context.Context, prompt string, att *llm.Attachment) (string, error)
}

// searcher is the slice of catalog.Index the pipeline needs.
type searcher interface {
	Search(ctx context.Context, ownerID, query string, limit int) []models.ProductMatch
}

// Pipeline orchestrates retrieval, prompt assembly, generation, and
// response parsing for order extraction and audio transcription.
type Pipeline struct {
	index       searcher
	gen         generator
	logger      *zap.Logger
	searchLimit int
	maxContext  int
}

// NewPipeline wires a pipeline over the catalog index and the model
// client. searchLimit bounds how many products are retrieved per
// message, maxContext how many of them reach the prompt.
func NewPipeline(index *catalog.Index, gen *llm.Client, searchLimit, maxContext int, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Pipeline{
		index:       index,
		gen:         gen,
		logger:      logger,
		searchLimit: searchLimit,
		maxContext:  maxContext,
	}
}

// Extract parses a customer message into a draft order. It never
// returns an error: any failure degrades to an empty draft carrying
// the original message, with the overload marker appended when the
// model quota was exhausted.
func (p *Pipeline) Extract(ctx context.Context, ownerID, message string) models.DraftOrder {
	reqID := uuid.NewString()
	log := p.logger.With(
		zap.String("request_id", reqID),
		zap.String("owner_id", ownerID),
	)
	log.Info("parsing order", zap.String("message", utils.Truncate(message, 120)))

	matches := p.index.Search(ctx, ownerID, message, p.searchLimit)
	log.Debug("catalog matches", zap.Int("count", len(matches)))

	prompt := buildPrompt(message, buildContext(matches, p.maxContext))

	raw, err := p.gen.Generate(ctx, prompt, nil)
	if err != nil {
		if llm.IsRateLimit(err) {
			log.Warn("model quota exhausted after retries", zap.Error(err))
			return models.EmptyDraftOrder(message + overloadMarker)
		}
		log.Error("order extraction failed", zap.Error(err))
		return models.EmptyDraftOrder(message)
	}

	order, err := decodeDraftOrder(raw)
	if err != nil {
		log.Error("model response is not a draft order",
			zap.Error(err),
			zap.String("response", utils.Truncate(raw, 200)))
		return models.EmptyDraftOrder(message)
	}

	// The message the customer actually sent is authoritative,
	// whatever the model echoed back.
	order.OriginalMessage = message
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	log.Info("order parsed", zap.Int("items", len(order.Items)), zap.Bool("is_debt", order.IsDebt))
	return order
}

// Transcribe converts recorded speech to Vietnamese text. Unlike
// Extract, callers receive transport and quota failures directly.
func (p *Pipeline) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = defaultAudioMIME
	}
	reqID := uuid.NewString()
	p.logger.Info("transcribing audio",
		zap.String("request_id", reqID),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(audio)))

	text, err := p.gen.Generate(ctx, transcribeTask, &llm.Attachment{
		MIMEType: mimeType,
		Data:     audio,
	})
	if err != nil {
		p.logger.Error("transcription failed", zap.String("request_id", reqID), zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func decodeDraftOrder(raw string) (models.DraftOrder, error) {
	var order models.DraftOrder
	if err := json.Unmarshal([]byte(utils.ExtractJSON(raw)), &order); err != nil {
		return order, err
	}
	if err := order.Validate(); err != nil {
		return order, err
	}
	return order, nil
}
