package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder embeds text with one remote Gemini embedding model.
// Catalog documents use the RETRIEVAL_DOCUMENT task type and queries use
// RETRIEVAL_QUERY, matching how the vectors are consumed.
type GeminiEmbedder struct {
	client     *genai.Client
	docModel   *genai.EmbeddingModel
	queryModel *genai.EmbeddingModel
	name       string
}

// NewGeminiEmbedder creates an embedder for the given model name.
// Returns an error if apiKey is empty or the client cannot be created.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	docModel := client.EmbeddingModel(model)
	docModel.TaskType = genai.TaskTypeRetrievalDocument
	queryModel := client.EmbeddingModel(model)
	queryModel.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiEmbedder{
		client:     client,
		docModel:   docModel,
		queryModel: queryModel,
		name:       model,
	}, nil
}

// Model returns the embedding model name.
func (e *GeminiEmbedder) Model() string {
	return e.name
}

// EmbedDocument embeds catalog text for storage.
func (e *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.docModel, text)
}

// EmbedQuery embeds a search query.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, e.queryModel, text)
}

func (e *GeminiEmbedder) embed(ctx context.Context, model *genai.EmbeddingModel, text string) ([]float32, error) {
	rsp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", e.name, err)
	}
	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return rsp.Embedding.Values, nil
}

// Close closes the underlying client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
