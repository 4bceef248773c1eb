// Package catalog provides the tenant-partitioned product index backed by a
// persistent embedded vector store.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/embedding"
	"github.com/bizflow/ai-svc/internal/models"
	"github.com/bizflow/ai-svc/pkg/utils"
)

// Index stores per-tenant product embeddings and serves nearest-neighbor
// lookups. Every tenant gets its own collection and every stored record and
// query carries the tenant id, so no search path can cross tenants.
//
// Index is the absorption boundary for retrieval failures: Search never
// returns an error, it degrades to an empty result.
type Index struct {
	db       *chromem.DB
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewIndex opens (or creates) the persistent store at path. The on-disk layout
// under path is owned by the vector-store library. logger may be nil.
func NewIndex(path string, embedder embedding.Embedder, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return &Index{db: db, embedder: embedder, logger: logger}, nil
}

func (idx *Index) collection(ownerID string) (*chromem.Collection, error) {
	// Cosine space, matching the normalized embeddings we store.
	meta := map[string]string{"hnsw:space": "cosine"}
	return idx.db.GetOrCreateCollection("products-"+ownerID, meta, nil)
}

// composeProductText builds the text that gets embedded for a product record.
func composeProductText(p models.ProductRecord) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", p.Name, p.Unit, formatPrice(p.Price)))
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// Sync upserts the given products for one tenant and returns how many records
// were written. An empty batch is a no-op returning 0. A record whose
// embedding fails (after the provider's own fallback) is skipped with a log
// line; the rest of the batch still goes through. Each record's upsert is
// atomic; there is no rollback of earlier records when a later one fails.
func (idx *Index) Sync(ctx context.Context, ownerID string, products []models.ProductRecord) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	col, err := idx.collection(ownerID)
	if err != nil {
		return 0, fmt.Errorf("open collection for %s: %w", ownerID, err)
	}

	idx.logger.Debug("syncing products",
		zap.String("owner_id", ownerID),
		zap.Int("batch_size", len(products)),
	)

	count := 0
	for _, p := range products {
		content := composeProductText(p)
		vec, err := idx.embedder.EmbedDocument(ctx, content)
		if err != nil {
			idx.logger.Warn("skipping product, embedding failed",
				zap.String("owner_id", ownerID),
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		utils.NormalizeL2(vec)

		doc := chromem.Document{
			ID:        ownerID + "_" + p.ID,
			Embedding: vec,
			Content:   content,
			Metadata: map[string]string{
				"owner_id":      ownerID,
				"product_id":    p.ID,
				"original_name": p.Name,
				"unit":          p.Unit,
				"price":         formatPrice(p.Price),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			idx.logger.Warn("skipping product, store write failed",
				zap.String("owner_id", ownerID),
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		count++
	}
	return count, nil
}

// Search returns up to limit products of one tenant, nearest first (ascending
// distance). It never fails: an unknown tenant, an embedding failure, or a
// store error all yield an empty result, with the cause logged.
func (idx *Index) Search(ctx context.Context, ownerID, query string, limit int) []models.ProductMatch {
	matches := []models.ProductMatch{}
	if limit <= 0 || query == "" {
		return matches
	}
	col, err := idx.collection(ownerID)
	if err != nil {
		idx.logger.Error("search: open collection failed", zap.String("owner_id", ownerID), zap.Error(err))
		return matches
	}
	n := limit
	if c := col.Count(); n > c {
		n = c
	}
	if n == 0 {
		return matches
	}

	vec, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		idx.logger.Warn("search: query embedding failed",
			zap.String("owner_id", ownerID),
			zap.String("query", utils.Truncate(query, 120)),
			zap.Error(err),
		)
		return matches
	}
	utils.NormalizeL2(vec)

	results, err := col.QueryEmbedding(ctx, vec, n, map[string]string{"owner_id": ownerID}, nil)
	if err != nil {
		idx.logger.Error("search: query failed", zap.String("owner_id", ownerID), zap.Error(err))
		return matches
	}

	for _, res := range results {
		matches = append(matches, models.ProductMatch{
			ProductID: res.Metadata["product_id"],
			Name:      res.Metadata["original_name"],
			Price:     res.Metadata["price"],
			Unit:      res.Metadata["unit"],
			Distance:  1 - float64(res.Similarity),
		})
	}
	idx.logger.Debug("search results",
		zap.String("owner_id", ownerID),
		zap.String("query", utils.Truncate(query, 120)),
		zap.Int("matches", len(matches)),
	)
	return matches
}

// Count returns how many products are indexed for a tenant.
func (idx *Index) Count(ownerID string) int {
	col, err := idx.collection(ownerID)
	if err != nil {
		return 0
	}
	return col.Count()
}
