package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bizflow/ai-svc/internal/models"
)

// LoadSeedFile parses a per-tenant catalog file. The file holds the same JSON
// shape as the sync endpoint body: {"owner_id": ..., "products": [...]}.
func LoadSeedFile(path string) (*models.SyncRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var req models.SyncRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return &req, nil
}
