// Package models defines core data structures for products, orders, and API requests.
package models

import "fmt"

// ProductRecord is one catalog entry owned by a tenant. Identity is
// (owner_id, id); re-syncing the same id overwrites the previous record.
type ProductRecord struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit,omitempty"`
}

// ProductMatch is a catalog entry returned by a similarity search,
// with its distance from the query (lower is closer).
type ProductMatch struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	Unit      string  `json:"unit"`
	Distance  float64 `json:"distance"`
}

// SyncRequest is the body of POST /api/products/sync.
type SyncRequest struct {
	OwnerID  string          `json:"owner_id"`
	Products []ProductRecord `json:"products"`
}

// Validate checks required fields. An empty product list is valid (no-op sync).
func (r *SyncRequest) Validate() error {
	if r.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	for i, p := range r.Products {
		if p.ID == "" {
			return fmt.Errorf("products[%d]: id is required", i)
		}
		if p.Name == "" {
			return fmt.Errorf("products[%d]: name is required", i)
		}
	}
	return nil
}

// SyncResponse is the body returned by POST /api/products/sync.
type SyncResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
