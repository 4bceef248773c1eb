package models

import "fmt"

// OrderItem is one line of a draft order extracted from a message.
type OrderItem struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	Unit        *string `json:"unit"`
}

// DraftOrder is the structured, human-reviewable result of parsing a
// natural-language sales message. It is returned to the caller and never
// stored by this service.
type DraftOrder struct {
	CustomerName    *string     `json:"customer_name"`
	Items           []OrderItem `json:"items"`
	IsDebt          bool        `json:"is_debt"`
	OriginalMessage string      `json:"original_message"`
}

// Validate checks the parsed order against the extraction contract: every
// item must name a product and carry a positive quantity. Model output that
// fails this is treated the same as unparseable output.
func (o *DraftOrder) Validate() error {
	for i, item := range o.Items {
		if item.ProductName == "" {
			return fmt.Errorf("items[%d]: product_name is required", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("items[%d]: quantity must be positive", i)
		}
	}
	return nil
}

// EmptyDraftOrder returns a well-formed order with no items for the given
// message. Used for the degraded paths where parsing produced nothing usable.
func EmptyDraftOrder(message string) DraftOrder {
	return DraftOrder{Items: []OrderItem{}, OriginalMessage: message}
}

// ParseOrderRequest is the body of POST /api/parse-order.
type ParseOrderRequest struct {
	OwnerID string `json:"owner_id"`
	Message string `json:"message"`
}

// Validate checks required fields.
func (r *ParseOrderRequest) Validate() error {
	if r.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if r.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

// TranscribeResponse is the body returned by POST /api/orders/ai/transcribe.
type TranscribeResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}
