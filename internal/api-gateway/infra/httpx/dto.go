package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	Items       []CheckoutItemDTO `json:"items"`
	Shipping    string            `json:"shipping"`
	Payment     string            `json:"payment"`
	Adjustments []AdjustmentDTO   `json:"adjustments"`
}

// CheckoutItemDTO amounts accept JSON numbers or strings.
type CheckoutItemDTO struct {
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Weight    decimal.Decimal `json:"weight"`
}

// AdjustmentDTO is either a preset name ("pix-discount") or an inline
// object ({"kind": "surcharge", "value": "10"}).
type AdjustmentDTO struct {
	Preset string
	Kind   string
	Value  string
}

func (a *AdjustmentDTO) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &a.Preset)
	}
	var inline struct {
		Kind  string          `json:"kind"`
		Value decimal.Decimal `json:"value"`
	}
	if err := json.Unmarshal(b, &inline); err != nil {
		return fmt.Errorf("adjustment must be a preset name or {kind, value}: %w", err)
	}
	a.Kind = inline.Kind
	a.Value = inline.Value.String()
	return nil
}

type CheckoutResponse struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	FailedStage string   `json:"failed_stage,omitempty"`
	FinalTotal  string   `json:"final_total"`
	Adjustments []string `json:"adjustments,omitempty"`
}

type CheckoutRecordResponse struct {
	CheckoutID string   `json:"checkout_id"`
	Status     string   `json:"status"`
	Stage      string   `json:"stage,omitempty"`
	FinalTotal string   `json:"final_total,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	TraceID    string   `json:"trace_id,omitempty"`
	RecordedAt string   `json:"recorded_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
