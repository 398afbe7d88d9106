package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Checkout statuses reported to clients.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusFaulted   = "FAULTED"
)

type CheckoutItem struct {
	SKU       string
	UnitPrice decimal.Decimal
	Quantity  int
	Weight    decimal.Decimal
}

// AdjustmentRef names a configured preset, or carries an inline kind and
// value when Preset is empty.
type AdjustmentRef struct {
	Preset string
	Kind   string
	Value  string
}

type CheckoutRequest struct {
	Items       []CheckoutItem
	Shipping    string
	Payment     string
	Adjustments []AdjustmentRef
}

type CheckoutResult struct {
	ID          string
	Status      string
	FailedStage string
	FinalTotal  decimal.Decimal
	Adjustments []string
}

// CheckoutRecord is the latest journal state of a checkout.
type CheckoutRecord struct {
	CheckoutID string
	Status     string
	Stage      string
	FinalTotal string
	Errors     []string
	TraceID    string
	RecordedAt time.Time
}
