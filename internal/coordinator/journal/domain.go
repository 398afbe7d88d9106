// Package journal defines the audit trail written by the checkout
// orchestrator.
//
// Every stage transition of a checkout attempt becomes one append-only
// entry. Entries carry the OpenTelemetry trace and span IDs that were active
// when they were written, so a row can be joined with the distributed trace
// of the same attempt. The journal is observational only: it is never read
// back to resume or compensate an attempt.
package journal

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle event an entry records.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusStageDone Status = "STAGE_DONE"
	StatusCompleted Status = "COMPLETED"
	// StatusFailed is a business failure: stock unavailable or payment
	// declined. The caller may retry with a new attempt.
	StatusFailed Status = "FAILED"
	// StatusFaulted means a collaborator could not be reached.
	StatusFaulted Status = "FAULTED"
)

// ErrNotFound is returned by readers for an unknown checkout ID.
var ErrNotFound = errors.New("journal: checkout not found")

// Entry is a single row of the journal.
type Entry struct {
	// CheckoutID identifies the attempt. One attempt writes several rows.
	CheckoutID string

	Status Status

	// Stage is the stage that just finished or failed. Empty on STARTED.
	Stage string

	// Payload is the JSON summary of the priced order. Written once, on
	// STARTED.
	Payload string

	// FinalTotal is the charged amount, fixed-point with four decimals.
	// Empty until CHARGE_PAYMENT succeeds.
	FinalTotal string

	// Errors accumulates failure details.
	Errors []string

	TraceID string
	SpanID  string

	RecordedAt time.Time
}

// Repository persists journal entries. Save appends; it never updates.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// Reader looks entries up again, e.g. for a status endpoint.
type Reader interface {
	GetLatest(ctx context.Context, checkoutID string) (*Entry, error)
	List(ctx context.Context, checkoutID string) ([]*Entry, error)
}

// Store is a Repository that can also be read.
type Store interface {
	Repository
	Reader
}
