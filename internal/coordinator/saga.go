package coordinator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/metrics"
)

const tracerName = "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"

// Stage names one step of the checkout.
type Stage string

const (
	StageNone          Stage = ""
	StageCheckStock    Stage = "CHECK_STOCK"
	StageChargePayment Stage = "CHARGE_PAYMENT"
	StageCommitStock   Stage = "COMMIT_STOCK"
	StageEmitInvoice   Stage = "EMIT_INVOICE"
	StageNotify        Stage = "NOTIFY"
)

// Step is a single unit of work in the checkout.
// Execute returns (false, nil) for a business failure and a non-nil error
// when a collaborator could not be reached. There is no compensation: a
// step that has run stays done.
type Step interface {
	Stage() Stage
	Execute(ctx context.Context) (bool, error)
}

// Orchestrator runs a collection of Steps in order and stops at the first
// one that does not succeed.
type Orchestrator struct {
	id         string
	steps      []Step
	repo       journal.Repository // nil-safe: nothing is journaled if nil
	tracer     trace.Tracer
	metrics    *metrics.CheckoutMetrics
	payload    string
	finalTotal func() string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPayload sets the summary written on the STARTED entry.
func WithPayload(payload string) OrchestratorOption {
	return func(o *Orchestrator) { o.payload = payload }
}

// WithFinalTotalSource is read when writing each entry after a step.
func WithFinalTotalSource(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) { o.finalTotal = fn }
}

func WithStepTracer(t trace.Tracer) OrchestratorOption {
	return func(o *Orchestrator) { o.tracer = t }
}

func WithStepMetrics(m *metrics.CheckoutMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator builds an orchestrator for the attempt id. repo may be nil.
func NewOrchestrator(id string, steps []Step, repo journal.Repository, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		id:     id,
		steps:  steps,
		repo:   repo,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the steps sequentially.
// It returns StageNone and a nil error when every step succeeded. A business
// failure returns the stage with a nil error; a collaborator fault returns
// the stage and a *StageError. No step after the failing one runs.
func (o *Orchestrator) Start(ctx context.Context) (Stage, error) {
	ctx = WithCheckoutID(ctx, o.id)
	ctx, span := o.tracer.Start(ctx, "checkout", trace.WithAttributes(attribute.String("checkout.id", o.id)))
	defer span.End()

	o.record(ctx, journal.StatusStarted, StageNone, o.payload, nil)

	for _, step := range o.steps {
		stage := step.Stage()
		slog.DebugContext(ctx, "executing checkout stage", "checkout_id", o.id, "stage", stage)

		ok, err := o.execute(ctx, step)
		switch {
		case err != nil:
			fault := &StageError{Stage: stage, Err: err}
			slog.ErrorContext(ctx, "checkout stage faulted", "checkout_id", o.id, "stage", stage, "error", err)
			span.RecordError(fault)
			span.SetStatus(codes.Error, "collaborator fault")
			o.record(ctx, journal.StatusFaulted, stage, "", []string{err.Error()})
			o.metrics.ObserveAttempt(metrics.ResultFault, string(stage))
			return stage, fault
		case !ok:
			slog.WarnContext(ctx, "checkout stage failed", "checkout_id", o.id, "stage", stage)
			span.SetStatus(codes.Error, "business failure at "+string(stage))
			o.record(ctx, journal.StatusFailed, stage, "", []string{string(stage) + " refused"})
			o.metrics.ObserveAttempt(metrics.ResultFailed, string(stage))
			return stage, nil
		}

		o.record(ctx, journal.StatusStageDone, stage, "", nil)
	}

	slog.InfoContext(ctx, "checkout completed", "checkout_id", o.id)
	o.record(ctx, journal.StatusCompleted, StageNone, "", nil)
	o.metrics.ObserveAttempt(metrics.ResultSuccess, "")
	return StageNone, nil
}

func (o *Orchestrator) execute(ctx context.Context, step Step) (bool, error) {
	stage := string(step.Stage())
	ctx, span := o.tracer.Start(ctx, "checkout."+stage)
	defer span.End()

	started := time.Now()
	ok, err := step.Execute(ctx)
	o.metrics.ObserveStage(stage, time.Since(started))

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !ok:
		span.SetStatus(codes.Error, stage+" refused")
	default:
		span.AddEvent(stage + " done")
	}
	return ok, err
}

// record appends a journal entry. A journal write failure is logged and does
// not change the outcome of the checkout.
func (o *Orchestrator) record(ctx context.Context, status journal.Status, stage Stage, payload string, errs []string) {
	if o.repo == nil {
		return
	}
	entry := journal.NewEntry(ctx, o.id, status, string(stage))
	entry.Payload = payload
	entry.Errors = errs
	if o.finalTotal != nil {
		entry.FinalTotal = o.finalTotal()
	}
	if err := o.repo.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to write checkout journal", "checkout_id", o.id, "status", status, "error", err)
	}
}
