package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/domain/entity"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/ports"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/config"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// Payment policy names accepted in requests.
const (
	PaymentInstant = "instant"
	PaymentCard    = "card"
)

var _ ports.CheckoutService = (*checkoutService)(nil)

// Runner is satisfied by *coordinator.Checkout.
type Runner interface {
	Run(ctx context.Context, p pricing.Pricer) (coordinator.Outcome, error)
}

type checkoutService struct {
	cfg     config.Config
	runner  Runner
	journal journal.Reader
}

// NewCheckoutService builds orders with the shipping rates and presets of
// cfg and hands them to runner.
func NewCheckoutService(cfg config.Config, runner Runner, reader journal.Reader) ports.CheckoutService {
	return &checkoutService{cfg: cfg, runner: runner, journal: reader}
}

func (s *checkoutService) Checkout(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutResult, error) {
	p, err := s.buildPricer(req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.runner.Run(ctx, p)
	res := &entity.CheckoutResult{
		ID:          outcome.ID,
		FailedStage: string(outcome.FailedStage),
		FinalTotal:  outcome.FinalTotal,
		Adjustments: pricing.Describe(p),
	}
	switch {
	case err != nil:
		res.Status = entity.StatusFaulted
		return res, err
	case !outcome.Success:
		res.Status = entity.StatusFailed
	default:
		res.Status = entity.StatusCompleted
	}
	return res, nil
}

func (s *checkoutService) GetCheckout(ctx context.Context, id string) (*entity.CheckoutRecord, error) {
	e, err := s.journal.GetLatest(ctx, id)
	if errors.Is(err, journal.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	rec := toRecord(e)
	return &rec, nil
}

func (s *checkoutService) GetJournal(ctx context.Context, id string) ([]entity.CheckoutRecord, error) {
	entries, err := s.journal.List(ctx, id)
	if errors.Is(err, journal.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	records := make([]entity.CheckoutRecord, len(entries))
	for i, e := range entries {
		records[i] = toRecord(e)
	}
	return records, nil
}

func toRecord(e *journal.Entry) entity.CheckoutRecord {
	return entity.CheckoutRecord{
		CheckoutID: e.CheckoutID,
		Status:     string(e.Status),
		Stage:      e.Stage,
		FinalTotal: e.FinalTotal,
		Errors:     e.Errors,
		TraceID:    e.TraceID,
		RecordedAt: e.RecordedAt,
	}
}

func (s *checkoutService) buildPricer(req entity.CheckoutRequest) (pricing.Pricer, error) {
	items := make([]pricing.ItemLine, 0, len(req.Items))
	for i, it := range req.Items {
		line, err := pricing.NewItemLine(it.SKU, it.UnitPrice, it.Quantity, it.Weight)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, line)
	}

	shipping, err := s.cfg.ShippingPolicy(req.Shipping)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err)
	}
	payment, err := paymentPolicy(req.Payment)
	if err != nil {
		return nil, err
	}
	order, err := pricing.NewOrder(items, shipping, payment)
	if err != nil {
		return nil, err
	}

	adjs := make([]pricing.Adjustment, 0, len(req.Adjustments))
	for i, ref := range req.Adjustments {
		adj, err := s.adjustment(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: adjustment %d: %v", ports.ErrInvalidRequest, i, err)
		}
		adjs = append(adjs, adj)
	}
	return pricing.Apply(order, adjs...)
}

func (s *checkoutService) adjustment(ref entity.AdjustmentRef) (pricing.Adjustment, error) {
	if ref.Preset == "" {
		return config.ParseAdjustment(ref.Kind, ref.Value)
	}
	preset, ok := s.cfg.Presets[ref.Preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", ref.Preset)
	}
	return preset.Adjustment()
}

func paymentPolicy(name string) (pricing.PaymentPolicy, error) {
	switch name {
	case PaymentInstant:
		return pricing.NewInstantTransfer(), nil
	case PaymentCard:
		return pricing.NewCard(), nil
	}
	return nil, fmt.Errorf("%w: unknown payment policy %q", ports.ErrInvalidRequest, name)
}
