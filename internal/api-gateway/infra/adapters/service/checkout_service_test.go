package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/domain/entity"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/ports"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/config"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

type stubRunner struct {
	priced  pricing.Pricer
	outcome coordinator.Outcome
	err     error
}

func (s *stubRunner) Run(_ context.Context, p pricing.Pricer) (coordinator.Outcome, error) {
	s.priced = p
	return s.outcome, s.err
}

func cart() []entity.CheckoutItem {
	return []entity.CheckoutItem{
		{SKU: "notebook-x", UnitPrice: decimal.RequireFromString("3500"), Quantity: 1, Weight: decimal.RequireFromString("2.5")},
		{SKU: "mousepad", UnitPrice: decimal.RequireFromString("50"), Quantity: 2, Weight: decimal.RequireFromString("0.1")},
	}
}

func TestCheckout_BuildsPricerFromConfig(t *testing.T) {
	runner := &stubRunner{outcome: coordinator.Outcome{ID: "c1", Success: true}}
	svc := NewCheckoutService(config.Default(), runner, journal.NewMemory())

	res, err := svc.Checkout(context.Background(), entity.CheckoutRequest{
		Items:    cart(),
		Shipping: config.ShippingExpress,
		Payment:  PaymentCard,
		Adjustments: []entity.AdjustmentRef{
			{Preset: "pix-discount"},
			{Preset: "gift-wrap"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, res.Status)
	assert.Equal(t, "c1", res.ID)
	assert.Equal(t, []string{"surcharge 10.00", "discount 5%"}, res.Adjustments)

	require.NotNil(t, runner.priced)
	assert.True(t, decimal.RequireFromString("3477.88").Equal(runner.priced.TotalValue()))
	assert.True(t, decimal.RequireFromString("3650.40").Equal(runner.priced.Order().BaseTotal()))
}

func TestCheckout_MapsOutcomes(t *testing.T) {
	failed := &stubRunner{outcome: coordinator.Outcome{ID: "c2", FailedStage: coordinator.StageChargePayment}}
	res, err := NewCheckoutService(config.Default(), failed, journal.NewMemory()).
		Checkout(context.Background(), entity.CheckoutRequest{Items: cart(), Shipping: "standard", Payment: "instant"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, res.Status)
	assert.Equal(t, "CHARGE_PAYMENT", res.FailedStage)

	fault := &coordinator.StageError{Stage: coordinator.StageEmitInvoice, Err: errors.New("printer on fire")}
	faulted := &stubRunner{outcome: coordinator.Outcome{ID: "c3", FailedStage: coordinator.StageEmitInvoice}, err: fault}
	res, err = NewCheckoutService(config.Default(), faulted, journal.NewMemory()).
		Checkout(context.Background(), entity.CheckoutRequest{Items: cart(), Shipping: "standard", Payment: "instant"})
	require.ErrorIs(t, err, coordinator.ErrCollaborator)
	require.NotNil(t, res)
	assert.Equal(t, entity.StatusFaulted, res.Status)
	assert.Equal(t, "EMIT_INVOICE", res.FailedStage)
}

func TestCheckout_RejectsBeforeRunning(t *testing.T) {
	tests := []struct {
		name string
		req  entity.CheckoutRequest
		want error
	}{
		{"unknown shipping", entity.CheckoutRequest{Shipping: "drone", Payment: PaymentCard}, ports.ErrInvalidRequest},
		{"unknown payment", entity.CheckoutRequest{Shipping: "standard", Payment: "barter"}, ports.ErrInvalidRequest},
		{"unknown preset", entity.CheckoutRequest{Shipping: "standard", Payment: PaymentCard,
			Adjustments: []entity.AdjustmentRef{{Preset: "nope"}}}, ports.ErrInvalidRequest},
		{"bad inline kind", entity.CheckoutRequest{Shipping: "standard", Payment: PaymentCard,
			Adjustments: []entity.AdjustmentRef{{Kind: "coupon", Value: "1"}}}, ports.ErrInvalidRequest},
		{"invalid item", entity.CheckoutRequest{Shipping: "standard", Payment: PaymentCard,
			Items: []entity.CheckoutItem{{SKU: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 0}}}, pricing.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			_, err := NewCheckoutService(config.Default(), runner, journal.NewMemory()).Checkout(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, runner.priced)
		})
	}
}

func TestCheckout_EmptyCartIsAllowed(t *testing.T) {
	runner := &stubRunner{outcome: coordinator.Outcome{ID: "c4", Success: true}}
	_, err := NewCheckoutService(config.Default(), runner, journal.NewMemory()).
		Checkout(context.Background(), entity.CheckoutRequest{Shipping: "standard", Payment: PaymentInstant})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15").Equal(runner.priced.TotalValue()))
}

func TestGetCheckoutAndJournal(t *testing.T) {
	store := journal.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &journal.Entry{CheckoutID: "c5", Status: journal.StatusStarted}))
	require.NoError(t, store.Save(ctx, &journal.Entry{CheckoutID: "c5", Status: journal.StatusFailed, Stage: "CHECK_STOCK"}))
	svc := NewCheckoutService(config.Default(), &stubRunner{}, store)

	rec, err := svc.GetCheckout(ctx, "c5")
	require.NoError(t, err)
	assert.Equal(t, "FAILED", rec.Status)
	assert.Equal(t, "CHECK_STOCK", rec.Stage)

	records, err := svc.GetJournal(ctx, "c5")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "STARTED", records[0].Status)

	_, err = svc.GetCheckout(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = svc.GetJournal(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
