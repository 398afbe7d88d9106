package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/infra/adapters/service"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/config"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"
	inventoryservice "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/inventory-service"
	invoiceservice "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/invoice-service"
	notificationservice "github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/notification-service"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/cache"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/metrics"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

const cartJSON = `"items": [
	{"sku": "notebook-x", "unit_price": "3500.00", "quantity": 1, "weight": "2.5"},
	{"sku": "mousepad", "unit_price": 50, "quantity": 2, "weight": 0.1}
]`

type gateway struct {
	router  http.Handler
	stock   *inventoryservice.MemoryStore
	ledger  *invoiceservice.Ledger
	journal *journal.Memory
}

func newGateway(t *testing.T, inv coordinator.Inventory) *gateway {
	t.Helper()
	g := &gateway{
		stock:   inventoryservice.NewMemoryStore(map[string]int{"notebook-x": 5, "mousepad": 10}),
		journal: journal.NewMemory(),
	}
	g.ledger = invoiceservice.NewLedger(invoiceservice.WithBreakdown(coordinator.AdjustmentsFromContext))
	if inv == nil {
		inv = g.stock
	}

	reg := prometheus.NewRegistry()
	checkout := coordinator.NewCheckout(inv, g.ledger, notificationservice.NewLogNotifier(nil),
		coordinator.WithJournal(g.journal),
		coordinator.WithMetrics(metrics.NewCheckoutMetrics(reg)),
	)
	svc := service.NewCheckoutService(config.Default(), checkout, g.journal)
	h := NewHandler(svc,
		WithIdempotencyCache(cache.NewMemory("test"), time.Hour),
		WithHealthDetails(func() map[string]string { return map[string]string{"inventory": "closed"} }),
	)
	g.router = NewRouter(h, metrics.Handler(reg), "checkout-test")
	return g
}

func (g *gateway) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateCheckout_Completed(t *testing.T) {
	g := newGateway(t, nil)

	rec := g.do(t, http.MethodPost, "/checkouts",
		`{`+cartJSON+`, "shipping": "standard", "payment": "instant", "adjustments": ["pix-discount"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	resp := decode[CheckoutResponse](t, rec)
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "3435.53", resp.FinalTotal)
	assert.Equal(t, []string{"discount 5%"}, resp.Adjustments)
	assert.Empty(t, resp.FailedStage)

	assert.Equal(t, 4, g.stock.Stock("notebook-x"))
	assert.Equal(t, 8, g.stock.Stock("mousepad"))

	inv, ok := g.ledger.ForCheckout(resp.ID)
	require.True(t, ok)
	assert.Equal(t, "3435.5325", inv.Total.String())
	assert.Equal(t, []string{"discount 5%"}, inv.Breakdown)

	rec = g.do(t, http.MethodGet, "/checkouts/"+resp.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[CheckoutRecordResponse](t, rec)
	assert.Equal(t, "COMPLETED", latest.Status)
	assert.Equal(t, "3435.5325", latest.FinalTotal)

	rec = g.do(t, http.MethodGet, "/checkouts/"+resp.ID+"/journal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CheckoutRecordResponse](t, rec), 7)
}

func TestCreateCheckout_InlineAdjustmentsInOrder(t *testing.T) {
	g := newGateway(t, nil)

	rec := g.do(t, http.MethodPost, "/checkouts",
		`{`+cartJSON+`, "shipping": "express", "payment": "card",
		"adjustments": [{"kind": "discount", "value": 0.05}, {"kind": "surcharge", "value": "10"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[CheckoutResponse](t, rec)
	// (3600 + 45 + 2.7*2) * 0.95 + 10
	assert.Equal(t, "3477.88", resp.FinalTotal)
	assert.Equal(t, []string{"surcharge 10.00", "discount 5%"}, resp.Adjustments)
}

func TestCreateCheckout_OutOfStock(t *testing.T) {
	g := newGateway(t, nil)

	rec := g.do(t, http.MethodPost, "/checkouts",
		`{"items": [{"sku": "notebook-x", "unit_price": 3500, "quantity": 6, "weight": 2.5}], "shipping": "standard", "payment": "card"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[CheckoutResponse](t, rec)
	assert.Equal(t, "FAILED", resp.Status)
	assert.Equal(t, "CHECK_STOCK", resp.FailedStage)
	assert.Equal(t, 5, g.stock.Stock("notebook-x"))
	assert.Empty(t, g.ledger.Invoices())
}

type unreachableInventory struct{}

func (unreachableInventory) IsAvailable(context.Context, []pricing.ItemLine) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func (unreachableInventory) Reserve(context.Context, []pricing.ItemLine) error {
	return errors.New("dial tcp: connection refused")
}

func TestCreateCheckout_CollaboratorFault(t *testing.T) {
	g := newGateway(t, unreachableInventory{})

	rec := g.do(t, http.MethodPost, "/checkouts", `{`+cartJSON+`, "shipping": "standard", "payment": "card"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decode[CheckoutResponse](t, rec)
	assert.Equal(t, "FAULTED", resp.Status)
	assert.Equal(t, "CHECK_STOCK", resp.FailedStage)

	rec = g.do(t, http.MethodGet, "/checkouts/"+resp.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[CheckoutRecordResponse](t, rec)
	assert.Equal(t, "FAULTED", latest.Status)
	assert.Equal(t, []string{"inventory availability: dial tcp: connection refused"}, latest.Errors)
}

func TestCreateCheckout_BadRequests(t *testing.T) {
	tests := map[string]string{
		"malformed json":   `{"items": [`,
		"unknown shipping": `{` + cartJSON + `, "shipping": "drone", "payment": "card"}`,
		"unknown payment":  `{` + cartJSON + `, "shipping": "standard", "payment": "boleto"}`,
		"unknown preset":   `{` + cartJSON + `, "shipping": "standard", "payment": "card", "adjustments": ["free-lunch"]}`,
		"rate above one":   `{` + cartJSON + `, "shipping": "standard", "payment": "card", "adjustments": [{"kind": "discount", "value": 1.5}]}`,
		"zero quantity":    `{"items": [{"sku": "mousepad", "unit_price": 50, "quantity": 0, "weight": 0.1}], "shipping": "standard", "payment": "card"}`,
		"negative price":   `{"items": [{"sku": "mousepad", "unit_price": -1, "quantity": 1, "weight": 0.1}], "shipping": "standard", "payment": "card"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			g := newGateway(t, nil)
			rec := g.do(t, http.MethodPost, "/checkouts", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Empty(t, g.ledger.Invoices())
		})
	}
}

func TestCreateCheckout_IdempotentReplay(t *testing.T) {
	g := newGateway(t, nil)
	body := `{` + cartJSON + `, "shipping": "standard", "payment": "instant"}`

	first := g.do(t, http.MethodPost, "/checkouts", body, "X-Idempotency-Key", "order-42")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(HeaderXIdempotentReplay))

	second := g.do(t, http.MethodPost, "/checkouts", body, "X-Idempotency-Key", "order-42")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(HeaderXIdempotentReplay))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	assert.Len(t, g.ledger.Invoices(), 1)
	assert.Equal(t, 4, g.stock.Stock("notebook-x"))

	third := g.do(t, http.MethodPost, "/checkouts", body, "X-Idempotency-Key", "order-43")
	require.Equal(t, http.StatusCreated, third.Code)
	assert.Len(t, g.ledger.Invoices(), 2)
}

func TestCreateCheckout_IdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	g := newGateway(t, nil)
	body := `{` + cartJSON + `, "shipping": "standard", "payment": "instant"}`

	first := g.do(t, http.MethodPost, "/checkouts", body, "X-Idempotency-Key", "order-77")
	require.Equal(t, http.StatusCreated, first.Code)

	reformatted := `{"payment": "instant", "shipping": "standard", "items": [
		{"sku": "notebook-x", "unit_price": 3500, "quantity": 1, "weight": 2.5},
		{"sku": "mousepad", "unit_price": "50.00", "quantity": 2, "weight": "0.10"}
	]}`
	same := g.do(t, http.MethodPost, "/checkouts", reformatted, "X-Idempotency-Key", "order-77")
	require.Equal(t, http.StatusCreated, same.Code, same.Body.String())
	assert.Equal(t, "true", same.Header().Get(HeaderXIdempotentReplay))

	changed := `{` + cartJSON + `, "shipping": "express", "payment": "instant"}`
	rec := g.do(t, http.MethodPost, "/checkouts", changed, "X-Idempotency-Key", "order-77")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Header().Get(HeaderXIdempotentReplay))
	assert.Equal(t, "idempotency_key_reused", decode[ErrorResponse](t, rec).Error)

	assert.Len(t, g.ledger.Invoices(), 1)
	assert.Equal(t, 4, g.stock.Stock("notebook-x"))
}

func TestCreateCheckout_FaultsAreNotReplayed(t *testing.T) {
	g := newGateway(t, unreachableInventory{})
	body := `{` + cartJSON + `, "shipping": "standard", "payment": "instant"}`

	first := g.do(t, http.MethodPost, "/checkouts", body, "X-Idempotency-Key", "retry-me")
	second := g.do(t, http.MethodPost, "/checkouts", body, "X-Idempotency-Key", "retry-me")

	assert.Equal(t, http.StatusServiceUnavailable, second.Code)
	assert.Empty(t, second.Header().Get(HeaderXIdempotentReplay))
	assert.NotEqual(t, decode[CheckoutResponse](t, first).ID, decode[CheckoutResponse](t, second).ID)
}

func TestGetCheckout_NotFound(t *testing.T) {
	g := newGateway(t, nil)

	assert.Equal(t, http.StatusNotFound, g.do(t, http.MethodGet, "/checkouts/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, g.do(t, http.MethodGet, "/checkouts/missing/journal", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	g := newGateway(t, nil)
	g.do(t, http.MethodPost, "/checkouts", `{`+cartJSON+`, "shipping": "standard", "payment": "card"}`)

	rec := g.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok", "inventory": "closed"}, decode[map[string]string](t, rec))

	rec = g.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flexorder_checkout_attempts_total{result="success",stage=""} 1`)
}
