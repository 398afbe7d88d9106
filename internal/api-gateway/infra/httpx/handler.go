package httpx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/domain/entity"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/ports"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/infra/httpx/middlewares"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pkg/cache"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// HeaderXIdempotentReplay is set on responses served from the idempotency
// cache.
const HeaderXIdempotentReplay = "X-Idempotent-Replay"

// Handler serves the checkout HTTP API.
type Handler struct {
	checkouts ports.CheckoutService
	replay    cache.Cache // nil disables idempotent replay
	replayTTL time.Duration
	health    func() map[string]string
}

type HandlerOption func(*Handler)

// WithIdempotencyCache replays the stored response when a request repeats an
// X-Idempotency-Key whose checkout reached a decision.
func WithIdempotencyCache(c cache.Cache, ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		h.replay = c
		h.replayTTL = ttl
	}
}

// WithHealthDetails adds component states to /healthz.
func WithHealthDetails(fn func() map[string]string) HandlerOption {
	return func(h *Handler) { h.health = fn }
}

func NewHandler(svc ports.CheckoutService, opts ...HandlerOption) *Handler {
	h := &Handler{checkouts: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// storedResponse is what the idempotency cache keeps per key. BodyHash is
// the fingerprint of the request that produced it.
type storedResponse struct {
	Status   int             `json:"status"`
	Body     json.RawMessage `json:"body"`
	BodyHash string          `json:"body_hash"`
}

// fingerprint hashes the decoded request, so formatting differences and
// equivalent amounts ("50" vs 50.00) do not count as a different body.
func fingerprint(req CheckoutRequest) (string, error) {
	canonical, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CreateCheckout prices the requested order and runs the checkout
// synchronously.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	ctx := r.Context()
	idempKey := middlewares.IdempotencyKeyFromContext(ctx)
	cacheKey, bodyHash := "", ""
	if idempKey != "" && h.replay != nil {
		var err error
		if bodyHash, err = fingerprint(req); err != nil {
			writeError(w, http.StatusInternalServerError, "encode_error", err.Error())
			return
		}
		cacheKey = h.replay.GenerateKey("checkout", idempKey)
		stored, err := h.replay.Get(ctx, cacheKey)
		if err != nil {
			slog.ErrorContext(ctx, "idempotency lookup failed", "idempotency_key", idempKey, "error", err)
			writeError(w, http.StatusServiceUnavailable, "idempotency_unavailable", "cannot verify idempotency key")
			return
		}
		if stored != "" {
			h.writeReplay(ctx, w, idempKey, bodyHash, stored)
			return
		}
	}

	slog.InfoContext(ctx, "checkout requested",
		"request_id", middlewares.RequestIDFromContext(ctx),
		"items", len(req.Items),
		"shipping", req.Shipping,
		"payment", req.Payment,
	)

	// A client disconnect must not abort a checkout whose payment may
	// already be captured.
	res, err := h.checkouts.Checkout(context.WithoutCancel(ctx), mapCheckoutRequest(req))

	var status int
	switch {
	case errors.Is(err, ports.ErrInvalidRequest), errors.Is(err, pricing.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, coordinator.ErrCollaborator):
		slog.ErrorContext(ctx, "checkout faulted", "checkout_id", res.ID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, mapCheckoutResponse(res))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "checkout_error", err.Error())
		return
	case res.Status == entity.StatusFailed:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusCreated
	}

	body, err := json.Marshal(mapCheckoutResponse(res))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode_error", err.Error())
		return
	}
	if cacheKey != "" {
		h.remember(ctx, cacheKey, storedResponse{Status: status, Body: body, BodyHash: bodyHash})
	}
	writeRaw(w, status, body)
}

func (h *Handler) remember(ctx context.Context, key string, resp storedResponse) {
	raw, err := json.Marshal(resp)
	if err == nil {
		err = h.replay.Set(ctx, key, string(raw), h.replayTTL)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to store idempotent response", "key", key, "error", err)
	}
}

func (h *Handler) writeReplay(ctx context.Context, w http.ResponseWriter, idempKey, bodyHash, stored string) {
	var resp storedResponse
	if err := json.Unmarshal([]byte(stored), &resp); err != nil {
		slog.ErrorContext(ctx, "corrupt idempotent response", "idempotency_key", idempKey, "error", err)
		writeError(w, http.StatusInternalServerError, "idempotency_corrupt", "")
		return
	}
	if resp.BodyHash != bodyHash {
		slog.WarnContext(ctx, "idempotency key reused with a different body", "idempotency_key", idempKey)
		writeError(w, http.StatusUnprocessableEntity, "idempotency_key_reused",
			"X-Idempotency-Key was already used for a different checkout request")
		return
	}
	slog.InfoContext(ctx, "replaying checkout response", "idempotency_key", idempKey)
	w.Header().Set(HeaderXIdempotentReplay, "true")
	writeRaw(w, resp.Status, resp.Body)
}

// GetCheckout returns the latest journal state of a checkout.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.checkouts.GetCheckout(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRecord(*rec))
}

// GetJournal returns every journal entry of a checkout, oldest first.
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := h.checkouts.GetJournal(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	out := make([]CheckoutRecordResponse, len(records))
	for i, rec := range records {
		out[i] = mapRecord(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.health != nil {
		for k, v := range h.health() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "checkout_not_found", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "journal_error", err.Error())
}

func mapCheckoutRequest(req CheckoutRequest) entity.CheckoutRequest {
	items := make([]entity.CheckoutItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = entity.CheckoutItem{
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Weight:    it.Weight,
		}
	}
	adjs := make([]entity.AdjustmentRef, len(req.Adjustments))
	for i, a := range req.Adjustments {
		adjs[i] = entity.AdjustmentRef{Preset: a.Preset, Kind: a.Kind, Value: a.Value}
	}
	return entity.CheckoutRequest{
		Items:       items,
		Shipping:    req.Shipping,
		Payment:     req.Payment,
		Adjustments: adjs,
	}
}

func mapCheckoutResponse(res *entity.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		ID:          res.ID,
		Status:      res.Status,
		FailedStage: res.FailedStage,
		FinalTotal:  res.FinalTotal.StringFixed(2),
		Adjustments: res.Adjustments,
	}
}

func mapRecord(rec entity.CheckoutRecord) CheckoutRecordResponse {
	return CheckoutRecordResponse{
		CheckoutID: rec.CheckoutID,
		Status:     rec.Status,
		Stage:      rec.Stage,
		FinalTotal: rec.FinalTotal,
		Errors:     rec.Errors,
		TraceID:    rec.TraceID,
		RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
