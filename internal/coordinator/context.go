package coordinator

import "context"

type contextKey string

const checkoutIDKey contextKey = "checkout-id"

// WithCheckoutID stores id in ctx. The orchestrator does this before running
// any step so collaborators can label what they produce.
func WithCheckoutID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, checkoutIDKey, id)
}

// CheckoutIDFromContext returns the ID set by WithCheckoutID, or "".
func CheckoutIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(checkoutIDKey).(string)
	return id
}

const adjustmentsKey contextKey = "adjustments"

// WithAdjustments stores the adjustment descriptions of the pricer being
// checked out, outermost first.
func WithAdjustments(ctx context.Context, descriptions []string) context.Context {
	return context.WithValue(ctx, adjustmentsKey, descriptions)
}

func AdjustmentsFromContext(ctx context.Context) []string {
	d, _ := ctx.Value(adjustmentsKey).([]string)
	return d
}
