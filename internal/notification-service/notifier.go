// Package notificationservice sends purchase confirmations. Delivery is
// logged only.
package notificationservice

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
)

type LogNotifier struct {
	logger *slog.Logger
	sent   atomic.Int64
}

var _ coordinator.Notifier = (*LogNotifier)(nil)

// NewLogNotifier logs through logger, or slog.Default() when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendConfirmation(ctx context.Context) error {
	n.sent.Add(1)
	n.logger.InfoContext(ctx, "purchase confirmation sent",
		"checkout_id", coordinator.CheckoutIDFromContext(ctx),
	)
	return nil
}

// Sent reports how many confirmations went out.
func (n *LogNotifier) Sent() int64 { return n.sent.Load() }
