package inventoryservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// Breaker fails fast while the wrapped store keeps erroring, so an
// unreachable store surfaces as a quick collaborator fault instead of a
// timeout per checkout. It does not retry. Business answers (false,
// insufficient stock) never trip it.
type Breaker struct {
	next coordinator.Inventory
	cb   *gobreaker.CircuitBreaker
}

var _ coordinator.Inventory = (*Breaker)(nil)

// BreakerSettings tunes NewBreaker. Zero values fall back to defaults.
type BreakerSettings struct {
	Name             string
	ConsecutiveFails uint32
	OpenTimeout      time.Duration
}

func NewBreaker(next coordinator.Inventory, s BreakerSettings) *Breaker {
	if s.Name == "" {
		s.Name = "inventory"
	}
	if s.ConsecutiveFails == 0 {
		s.ConsecutiveFails = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    s.Name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			return !IsConnectionError(err)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) IsAvailable(ctx context.Context, lines []pricing.ItemLine) (bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.IsAvailable(ctx, lines)
	})
	if err != nil {
		return false, breakerError(err)
	}
	return res.(bool), nil
}

func (b *Breaker) Reserve(ctx context.Context, lines []pricing.ItemLine) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Reserve(ctx, lines)
	})
	if err != nil {
		return breakerError(err)
	}
	return nil
}

// State exposes the breaker state for health reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("inventory unavailable: %w", err)
	}
	return err
}
