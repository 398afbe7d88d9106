package ports

import (
	"context"
	"errors"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/api-gateway/core/domain/entity"
)

var (
	// ErrInvalidRequest marks requests naming unknown policies or presets.
	ErrInvalidRequest = errors.New("invalid checkout request")
	ErrNotFound       = errors.New("checkout not found")
)

// CheckoutService runs checkouts and reports their journal state.
//
// Checkout returns a result with status FAILED and a nil error for business
// failures. For collaborator faults it returns both a FAULTED result and the
// error.
type CheckoutService interface {
	Checkout(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutResult, error)
	GetCheckout(ctx context.Context, id string) (*entity.CheckoutRecord, error)
	// GetJournal lists every recorded transition, oldest first.
	GetJournal(ctx context.Context, id string) ([]entity.CheckoutRecord, error)
}
