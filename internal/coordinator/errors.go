package coordinator

import (
	"errors"
	"fmt"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// ErrCollaborator is matched by every fault raised because a collaborator
// (inventory, payment rail, invoicing, notification) could not do its job.
// It means "try again later", as opposed to a business failure, which is
// reported in the Outcome with a nil error.
var ErrCollaborator = errors.New("checkout: collaborator fault")

// ErrNoOrder is returned by Run when the pricer does not lead to an order.
var ErrNoOrder = errors.New("checkout: pricer has no order")

// StageError is the fault that halted a checkout at Stage. It matches
// ErrCollaborator unless the cause is a pricing validation fault, which
// matches pricing.ErrValidation instead.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("checkout: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Is(target error) bool {
	return target == ErrCollaborator && !errors.Is(e.Err, pricing.ErrValidation)
}
