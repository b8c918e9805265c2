// Package guard checks a callback's claimed amount and state transition against the
// stored order before anything is written.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
)

// Result is the outcome of a validation. Error is set when Success is false.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result { return Result{Success: true} }

func reject(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Orders is the order lookup the guard needs.
type Orders interface {
	FindOrderByReference(ctx context.Context, ref string) (*store.Order, error)
}

// Guard validates payment events against their orders.
type Guard struct {
	orders Orders
}

func New(orders Orders) *Guard {
	return &Guard{orders: orders}
}

// Validate compares the event with the order matching reference. An event with no
// matching order passes; the orphan path handles it. A SUCCESS must carry exactly the
// order total in the order currency. A completed order may not fall back to PENDING or
// FAILED, and a refunded order accepts nothing but another refund.
func (g *Guard) Validate(ctx context.Context, reference string, status normalize.Status, ev normalize.Event) (Result, error) {
	order, err := g.orders.FindOrderByReference(ctx, reference)
	if errors.Is(err, store.ErrNotFound) {
		return ok(), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("guard lookup %s: %w", reference, err)
	}

	if r := CheckTransition(order.PaymentStatus, status); !r.Success {
		return r, nil
	}
	if status != normalize.StatusSuccess {
		return ok(), nil
	}

	if ev.Currency != "" && order.Currency != "" && !strings.EqualFold(ev.Currency, order.Currency) {
		return reject("currency mismatch for %s: expected %s, got %s", reference, order.Currency, ev.Currency), nil
	}
	want := order.Total.Round(2)
	got := ev.Amount.Round(2)
	if !want.Equal(got) {
		return reject("amount mismatch for %s: expected %s, got %s", reference, want.StringFixed(2), got.StringFixed(2)), nil
	}
	return ok(), nil
}

// CheckTransition reports whether a payment in state current may move to next.
func CheckTransition(current store.PaymentStatus, next normalize.Status) Result {
	switch current {
	case store.PaymentCompleted:
		switch next {
		case normalize.StatusSuccess, normalize.StatusRefunded, normalize.StatusAbandoned:
			return ok()
		default:
			return reject("order payment already completed; refusing %s", next)
		}
	case store.PaymentRefunded:
		if next != normalize.StatusRefunded {
			return reject("order payment already refunded; refusing %s", next)
		}
	}
	return ok()
}
