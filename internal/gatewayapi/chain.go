package gatewayapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned by Chain.Verify when every configured gateway errored.
var ErrAllFailed = errors.New("every gateway query failed")

// Chain asks gateways in order until one confirms a reference.
type Chain struct {
	queriers []Querier
	logger   *slog.Logger
}

func NewChain(logger *slog.Logger, qs ...Querier) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{queriers: qs, logger: logger}
}

// Queriers returns the chain's clients in query order.
func (c *Chain) Queriers() []Querier {
	return c.queriers
}

// Verify skips unconfigured gateways. It returns ErrNotFound when at least one
// gateway answered without knowing the reference, ErrAllFailed when all of them
// errored, and ErrNotConfigured when none is configured.
func (c *Chain) Verify(ctx context.Context, reference string) (Verification, error) {
	var (
		asked    int
		notFound int
		lastErr  error
	)
	for _, q := range c.queriers {
		if !q.Configured() {
			continue
		}
		asked++
		v, err := q.Verify(ctx, reference)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, ErrNotFound) {
			notFound++
			continue
		}
		lastErr = err
		c.logger.Warn("gateway verify failed", "gateway", q.Gateway(), "reference", reference, "error", err)
	}

	switch {
	case asked == 0:
		return Verification{}, ErrNotConfigured
	case notFound > 0:
		return Verification{}, ErrNotFound
	default:
		return Verification{}, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
	}
}
