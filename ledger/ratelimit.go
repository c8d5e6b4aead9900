package ledger

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Ledger so RecordRun/GetRun calls block on limiter
// before reaching the network.
type RateLimited struct {
	Ledger
	limiter *rate.Limiter
}

// NewRateLimited wraps ledger with a token-bucket limiter allowing
// requestsPerSecond sustained requests and burst concurrent ones.
func NewRateLimited(ledger Ledger, requestsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{Ledger: ledger, limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

func (r *RateLimited) RecordRun(ctx context.Context, rec Record) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.Ledger.RecordRun(ctx, rec)
}

func (r *RateLimited) GetRun(ctx context.Context, runID string) (Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Record{}, err
	}
	return r.Ledger.GetRun(ctx, runID)
}
