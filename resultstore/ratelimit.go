package resultstore

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Store so Put/Get calls block on limiter before
// reaching the network, keeping a fleet of concurrent solves from
// hammering the same bucket.
type RateLimited struct {
	Store
	limiter *rate.Limiter
}

// NewRateLimited wraps store with a token-bucket limiter allowing
// requestsPerSecond sustained requests and burst concurrent ones.
func NewRateLimited(store Store, requestsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{Store: store, limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

func (r *RateLimited) Put(ctx context.Context, runID string, result []byte) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.Store.Put(ctx, runID, result)
}

func (r *RateLimited) Get(ctx context.Context, runID string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.Store.Get(ctx, runID)
}
