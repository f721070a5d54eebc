package store

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// RetryCompareAndSwapBranch retries a branch-head swap against st under an
// exponential backoff as long as it keeps failing with a *ConflictError,
// asking swap to recompute the desired next head from the latest observed
// actual head on every attempt. It is an opt-in convenience for callers that
// want last-writer-wins semantics on a hot branch; the engine itself always
// calls CompareAndSwapBranch directly and surfaces ConcurrencyConflict rather
// than retrying silently.
func RetryCompareAndSwapBranch(ctx context.Context, st Store, name string, expected *string, swap func(actual *string) (*string, error)) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	attempt := expected

	return backoff.Retry(func() error {
		next, err := swap(attempt)
		if err != nil {
			return backoff.Permanent(err)
		}

		err = st.CompareAndSwapBranch(ctx, name, attempt, next)
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			attempt = conflict.Actual
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, b)
}
