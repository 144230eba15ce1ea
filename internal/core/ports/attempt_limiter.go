package ports

import "context"

// AttemptLimiter throttles repeated signin failures per username.
type AttemptLimiter interface {
	// Allow reports whether another signin attempt may proceed.
	Allow(ctx context.Context, username string) (bool, error)
	// RecordFailure counts a failed attempt.
	RecordFailure(ctx context.Context, username string) error
	// Reset clears the failure count after a successful signin.
	Reset(ctx context.Context, username string) error
}
