package vault

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/btvault/bt/internal/bterr"
	"github.com/btvault/bt/internal/logger"
)

// MaxAttempts bounds the exponential-backoff retry applied to every vault
// call made from the commit loop, per the 3-5 attempt cap mandated by §5.
const MaxAttempts = 5

// WithRetry wraps op with exponential backoff, retrying only while the
// returned error classifies as bterr.KindTransient. Non-transient errors
// (corrupt, not found, auth denied) return immediately on the first
// attempt.
func WithRetry(ctx context.Context, vaultName, op string, fn func() error) error {
	attempt := 0
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxAttempts-1), ctx)

	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if bterr.KindOf(err) != bterr.KindTransient {
			return backoff.Permanent(err)
		}
		logger.Warn("vault operation failed, retrying",
			logger.StoreName(vaultName), logger.Operation(op), logger.Attempt(attempt), logger.Err(err))
		return err
	}

	err := backoff.Retry(wrapped, b)
	if err == nil {
		return nil
	}

	var ve *Error
	if errors.As(err, &ve) {
		ve.Retries = attempt - 1
	}
	return err
}
