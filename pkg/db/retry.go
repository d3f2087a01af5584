package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrTransient is returned once bounded retries on lock contention are
// exhausted. Callers may surface it as retryable.
var ErrTransient = errors.New("transient_store_error")

const (
	maxTxAttempts  = 3
	txRetryBackoff = 50 * time.Millisecond
)

// RunInTx executes fn inside a transaction, retrying on transient lock
// contention with backoff. Business errors abort immediately.
func RunInTx(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(txRetryBackoff << attempt):
			}
		}

		lastErr = conn.WithContext(ctx).Transaction(fn)
		if lastErr == nil {
			return nil
		}
		if !IsLockErr(lastErr) {
			return lastErr
		}
	}
	return errors.Join(ErrTransient, lastErr)
}
