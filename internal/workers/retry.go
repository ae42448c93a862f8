package workers

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	maxRetries        = 3
	initialRetryDelay = 100 * time.Millisecond
)

// retry runs fn up to attempts times, doubling the delay after each failure.
func retry(ctx context.Context, what string, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", what, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err = fn(); err == nil {
			return nil
		}

		if i < attempts-1 {
			log.Printf("Retry %d/%d: %s failed: %v", i+1, attempts, what, err)
		}
	}
	return fmt.Errorf("failed to %s after %d retries: %w", what, attempts, err)
}
