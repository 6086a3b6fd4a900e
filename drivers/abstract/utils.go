package abstract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/destination"
	"github.com/datazip-inc/tap-hubspot/logger"
)

// PermanentError marks a failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryAfterError asks RetryOnBackoff to wait at least Wait before the next attempt
type RetryAfterError struct {
	Err  error
	Wait time.Duration
}

func (e *RetryAfterError) Error() string {
	return e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

// RetryOnBackoff calls f up to attempts times, doubling sleep after every failure.
// It stops early on permanent and destination errors and when ctx is done.
func RetryOnBackoff(ctx context.Context, attempts int, sleep time.Duration, f func() error) (err error) {
	attempts = max(attempts, 1)
	for cur := 0; cur < attempts; cur++ {
		if err = f(); err == nil {
			return nil
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		if strings.Contains(err.Error(), destination.DestError) {
			break // if destination error, break the retry loop
		}

		if cur != attempts-1 {
			wait := sleep
			var retryAfter *RetryAfterError
			if errors.As(err, &retryAfter) && retryAfter.Wait > wait {
				wait = retryAfter.Wait
			}
			wait = min(wait, constants.MaxRetryTimeout)

			logger.Infof("retry attempt[%d], retrying after %.2f seconds due to err: %s", cur+1, wait.Seconds(), err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			sleep = sleep * 2
		}
	}

	return err
}
