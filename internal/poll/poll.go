// Package poll implements a bounded fixed-interval polling loop for
// asynchronous external tasks. The loop has exactly three exit conditions:
// the check reports a terminal result, the check reports a permanent failure,
// or the attempt bound is exhausted.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrExhausted is returned when the attempt bound is reached without the task
// turning terminal.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Config bounds a polling loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// Status is the outcome of a single check.
type Status int

const (
	// StatusPending means the task has not reached a terminal state yet.
	StatusPending Status = iota
	// StatusDone means the task finished and the returned value is final.
	StatusDone
)

// permanentError aborts the loop immediately instead of consuming attempts.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-transient so Run raises it instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// CheckFunc inspects the external task once. A plain error is treated as a
// transient transport failure: it is logged and the attempt is consumed.
// Wrap an error with Permanent to abort the loop.
type CheckFunc[T any] func(ctx context.Context, attempt int) (T, Status, error)

// Run executes check every cfg.Interval until it turns terminal or the bound
// is hit. It returns the final value, the number of attempts spent, and an
// error for the permanent-failure and exhaustion exits.
func Run[T any](ctx context.Context, cfg Config, logger zerolog.Logger, check CheckFunc[T]) (T, int, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		return zero, 0, fmt.Errorf("poll: max attempts must be positive")
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, attempt - 1, ctx.Err()
		case <-time.After(cfg.Interval):
		}

		value, status, err := check(ctx, attempt)
		if err != nil {
			var perm *permanentError
			if errors.As(err, &perm) {
				return zero, attempt, perm.err
			}
			logger.Warn().Err(err).Int("attempt", attempt).Msg("transient poll failure, continuing")
			continue
		}
		if status == StatusDone {
			return value, attempt, nil
		}
	}

	return zero, cfg.MaxAttempts, ErrExhausted
}
