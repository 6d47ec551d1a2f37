// Package txn runs units of work atomically and retries them on transient storage conflicts.
package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ArowuTest/crowdfund-backend/internal/logger"
)

var (
	// ErrTransientConflict marks a storage error after which the whole unit of work may run
	// again because nothing was committed. Storage adapters wrap it.
	ErrTransientConflict = errors.New("transient transaction conflict")

	// ErrCommitOutcomeUnknown is returned when a commit could not be confirmed either way.
	// The unit of work must not be rerun since its writes may already be durable.
	ErrCommitOutcomeUnknown = errors.New("transaction commit outcome unknown")

	// ErrRetriesExhausted is returned once every attempt ended in a transient conflict
	ErrRetriesExhausted = errors.New("transaction retries exhausted")
)

// Runner executes fn inside a single storage transaction. Writes made through ctx are
// committed together when fn returns nil and discarded otherwise.
type Runner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f RunnerFunc) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Policy is the retry budget
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Multiplier  float64
	MaxBackoff  time.Duration
}

// DefaultPolicy is 3 attempts, 100ms base, x2, capped at 1s
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
		Multiplier:  2,
		MaxBackoff:  time.Second,
	}
}

// Backoff returns the wait after the given number of failed attempts (starting at 1)
func (p Policy) Backoff(failed int) time.Duration {
	if failed < 1 {
		return 0
	}
	d := float64(p.BaseBackoff)
	for i := 1; i < failed; i++ {
		d *= p.Multiplier
		if p.MaxBackoff > 0 && d >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && time.Duration(d) > p.MaxBackoff {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Coordinator wraps units of work in a transaction and retries transient failures
type Coordinator struct {
	runner Runner
	policy Policy
	sleep  Sleeper
	log    *zap.SugaredLogger
}

// Option customises a Coordinator
type Option func(*Coordinator)

// WithSleeper replaces the backoff wait, mainly for tests
func WithSleeper(s Sleeper) Option {
	return func(c *Coordinator) { c.sleep = s }
}

// WithLogger sets the logger used for retry messages
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator creates a Coordinator. A policy with MaxAttempts < 1 runs once.
func NewCoordinator(runner Runner, policy Policy, opts ...Option) *Coordinator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	c := &Coordinator{
		runner: runner,
		policy: policy,
		sleep:  sleepContext,
		log:    logger.Named("txn"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the retry budget in use
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// Do runs fn as one atomic unit. fn is re-executed from scratch on every attempt, so it must
// read whatever state it needs through the ctx it receives rather than capture earlier reads.
// Only errors wrapping ErrTransientConflict are retried.
func (c *Coordinator) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		err := c.runner.RunInTransaction(ctx, fn)
		if err == nil {
			if attempt > 1 {
				c.log.Infow("transaction succeeded after retry", "operation", name, "attempt", attempt)
			}
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == c.policy.MaxAttempts {
			break
		}
		wait := c.policy.Backoff(attempt)
		c.log.Warnw("transient transaction conflict, retrying",
			"operation", name, "attempt", attempt, "maxAttempts", c.policy.MaxAttempts, "backoff", wait, "error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	c.log.Errorw("transaction retries exhausted", "operation", name, "attempts", c.policy.MaxAttempts, "error", lastErr)
	return fmt.Errorf("%s: %w after %d attempts: %v", name, ErrRetriesExhausted, c.policy.MaxAttempts, lastErr)
}

// Run is Do for units of work that produce a value. The value from the committed attempt is returned.
func Run[T any](ctx context.Context, c *Coordinator, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := c.Do(ctx, name, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// IsTransient reports whether err is a retryable conflict
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientConflict)
}

// Transient wraps err so the coordinator will retry it
func Transient(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransientConflict, err)
}
