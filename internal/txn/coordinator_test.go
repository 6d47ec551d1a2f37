package txn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthrough runs fn directly and counts attempts
type passthrough struct {
	attempts int
}

func (p *passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.attempts++
	return fn(ctx)
}

type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}

func TestPolicyBackoff(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		failed int
		want   time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Backoff(tt.failed), "after %d failures", tt.failed)
	}
}

func TestCoordinatorRetriesTransientConflicts(t *testing.T) {
	runner := &passthrough{}
	sleeper := &recordingSleeper{}
	c := NewCoordinator(runner, DefaultPolicy(), WithSleeper(sleeper.sleep))

	calls := 0
	err := c.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("write conflict"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, runner.attempts)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.waits)
}

func TestCoordinatorDoesNotRetryOtherErrors(t *testing.T) {
	sleeper := &recordingSleeper{}
	c := NewCoordinator(&passthrough{}, DefaultPolicy(), WithSleeper(sleeper.sleep))
	businessErr := errors.New("goal already met")

	calls := 0
	err := c.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return businessErr
	})

	assert.ErrorIs(t, err, businessErr)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.waits)
}

func TestCoordinatorExhaustsBudget(t *testing.T) {
	sleeper := &recordingSleeper{}
	c := NewCoordinator(&passthrough{}, DefaultPolicy(), WithSleeper(sleeper.sleep))

	calls := 0
	err := c.Do(context.Background(), "FundProject", func(ctx context.Context) error {
		calls++
		return Transient(errors.New("write conflict"))
	})

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Contains(t, err.Error(), "FundProject")
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.waits, 2)
}

func TestCoordinatorStopsWhenSleepIsCancelled(t *testing.T) {
	sleeper := &recordingSleeper{err: context.Canceled}
	c := NewCoordinator(&passthrough{}, DefaultPolicy(), WithSleeper(sleeper.sleep))

	calls := 0
	err := c.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return Transient(errors.New("write conflict"))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCoordinatorRunsOnceWithZeroAttempts(t *testing.T) {
	c := NewCoordinator(&passthrough{}, Policy{})
	assert.Equal(t, 1, c.Policy().MaxAttempts)
}

func TestRunReturnsValueOfCommittedAttempt(t *testing.T) {
	c := NewCoordinator(&passthrough{}, DefaultPolicy(), WithSleeper(func(context.Context, time.Duration) error { return nil }))

	attempt := 0
	got, err := Run(context.Background(), c, "op", func(ctx context.Context) (int, error) {
		attempt++
		if attempt == 1 {
			return attempt, Transient(errors.New("conflict"))
		}
		return attempt * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 20, got)

	_, err = Run(context.Background(), c, "op", func(ctx context.Context) (string, error) {
		return "ignored", errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestTransientWrapping(t *testing.T) {
	assert.Nil(t, Transient(nil))
	base := errors.New("conflict")
	wrapped := Transient(base)
	assert.True(t, IsTransient(wrapped))
	assert.Same(t, wrapped, Transient(wrapped))
	assert.False(t, IsTransient(base))
}

func TestRunnerFunc(t *testing.T) {
	called := false
	var r Runner = RunnerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		called = true
		return fn(ctx)
	})
	require.NoError(t, r.RunInTransaction(context.Background(), func(context.Context) error { return nil }))
	assert.True(t, called)
}
