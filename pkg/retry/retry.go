// Package retry is the shared retry policy for network calls: a bounded
// number of attempts, linear backoff between them, and an overall deadline.
package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy describes how an operation is retried. Zero MaxAttempts means one
// attempt; zero Deadline means only the caller's context bounds the call.
type Policy struct {
	MaxAttempts int
	Step        time.Duration
	Deadline    time.Duration
}

// Linear builds a policy waiting step, 2*step, 3*step... between attempts.
func Linear(attempts int, step, deadline time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Step: step, Deadline: deadline}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent stops the retry loop and returns err unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a Permanent error, runs out of
// attempts, or the deadline passes. attempt starts at 1.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	if p.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Deadline)
		defer cancel()
	}

	var attempt int32
	return goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		n := atomic.AddInt32(&attempt, 1)
		err := fn(ctx, int(n))
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		return goretry.RetryableError(err)
	})
}

func (p Policy) backoff() goretry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var waits int64
	linear := goretry.BackoffFunc(func() (time.Duration, bool) {
		n := atomic.AddInt64(&waits, 1)
		return time.Duration(n) * p.Step, false
	})
	return goretry.WithMaxRetries(uint64(attempts-1), linear)
}
