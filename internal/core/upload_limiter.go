package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads is returned when no upload slot frees up within the
// limiter's wait window.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	defaultUploadSlots = 5
	defaultUploadWait  = 30 * time.Second
)

// UploadLimiter caps the number of upload batches parsed at once across all
// sessions. Batches beyond the cap queue for up to the wait window.
type UploadLimiter struct {
	sem   *semaphore.Weighted
	slots int64
	wait  time.Duration

	active   atomic.Int64
	waiting  atomic.Int64
	rejected atomic.Int64
}

// NewUploadLimiter returns a limiter with the given number of slots. Values
// below one fall back to 5 slots and a 30 second wait.
func NewUploadLimiter(slots int, wait time.Duration) *UploadLimiter {
	if slots <= 0 {
		slots = defaultUploadSlots
	}
	if wait <= 0 {
		wait = defaultUploadWait
	}
	return &UploadLimiter{
		sem:   semaphore.NewWeighted(int64(slots)),
		slots: int64(slots),
		wait:  wait,
	}
}

// Acquire takes a slot and returns the function that gives it back. The
// release function is safe to call more than once.
func (l *UploadLimiter) Acquire(ctx context.Context) (release func(), err error) {
	l.waiting.Add(1)
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	err = l.sem.Acquire(waitCtx, 1)
	cancel()
	l.waiting.Add(-1)

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		l.rejected.Add(1)
		return nil, ErrTooManyUploads
	}

	l.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Add(-1)
			l.sem.Release(1)
		})
	}, nil
}

// Drain returns once no upload holds a slot. New uploads are blocked while
// it waits.
func (l *UploadLimiter) Drain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.slots); err != nil {
		return err
	}
	l.sem.Release(l.slots)
	return nil
}

// UploadStatus is a point-in-time view of an UploadLimiter.
type UploadStatus struct {
	Active   int   `json:"active"`
	Waiting  int   `json:"waiting"`
	Rejected int64 `json:"rejected"`
	Slots    int   `json:"slots"`
}

// Status snapshots the limiter counters.
func (l *UploadLimiter) Status() UploadStatus {
	return UploadStatus{
		Active:   int(l.active.Load()),
		Waiting:  int(l.waiting.Load()),
		Rejected: l.rejected.Load(),
		Slots:    int(l.slots),
	}
}
