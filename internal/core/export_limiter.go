package core

// export_limiter.go bounds how many CSV exports stream at once.
//
// Callers wait up to maxWait for a slot and then fail with ErrTooManyExports.
// Drain is used during shutdown so open downloads can finish.

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// drainPollInterval is how often Drain checks for remaining exports.
const drainPollInterval = 10 * time.Millisecond

// ErrTooManyExports is returned when no export slot frees up in time.
var ErrTooManyExports = errors.New("too many concurrent exports, please try again later")

const (
	DefaultMaxConcurrentExports = 2
	DefaultExportWait           = 10 * time.Second
)

// ExportLimiter is a counting semaphore with a bounded wait.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewExportLimiter allows at most maxConcurrent exports. Non-positive
// arguments fall back to the defaults.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultExportWait
	}
	return &ExportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The returned release func must be called exactly once.
func (l *ExportLimiter) Acquire(ctx context.Context) (release func(), err error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManyExports
	}

	l.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Add(-1)
			<-l.slots
		})
	}, nil
}

// Active returns the number of exports in progress.
func (l *ExportLimiter) Active() int {
	return int(l.active.Load())
}

// Capacity returns the configured maximum.
func (l *ExportLimiter) Capacity() int {
	return cap(l.slots)
}

// Drain blocks until no export holds a slot or ctx ends. Acquire may still
// be called concurrently; Drain returns at the first moment none are active.
func (l *ExportLimiter) Drain(ctx context.Context) error {
	if l.Active() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Active() == 0 {
				return nil
			}
		}
	}
}
