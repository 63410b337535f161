// Package tracker buffers operation records and flushes them to the
// store in batches. Tracking must never fail a pipeline run, so every
// write path swallows storage errors after logging them.
package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/config"
	"github.com/brightpath/onboard/internal/model"
	"github.com/brightpath/onboard/internal/store"
)

// Log is the slice of the store the tracker writes to.
type Log interface {
	store.OperationLog
	store.ErrorLog
}

// Tracker accumulates operation records in memory and appends them to
// the operation log when the buffer reaches its watermark, on a timer
// tick, or at Close. The buffer is bounded at the configured size; while
// the store is unavailable the oldest records are discarded first, so a
// store outage costs history, never memory. Error messages are
// deduplicated through the error log as they arrive.
type Tracker struct {
	ops    store.OperationLog
	errors store.ErrorLog

	mu        sync.Mutex
	buf       []model.OperationRecord
	watermark int
	maxBuf    int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Tracker flushing to the given store. A background
// scheduler flushes the buffer every cfg.FlushSecs seconds.
func New(st Log, cfg config.TrackerConfig) *Tracker {
	t := &Tracker{
		ops:       st,
		errors:    st,
		buf:       make([]model.OperationRecord, 0, cfg.BufferSize),
		watermark: cfg.FlushWatermark,
		maxBuf:    cfg.BufferSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if t.maxBuf <= 0 {
		t.maxBuf = 256
	}
	if t.watermark <= 0 {
		t.watermark = 1
	}
	if t.watermark > t.maxBuf {
		t.watermark = t.maxBuf
	}

	interval := time.Duration(cfg.FlushSecs) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go t.run(interval)
	return t
}

func (t *Tracker) run(interval time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Flush(context.Background())
		case <-t.stop:
			return
		}
	}
}

// Record buffers one operation record. It never returns an error and
// never blocks on storage unless the buffer hit its watermark.
func (t *Tracker) Record(ctx context.Context, op model.OperationRecord) {
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	t.mu.Lock()
	t.buf = append(t.buf, op)
	dropped := t.enforceCapLocked()
	shouldFlush := len(t.buf) >= t.watermark
	t.mu.Unlock()

	if dropped > 0 {
		zap.L().Warn("tracker: buffer full, dropped oldest records",
			zap.Int("dropped", dropped), zap.Int("capacity", t.maxBuf))
	}
	if shouldFlush {
		t.Flush(ctx)
	}
}

// enforceCapLocked bounds the buffer at maxBuf by discarding the oldest
// records, returning how many were dropped. Callers hold t.mu.
func (t *Tracker) enforceCapLocked() int {
	over := len(t.buf) - t.maxBuf
	if over <= 0 {
		return 0
	}
	t.buf = append(t.buf[:0], t.buf[over:]...)
	return over
}

// RecordError folds the message into the deduplicated error log: an
// open event with the exact same message gets its count bumped,
// otherwise a fresh event is created. Resolved events never absorb new
// occurrences.
func (t *Tracker) RecordError(ctx context.Context, message string) {
	if message == "" {
		return
	}

	ev, err := t.errors.FindOpenError(ctx, message)
	if err != nil {
		zap.L().Warn("tracker: error lookup failed", zap.Error(err))
		return
	}
	if ev != nil {
		if err := t.errors.IncrementError(ctx, ev.ID); err != nil {
			zap.L().Warn("tracker: error increment failed",
				zap.String("event_id", ev.ID), zap.Error(err))
		}
		return
	}
	if _, err := t.errors.CreateError(ctx, message); err != nil {
		zap.L().Warn("tracker: error create failed", zap.Error(err))
	}
}

// Flush writes all buffered records to the operation log. On failure
// the batch is put back at the front of the buffer for the next
// attempt, still subject to the buffer cap.
func (t *Tracker) Flush(ctx context.Context) {
	t.mu.Lock()
	if len(t.buf) == 0 {
		t.mu.Unlock()
		return
	}
	batch := t.buf
	t.buf = make([]model.OperationRecord, 0, cap(batch))
	t.mu.Unlock()

	if err := t.ops.AppendOperations(ctx, batch); err != nil {
		zap.L().Error("tracker: flush failed",
			zap.Int("records", len(batch)), zap.Error(err))
		t.mu.Lock()
		t.buf = append(batch, t.buf...)
		dropped := t.enforceCapLocked()
		t.mu.Unlock()
		if dropped > 0 {
			zap.L().Warn("tracker: buffer full, dropped oldest records",
				zap.Int("dropped", dropped), zap.Int("capacity", t.maxBuf))
		}
		return
	}
	zap.L().Debug("tracker: flushed operations", zap.Int("records", len(batch)))
}

// Pending reports how many records are waiting in the buffer.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// Close stops the scheduler and flushes whatever is still buffered.
func (t *Tracker) Close(ctx context.Context) {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
	t.Flush(ctx)
}
