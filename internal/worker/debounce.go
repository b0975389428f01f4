// Package worker holds the background scheduling helpers shared by the
// stateful components.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FlushFunc writes pending state
type FlushFunc func(ctx context.Context) error

// Debouncer is a dirty flag plus a scheduled flush. Every Mark restarts the
// quiet period; Flush writes synchronously.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	dirty bool

	// runMu serialises flush executions
	runMu sync.Mutex
	fn    FlushFunc

	name   string
	logger *slog.Logger
}

// NewDebouncer creates a debouncer that calls fn after delay of inactivity
func NewDebouncer(name string, delay time.Duration, fn FlushFunc, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{name: name, delay: delay, fn: fn, logger: logger}
}

// Mark flags pending state and restarts the quiet period
func (d *Debouncer) Mark() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if err := d.Flush(context.Background()); err != nil {
			d.logger.Error("debounced_flush_failed", "name", d.name, "err", err)
		}
	})
}

// Dirty reports whether a write is pending
func (d *Debouncer) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Flush cancels the scheduled write and runs it now if anything is pending.
// A failed write leaves the state dirty for the next Mark or Flush.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if !d.dirty {
		d.mu.Unlock()
		return nil
	}
	d.dirty = false
	d.mu.Unlock()

	if err := d.fn(ctx); err != nil {
		d.mu.Lock()
		d.dirty = true
		d.mu.Unlock()
		return err
	}
	return nil
}

// Cancel drops the pending write without running it. A flush already in
// progress is waited for, so no write started before Cancel outlives it.
func (d *Debouncer) Cancel() {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.dirty = false
}
