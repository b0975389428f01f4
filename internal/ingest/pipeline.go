// Package ingest quality-filters and throttles raw position fixes before they
// reach the region store.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/metrics"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/region"
)

// WarmupFactor relaxes the accuracy threshold until the first fix is accepted
const WarmupFactor = 2.0

// DefaultQueueSize is the ingest worker buffer
const DefaultQueueSize = 256

// RegionIngester is the downstream region store
type RegionIngester interface {
	Ingest(ctx context.Context, fix models.PositionFix) region.Outcome
}

// Status is the pipeline decision for one fix
type Status int

const (
	Processed Status = iota
	RejectedAccuracy
	Throttled
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case RejectedAccuracy:
		return "rejected_accuracy"
	case Throttled:
		return "throttled"
	default:
		return "unknown"
	}
}

// Outcome is returned by Submit. Region is only meaningful when Processed.
type Outcome struct {
	Status Status         `json:"-"`
	Region region.Outcome `json:"region"`
}

// Pipeline is the location ingest pipeline
type Pipeline struct {
	mu            sync.Mutex
	store         RegionIngester
	threshold     float64
	minInterval   time.Duration
	accepted      bool
	lastProcessed time.Time

	queue  chan models.PositionFix
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// stopped is set once the worker has exited; queueMu orders it with Enqueue
	queueMu sync.RWMutex
	stopped bool

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock overrides the wall clock used for throttling
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithQueueSize sets the worker buffer size
func WithQueueSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queue = make(chan models.PositionFix, n)
		}
	}
}

// NewPipeline creates an ingest pipeline in front of store
func NewPipeline(store RegionIngester, settings config.Exploration, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	settings.Normalize()
	p := &Pipeline{
		store:       store,
		threshold:   settings.AccuracyThresholdMeters,
		minInterval: settings.MinFixInterval,
		queue:       make(chan models.PositionFix, DefaultQueueSize),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ApplySettings updates the accuracy threshold and throttle interval
func (p *Pipeline) ApplySettings(settings config.Exploration) {
	settings.Normalize()
	p.mu.Lock()
	p.threshold = settings.AccuracyThresholdMeters
	p.minInterval = settings.MinFixInterval
	p.mu.Unlock()
}

// Submit filters the fix and hands it to the region store. Dropped fixes are
// outcomes, not errors.
func (p *Pipeline) Submit(ctx context.Context, fix models.PositionFix) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	threshold := p.threshold
	if !p.accepted {
		threshold *= WarmupFactor
	}
	if fix.Accuracy <= 0 || fix.Accuracy > threshold {
		metrics.FixesTotal.WithLabelValues(RejectedAccuracy.String()).Inc()
		p.logger.Debug("fix_rejected_accuracy", "accuracy", fix.Accuracy, "threshold", threshold)
		return Outcome{Status: RejectedAccuracy}
	}

	now := p.now()
	if p.accepted && now.Sub(p.lastProcessed) < p.minInterval {
		metrics.FixesTotal.WithLabelValues(Throttled.String()).Inc()
		return Outcome{Status: Throttled}
	}

	out := p.store.Ingest(ctx, fix)

	// Recorded only after the store returns
	p.accepted = true
	p.lastProcessed = p.now()
	metrics.FixesTotal.WithLabelValues(Processed.String()).Inc()
	return Outcome{Status: Processed, Region: out}
}

// Start runs the ingest worker until ctx is cancelled or Stop is called
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logger.Info("ingest_worker_started", "queue", cap(p.queue))
		for {
			select {
			case <-ctx.Done():
				p.markStopped()
				p.logger.Info("ingest_worker_stopped", "pending", len(p.queue))
				return
			case fix := <-p.queue:
				p.Submit(ctx, fix)
			}
		}
	}()
}

func (p *Pipeline) markStopped() {
	p.queueMu.Lock()
	p.stopped = true
	p.queueMu.Unlock()
}

// Enqueue hands the fix to the worker without blocking. A full queue drops it,
// and so does a worker that has stopped.
func (p *Pipeline) Enqueue(fix models.PositionFix) bool {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()
	if p.stopped {
		metrics.FixesDroppedTotal.Inc()
		p.logger.Warn("ingest_worker_stopped_fix_dropped")
		return false
	}
	select {
	case p.queue <- fix:
		return true
	default:
		metrics.FixesDroppedTotal.Inc()
		p.logger.Warn("ingest_queue_full", "capacity", cap(p.queue))
		return false
	}
}

// Pending returns the number of queued fixes
func (p *Pipeline) Pending() int {
	return len(p.queue)
}

// Stop cancels the worker and waits for it to exit
func (p *Pipeline) Stop() {
	p.markStopped()
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
