package core

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hsi_service/internal/domain/model"
	"hsi_service/internal/domain/repository"
)

// StatsHistory reads back recorded snapshots.
type StatsHistory interface {
	History(ctx context.Context, source string, year, month, limit int) ([]model.StatsSnapshot, error)
}

// HarbourSource finds harbours inside a bounding box.
type HarbourSource interface {
	GetHarbours(ctx context.Context, bounds model.Bounds) ([]model.Harbour, error)
}

// MultiRecorder hands a snapshot to every recorder. A failing recorder
// is logged and does not stop the others.
type MultiRecorder []repository.StatsRecorder

func (m MultiRecorder) Record(ctx context.Context, snapshot model.StatsSnapshot) error {
	for _, r := range m {
		if err := r.Record(ctx, snapshot); err != nil {
			log.Printf("[recorder] failed to record %s stats for %s: %v",
				snapshot.Source, model.YearMonth(snapshot.Year, snapshot.Month), err)
		}
	}
	return nil
}

// AsyncRecorder queues snapshots and writes them to next from a single
// background goroutine, each write bounded by timeout. Record never
// blocks: when the queue is full the snapshot is dropped and logged.
type AsyncRecorder struct {
	next    repository.StatsRecorder
	timeout time.Duration
	queue   chan model.StatsSnapshot
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncRecorder(next repository.StatsRecorder, queueSize int, timeout time.Duration) *AsyncRecorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &AsyncRecorder{
		next:    next,
		timeout: timeout,
		queue:   make(chan model.StatsSnapshot, queueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AsyncRecorder) Record(ctx context.Context, snapshot model.StatsSnapshot) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		log.Printf("[recorder] recorder closed, dropping %s stats for %s",
			snapshot.Source, model.YearMonth(snapshot.Year, snapshot.Month))
		return nil
	}

	select {
	case r.queue <- snapshot:
	default:
		log.Printf("[recorder] queue full, dropping %s stats for %s",
			snapshot.Source, model.YearMonth(snapshot.Year, snapshot.Month))
	}
	return nil
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for snapshot := range r.queue {
		r.write(snapshot)
	}
}

func (r *AsyncRecorder) write(snapshot model.StatsSnapshot) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.next.Record(ctx, snapshot); err != nil {
		log.Printf("[recorder] failed to record %s stats for %s: %v",
			snapshot.Source, model.YearMonth(snapshot.Year, snapshot.Month), err)
	}
}

// Close stops accepting snapshots and waits until the queued ones are
// written.
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

// NewSnapshot flattens successful month statistics. ok is false for an
// error entry, which is never recorded.
func NewSnapshot(source string, stats model.MonthStats) (model.StatsSnapshot, bool) {
	if !stats.OK() {
		return model.StatsSnapshot{}, false
	}
	s := stats.Statistics
	c := stats.Categories
	return model.StatsSnapshot{
		ID:          uuid.NewString(),
		Source:      source,
		Year:        stats.Year,
		Month:       stats.Month,
		Count:       s.Count,
		Min:         s.Min,
		Max:         s.Max,
		Mean:        s.Mean,
		Median:      s.Median,
		Std:         s.Std,
		Q25:         s.Q25,
		Q75:         s.Q75,
		HighCount:   c.High.Count,
		MediumCount: c.Medium.Count,
		LowCount:    c.Low.Count,
		RecordedAt:  time.Now().UTC(),
	}, true
}

func record(ctx context.Context, recorder repository.StatsRecorder, source string, stats model.MonthStats) {
	if recorder == nil {
		return
	}
	snapshot, ok := NewSnapshot(source, stats)
	if !ok {
		return
	}
	if err := recorder.Record(ctx, snapshot); err != nil {
		log.Printf("[recorder] failed to record %s stats for %s: %v", source, model.YearMonth(stats.Year, stats.Month), err)
	}
}
