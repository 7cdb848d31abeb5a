package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/patterns"
	log "github.com/sirupsen/logrus"
)

// PersistenceError reports a failed snapshot read or write
type PersistenceError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Options tunes a Snapshotter
type Options struct {
	// MaxFailures is the number of consecutive failed writes after which the
	// snapshotter stops persisting for the rest of the process
	MaxFailures uint32
	// Timeout bounds a single backend call
	Timeout time.Duration
	Logger  *log.Entry
}

// Snapshotter loads and saves one collection of T under a single key.
// Loading never fails: a missing or corrupt snapshot yields an empty
// collection. Once writes keep failing it degrades to in-memory operation.
type Snapshotter[T any] struct {
	backend  Backend
	key      string
	timeout  time.Duration
	breaker  *patterns.CircuitBreakerWrapper
	degraded atomic.Bool
	log      *log.Entry
}

// New creates a snapshotter for key on backend
func New[T any](backend Backend, key string, opts Options) *Snapshotter[T] {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "snapshot")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = patterns.DefaultTimeout
	}

	s := &Snapshotter[T]{
		backend: backend,
		key:     key,
		timeout: opts.Timeout,
		log:     logger.WithField("key", key),
	}
	s.breaker = patterns.NewCircuitBreaker("snapshot:"+key, "tab-service", patterns.BreakerSettings{
		MaxFailures: opts.MaxFailures,
		OnOpen:      s.degrade,
	})
	metrics.SnapshotDegraded.WithLabelValues(key).Set(0)
	return s
}

// Key returns the namespaced key this snapshotter writes to
func (s *Snapshotter[T]) Key() string {
	return s.key
}

// Degraded reports whether persistence was abandoned for this process
func (s *Snapshotter[T]) Degraded() bool {
	return s.degraded.Load()
}

func (s *Snapshotter[T]) degrade() {
	if s.degraded.CompareAndSwap(false, true) {
		metrics.SnapshotDegraded.WithLabelValues(s.key).Set(1)
		s.log.Warn("Snapshot writes keep failing, continuing in memory only")
	}
}

// Load returns the stored collection, or an empty one when the snapshot is
// missing, unreadable or corrupt.
func (s *Snapshotter[T]) Load(ctx context.Context) []T {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.log.Info("No snapshot found, starting empty")
		return []T{}
	}
	if err != nil {
		s.log.WithError(&PersistenceError{Key: s.key, Op: "read", Err: err}).Error("Failed to read snapshot, starting empty")
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.WithError(&PersistenceError{Key: s.key, Op: "decode", Err: err}).Error("Corrupt snapshot, starting empty")
		return []T{}
	}
	if items == nil {
		items = []T{}
	}

	s.log.WithField("count", len(items)).Info("Snapshot loaded")
	return items
}

// Save replaces the stored collection. Once degraded it is a no-op.
func (s *Snapshotter[T]) Save(ctx context.Context, items []T) error {
	if s.Degraded() {
		metrics.SnapshotWrites.WithLabelValues(s.key, "skipped").Inc()
		return nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues(s.key, "error").Inc()
		return &PersistenceError{Key: s.key, Op: "encode", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.breaker.Run(func() error {
		return s.backend.Save(ctx, s.key, data)
	})
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues(s.key, "error").Inc()
		return &PersistenceError{Key: s.key, Op: "write", Err: err}
	}

	metrics.SnapshotWrites.WithLabelValues(s.key, "ok").Inc()
	return nil
}
