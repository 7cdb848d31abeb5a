package reservations

import (
	"context"
	"sync"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
)

// DefaultCheckInterval is how often reservations are checked for expiry
const DefaultCheckInterval = 60 * time.Second

// Watchdog runs a check on a fixed interval and whenever it is kicked.
// Kicks that arrive while a check is pending coalesce into one run.
type Watchdog struct {
	interval time.Duration
	check    func()
	kick     chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatchdog creates a stopped watchdog
func NewWatchdog(interval time.Duration, check func()) *Watchdog {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Watchdog{
		interval: interval,
		check:    check,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the background loop. Calling Start on a running watchdog does nothing.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
}

func (w *Watchdog) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.WatchdogRuns.WithLabelValues("tick").Inc()
			w.check()
		case <-w.kick:
			metrics.WatchdogRuns.WithLabelValues("kick").Inc()
			w.check()
		}
	}
}

// Kick requests an extra check without waiting for it
func (w *Watchdog) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Running reports whether the loop is active
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Stop cancels the loop and waits for an in-flight check to finish.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
