package patterns

import (
	"errors"
	"fmt"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSettings tunes a CircuitBreakerWrapper
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the circuit
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before a half-open probe
	OpenTimeout time.Duration
	// OnOpen is called every time the circuit opens
	OnOpen func()
}

// CircuitBreakerWrapper wraps gobreaker with metrics
type CircuitBreakerWrapper struct {
	*gobreaker.CircuitBreaker
	name    string
	service string
}

// NewCircuitBreaker creates a new circuit breaker with Prometheus metrics
func NewCircuitBreaker(name, service string, settings BreakerSettings) *CircuitBreakerWrapper {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(service, cbName).Set(float64(stateValue(to)))

			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("Circuit breaker state changed")

			if to == gobreaker.StateOpen && settings.OnOpen != nil {
				settings.OnOpen()
			}
		},
	})

	wrapper := &CircuitBreakerWrapper{
		CircuitBreaker: cb,
		name:           name,
		service:        service,
	}

	metrics.CircuitBreakerState.WithLabelValues(service, name).Set(0)

	return wrapper
}

// Run executes fn through the circuit breaker and records failures
func (cb *CircuitBreakerWrapper) Run(fn func() error) error {
	_, err := cb.CircuitBreaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.service, cb.name).Inc()
	}

	return FormatError(cb.name, err)
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreakerWrapper) GetState() string {
	return cb.State().String()
}

// GetStateValue returns numeric value for the state (0=closed, 1=open, 2=half-open)
func (cb *CircuitBreakerWrapper) GetStateValue() int {
	return stateValue(cb.State())
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}

// ErrCircuitOpen is returned by Run while the circuit rejects calls
var ErrCircuitOpen = errors.New("circuit breaker open")

// FormatError formats an error message with circuit breaker info
func FormatError(circuitName string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker %s: %w", circuitName, ErrCircuitOpen)
	}
	return err
}
