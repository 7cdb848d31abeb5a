package patterns

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	"github.com/gin-gonic/gin"
)

// ErrBulkheadFull is returned when no slot frees up within the wait time
var ErrBulkheadFull = errors.New("bulkhead full")

// Bulkhead implements the bulkhead pattern for resource isolation
type Bulkhead struct {
	semaphore chan struct{}
	wait      time.Duration
	name      string
	service   string
}

// NewBulkhead creates a new bulkhead with specified capacity
func NewBulkhead(size int, name, service string) *Bulkhead {
	if size <= 0 {
		size = 1
	}
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		wait:      BulkheadWait,
		name:      name,
		service:   service,
	}
}

// Execute runs a function within the bulkhead's resource limits
func (b *Bulkhead) Execute(fn func() error) error {
	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()

		return fn()

	case <-time.After(b.wait):
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("bulkhead %s: %w", b.name, ErrBulkheadFull)
	}
}

// Middleware limits the number of in-flight requests through the group it guards
func (b *Bulkhead) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := b.Execute(func() error {
			c.Next()
			return nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		}
	}
}
