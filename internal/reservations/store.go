// Package reservations owns table reservations. Each reservation opens its
// own order and expires when nobody consumed anything within the grace
// period after the reserved time.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/orders"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultGracePeriod is how long after the reserved time an unused reservation survives
const DefaultGracePeriod = 30 * time.Minute

// ErrReservationNotFound is returned when a reservation id is unknown
var ErrReservationNotFound = errors.New("reservation not found")

// OrderBook is the part of the order store reservations depend on
type OrderBook interface {
	Open(customerName string) (string, error)
	HasItems(orderID string) bool
}

// Persister loads and saves the whole reservation collection
type Persister interface {
	Load(ctx context.Context) []models.Reservation
	Save(ctx context.Context, reservations []models.Reservation) error
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone reserved times are expressed in
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithGracePeriod overrides DefaultGracePeriod
func WithGracePeriod(d time.Duration) Option {
	return func(s *Store) { s.grace = d }
}

// WithCheckInterval overrides DefaultCheckInterval
func WithCheckInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

// WithLogger sets the logger entry
func WithLogger(l *log.Entry) Option {
	return func(s *Store) { s.log = l }
}

// Store manages reservations and owns the expiration watchdog.
type Store struct {
	mu           sync.Mutex
	reservations []*models.Reservation
	byID         map[string]*models.Reservation
	orders       OrderBook
	persister    Persister
	now          func() time.Time
	loc          *time.Location
	grace        time.Duration
	interval     time.Duration
	log          *log.Entry
	watchdog     *Watchdog
}

// NewStore loads the persisted collection. Call Start to run the watchdog
// and Stop when the store goes away.
func NewStore(orderBook OrderBook, persister Persister, opts ...Option) *Store {
	s := &Store{
		byID:      make(map[string]*models.Reservation),
		orders:    orderBook,
		persister: persister,
		now:       time.Now,
		loc:       time.Local,
		grace:     DefaultGracePeriod,
		interval:  DefaultCheckInterval,
		log:       log.WithField("component", "reservations"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.watchdog = NewWatchdog(s.interval, func() { s.CheckTimeouts() })

	if persister != nil {
		for _, r := range persister.Load(context.Background()) {
			r := r
			s.reservations = append(s.reservations, &r)
			s.byID[r.ID] = &r
		}
	}

	s.log.WithField("reservations", len(s.reservations)).Info("Reservation store ready")
	return s
}

// Start runs the expiration watchdog in the background
func (s *Store) Start() {
	s.watchdog.Start()
	s.watchdog.Kick()
	s.log.WithField("interval", s.interval.String()).Info("Reservation watchdog started")
}

// Stop halts the watchdog and waits for it to exit
func (s *Store) Stop() {
	s.watchdog.Stop()
	s.log.Info("Reservation watchdog stopped")
}

// Kick asks the watchdog for an extra check, e.g. after orders changed
func (s *Store) Kick() {
	s.watchdog.Kick()
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	snapshot := make([]models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		snapshot = append(snapshot, r.Clone())
	}
	if err := s.persister.Save(context.Background(), snapshot); err != nil {
		s.log.WithError(err).Error("Failed to persist reservations")
	}
}

// Create opens a linked order for the customer and records the reservation
// as confirmed. Field validation beyond the customer name is the caller's job.
func (s *Store) Create(details models.ReservationDetails) (string, error) {
	name := strings.TrimSpace(details.CustomerName)
	if name == "" {
		return "", &orders.ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if details.ReservedDate.IsZero() {
		return "", &orders.ValidationError{Field: "reserved_date", Message: "reserved date is required"}
	}

	s.mu.Lock()
	orderID, err := s.orders.Open(name)
	if err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("open linked order: %w", err)
	}

	r := &models.Reservation{
		ID:                uuid.New().String(),
		CustomerName:      name,
		Email:             details.Email,
		Phone:             details.Phone,
		ReservedDate:      models.CalendarDate(details.ReservedDate),
		ReservedTime:      details.ReservedTime,
		PartySize:         details.PartySize,
		TableType:         details.TableType,
		LinkedOrderID:     orderID,
		Status:            models.ReservationStatusPending,
		Notes:             details.Notes,
		RequestedProducts: append([]string(nil), details.RequestedProducts...),
		RequestedServices: append([]string(nil), details.RequestedServices...),
		CreatedAt:         s.now(),
	}
	if r.PartySize <= 0 {
		r.PartySize = 2
	}
	if r.TableType == "" {
		r.TableType = models.TableTypeStandard
	}
	r.Status = models.ReservationStatusConfirmed

	s.reservations = append(s.reservations, r)
	s.byID[r.ID] = r
	s.persistLocked()
	s.mu.Unlock()

	metrics.ReservationTransitions.WithLabelValues(string(r.Status)).Inc()
	s.log.WithFields(log.Fields{
		"reservation_id": r.ID,
		"order_id":       orderID,
		"reserved_date":  r.ReservedDate.Format(time.DateOnly),
		"reserved_time":  r.ReservedTime,
		"party_size":     r.PartySize,
	}).Info("Reservation created")

	s.watchdog.Kick()
	return r.ID, nil
}

// Cancel moves a reservation to cancelled
func (s *Store) Cancel(id string) error {
	return s.transition(id, models.ReservationStatusCancelled)
}

// Confirm moves a reservation to confirmed
func (s *Store) Confirm(id string) error {
	return s.transition(id, models.ReservationStatusConfirmed)
}

func (s *Store) transition(id string, to models.ReservationStatus) error {
	s.mu.Lock()
	r, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrReservationNotFound
	}
	if r.Status == to {
		s.mu.Unlock()
		return nil
	}
	from := r.Status
	r.Status = to
	s.persistLocked()
	s.mu.Unlock()

	metrics.ReservationTransitions.WithLabelValues(string(to)).Inc()
	s.log.WithFields(log.Fields{
		"reservation_id": id,
		"from":           from,
		"to":             to,
	}).Info("Reservation status changed")

	s.watchdog.Kick()
	return nil
}

// scheduledMoment combines the reserved calendar date with the "HH:MM" time in the store's zone.
func (s *Store) scheduledMoment(r *models.Reservation) (time.Time, error) {
	clock, err := time.Parse("15:04", strings.TrimSpace(r.ReservedTime))
	if err != nil {
		return time.Time{}, fmt.Errorf("reserved time %q: %w", r.ReservedTime, err)
	}
	y, m, d := r.ReservedDate.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, s.loc), nil
}

// CheckTimeouts expires every pending or confirmed reservation whose
// reserved time passed more than the grace period ago and whose order has
// no items. The linked order is left untouched. It returns how many expired.
func (s *Store) CheckTimeouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for _, r := range s.reservations {
		if !r.Active() {
			continue
		}
		scheduled, err := s.scheduledMoment(r)
		if err != nil {
			s.log.WithError(err).WithField("reservation_id", r.ID).Warn("Skipping reservation with unreadable time")
			continue
		}
		if now.Sub(scheduled) <= s.grace {
			continue
		}
		if s.orders.HasItems(r.LinkedOrderID) {
			continue
		}

		r.Status = models.ReservationStatusExpired
		expired++
		metrics.ReservationTransitions.WithLabelValues(string(models.ReservationStatusExpired)).Inc()
		s.log.WithFields(log.Fields{
			"reservation_id": r.ID,
			"order_id":       r.LinkedOrderID,
			"scheduled":      scheduled.Format(time.RFC3339),
		}).Info("Reservation expired without consumption")
	}

	if expired > 0 {
		s.persistLocked()
	}
	return expired
}

// Reservation returns a copy of id
func (s *Store) Reservation(id string) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return models.Reservation{}, ErrReservationNotFound
	}
	return r.Clone(), nil
}

// Reservations returns a copy of the whole collection in creation order
func (s *Store) Reservations() []models.Reservation {
	return s.filter(func(*models.Reservation) bool { return true })
}

// ByStatus lists reservations in status
func (s *Store) ByStatus(status models.ReservationStatus) []models.Reservation {
	return s.filter(func(r *models.Reservation) bool { return r.Status == status })
}

// PendingReservations lists reservations awaiting confirmation
func (s *Store) PendingReservations() []models.Reservation {
	return s.ByStatus(models.ReservationStatusPending)
}

// ConfirmedReservations lists confirmed reservations
func (s *Store) ConfirmedReservations() []models.Reservation {
	return s.ByStatus(models.ReservationStatusConfirmed)
}

func (s *Store) filter(keep func(*models.Reservation) bool) []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Reservation{}
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
