// Package orders owns the order (tab) collection and its state machine:
// open, add/remove/update/confirm items, close and pay.
package orders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const unknownCustomer = "Unknown customer"

// Persister loads and saves the whole order collection
type Persister interface {
	Load(ctx context.Context) []models.Order
	Save(ctx context.Context, orders []models.Order) error
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone that defines "today" for sales queries
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithLogger sets the logger entry
func WithLogger(l *log.Entry) Option {
	return func(s *Store) { s.log = l }
}

// Store manages orders. Every mutating call holds one mutex for the whole
// collection: sequence allocation and line merging are read-modify-write.
type Store struct {
	mu        sync.Mutex
	orders    []*models.Order
	byID      map[string]*models.Order
	currentID string
	persister Persister
	now       func() time.Time
	loc       *time.Location
	log       *log.Entry

	subsMu      sync.Mutex
	subscribers []func()
}

// NewStore loads the persisted collection. A nil persister keeps orders in memory only.
func NewStore(persister Persister, opts ...Option) *Store {
	s := &Store{
		byID:      make(map[string]*models.Order),
		persister: persister,
		now:       time.Now,
		loc:       time.Local,
		log:       log.WithField("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if persister != nil {
		for _, o := range persister.Load(context.Background()) {
			o := o
			if strings.TrimSpace(o.CustomerName) == "" {
				o.CustomerName = unknownCustomer
			}
			if o.Items == nil {
				o.Items = []models.OrderItem{}
			}
			recalculate(&o)
			s.orders = append(s.orders, &o)
			s.byID[o.ID] = &o
			if s.currentID == "" && o.Status == models.OrderStatusOpen {
				s.currentID = o.ID
			}
		}
	}

	s.log.WithFields(log.Fields{
		"orders":     len(s.orders),
		"current_id": s.currentID,
	}).Info("Order store ready")
	return s
}

// Subscribe registers fn to run after every successful mutation. fn runs
// outside the store lock and may call back into the store.
func (s *Store) Subscribe(fn func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify() {
	s.subsMu.Lock()
	subs := append([]func(){}, s.subscribers...)
	s.subsMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// mutate runs fn under the lock, persists on success and notifies subscribers.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	if err == nil {
		s.persistLocked()
	}
	s.mu.Unlock()

	if err == nil {
		s.notify()
	}
	return err
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	snapshot := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		snapshot = append(snapshot, o.Clone())
	}
	if err := s.persister.Save(context.Background(), snapshot); err != nil {
		s.log.WithError(err).Error("Failed to persist orders")
	}
}

func recalculate(o *models.Order) {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(pricing.LineTotal(item.UnitPrice, item.Quantity))
	}
	o.Total = total
}

func (s *Store) nextSequenceLocked() int {
	highest := 0
	for _, o := range s.orders {
		if o.SequenceNumber > highest {
			highest = o.SequenceNumber
		}
	}
	return highest + 1
}

// currentLocked returns the current open order or ErrNoActiveOrder, logged.
func (s *Store) currentLocked(op string) (*models.Order, error) {
	if o, ok := s.byID[s.currentID]; ok && o.Status == models.OrderStatusOpen {
		return o, nil
	}
	metrics.OrderRejections.WithLabelValues(op, "no_active_order").Inc()
	s.log.WithField("operation", op).Warn("No active order, open or select one first")
	return nil, ErrNoActiveOrder
}

// Open creates a new open order for customerName and makes it current.
func (s *Store) Open(customerName string) (string, error) {
	if err := ValidateCustomerName(customerName); err != nil {
		metrics.OrderRejections.WithLabelValues("open", "validation").Inc()
		return "", err
	}

	var id string
	err := s.mutate(func() error {
		o := &models.Order{
			ID:             uuid.New().String(),
			SequenceNumber: s.nextSequenceLocked(),
			CustomerName:   strings.TrimSpace(customerName),
			Items:          []models.OrderItem{},
			Status:         models.OrderStatusOpen,
			OpenedAt:       s.now(),
			Total:          decimal.Zero,
		}
		s.orders = append(s.orders, o)
		s.byID[o.ID] = o
		s.currentID = o.ID
		id = o.ID

		metrics.OrderTransitions.WithLabelValues(string(models.OrderStatusOpen)).Inc()
		s.log.WithFields(log.Fields{
			"order_id":        o.ID,
			"sequence_number": o.SequenceNumber,
		}).Info("Order opened")
		return nil
	})
	return id, err
}

// Select makes orderID current if it is open. Anything else is silently ignored.
func (s *Store) Select(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.byID[orderID]; ok && o.Status == models.OrderStatusOpen {
		s.currentID = orderID
		return
	}
	s.log.WithField("order_id", orderID).Debug("Ignoring selection of non-open order")
}

// AddItem adds quantity of item to the current order, merging into an
// unconfirmed line with the same id when there is one.
func (s *Store) AddItem(item models.MenuItem, quantity int) error {
	if err := validateItem(item, quantity); err != nil {
		metrics.OrderRejections.WithLabelValues("add_item", "validation").Inc()
		return err
	}

	return s.mutate(func() error {
		o, err := s.currentLocked("add_item")
		if err != nil {
			return err
		}

		merged := false
		for i := range o.Items {
			if o.Items[i].ID == item.ID && !o.Items[i].Confirmed {
				o.Items[i].Quantity += quantity
				merged = true
				break
			}
		}
		if !merged {
			o.Items = append(o.Items, models.OrderItem{
				ID:          item.ID,
				Name:        item.Name,
				UnitPrice:   item.Price,
				Description: item.Description,
				ImageRef:    item.ImageRef,
				Quantity:    quantity,
				Category:    item.Category,
			})
		}
		recalculate(o)

		s.log.WithFields(log.Fields{
			"order_id": o.ID,
			"item_id":  item.ID,
			"quantity": quantity,
			"merged":   merged,
		}).Debug("Item added")
		return nil
	})
}

func validateItem(item models.MenuItem, quantity int) error {
	if strings.TrimSpace(item.ID) == "" {
		return &ValidationError{Field: "item.id", Message: "item id is required"}
	}
	if quantity < 1 {
		return &ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}
	if !item.Category.Valid() {
		return &ValidationError{Field: "item.category", Message: fmt.Sprintf("unknown category %q", item.Category)}
	}
	if _, err := pricing.ParsePrice(item.Price); err != nil {
		return &ValidationError{Field: "item.price", Message: err.Error()}
	}
	return nil
}

// RemoveItem deletes the unconfirmed line with itemID. Confirmed lines are
// never touched; no matching line is a no-op.
func (s *Store) RemoveItem(itemID string) error {
	return s.mutate(func() error {
		o, err := s.currentLocked("remove_item")
		if err != nil {
			return err
		}
		removeUnconfirmed(o, itemID)
		return nil
	})
}

func removeUnconfirmed(o *models.Order, itemID string) {
	kept := o.Items[:0]
	for _, item := range o.Items {
		if item.ID == itemID && !item.Confirmed {
			continue
		}
		kept = append(kept, item)
	}
	o.Items = kept
	recalculate(o)
}

// UpdateQuantity sets the quantity of the unconfirmed line with itemID.
// A quantity of zero or less removes the line.
func (s *Store) UpdateQuantity(itemID string, quantity int) error {
	return s.mutate(func() error {
		o, err := s.currentLocked("update_quantity")
		if err != nil {
			return err
		}
		if quantity <= 0 {
			removeUnconfirmed(o, itemID)
			return nil
		}
		for i := range o.Items {
			if o.Items[i].ID == itemID && !o.Items[i].Confirmed {
				o.Items[i].Quantity = quantity
			}
		}
		recalculate(o)
		return nil
	})
}

func confirmAll(o *models.Order) {
	for i := range o.Items {
		o.Items[i].Confirmed = true
	}
	recalculate(o)
}

// ConfirmItems marks every line of the current order confirmed. There is no way back.
func (s *Store) ConfirmItems() error {
	return s.mutate(func() error {
		o, err := s.currentLocked("confirm_items")
		if err != nil {
			return err
		}
		confirmAll(o)
		s.log.WithFields(log.Fields{
			"order_id": o.ID,
			"lines":    len(o.Items),
		}).Info("Items confirmed")
		return nil
	})
}

func validatePaymentMethod(method models.PaymentMethod) error {
	if method == "" {
		return &ValidationError{Field: "payment_method", Message: "payment method is required"}
	}
	if !method.Valid() {
		return &ValidationError{Field: "payment_method", Message: fmt.Sprintf("unknown payment method %q", method)}
	}
	return nil
}

// Close confirms every remaining line of the current order and closes it,
// returning the closed order's id. With alreadyPaid the order goes straight
// to Paid; otherwise it waits in Closed for MarkAsPaid. No order is current afterwards.
func (s *Store) Close(method models.PaymentMethod, notes string, alreadyPaid bool) (string, error) {
	var closedID string
	err := s.mutate(func() error {
		o, err := s.currentLocked("close")
		if err != nil {
			return err
		}
		if err := validatePaymentMethod(method); err != nil {
			metrics.OrderRejections.WithLabelValues("close", "validation").Inc()
			return err
		}

		confirmAll(o)
		now := s.now()
		o.ClosedAt = &now
		o.PaymentMethod = method
		o.Notes = notes
		if alreadyPaid {
			paid := now
			o.PaidAt = &paid
			o.Status = models.OrderStatusPaid
			metrics.OrderAmount.Observe(o.Total.InexactFloat64())
		} else {
			o.Status = models.OrderStatusClosed
		}
		s.currentID = ""

		metrics.OrderTransitions.WithLabelValues(string(o.Status)).Inc()
		s.log.WithFields(log.Fields{
			"order_id":       o.ID,
			"status":         o.Status,
			"payment_method": method,
			"total":          o.Total.StringFixed(2),
		}).Info("Order closed")
		closedID = o.ID
		return nil
	})
	return closedID, err
}

// MarkAsPaid settles a closed order.
func (s *Store) MarkAsPaid(orderID string, method models.PaymentMethod) error {
	if err := validatePaymentMethod(method); err != nil {
		metrics.OrderRejections.WithLabelValues("mark_paid", "validation").Inc()
		return err
	}

	return s.mutate(func() error {
		o, ok := s.byID[orderID]
		if !ok {
			return ErrOrderNotFound
		}
		if o.Status != models.OrderStatusClosed {
			metrics.OrderRejections.WithLabelValues("mark_paid", "invalid_transition").Inc()
			return fmt.Errorf("%w: order %d is %s", ErrInvalidTransition, o.SequenceNumber, o.Status)
		}

		now := s.now()
		o.PaidAt = &now
		o.Status = models.OrderStatusPaid
		o.PaymentMethod = method

		metrics.OrderTransitions.WithLabelValues(string(models.OrderStatusPaid)).Inc()
		metrics.OrderAmount.Observe(o.Total.InexactFloat64())
		s.log.WithFields(log.Fields{
			"order_id":       o.ID,
			"payment_method": method,
		}).Info("Order marked as paid")
		return nil
	})
}
