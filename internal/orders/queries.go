package orders

import (
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/pricing"
	"github.com/shopspring/decimal"
)

// resolveLocked finds orderID, or the current order when orderID is empty.
func (s *Store) resolveLocked(orderID string) (*models.Order, bool) {
	if orderID == "" {
		orderID = s.currentID
	}
	if orderID == "" {
		return nil, false
	}
	o, ok := s.byID[orderID]
	return o, ok
}

// CurrentID returns the id of the current order, or "" when there is none
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Current returns a copy of the current order
func (s *Store) Current() (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.resolveLocked("")
	if !ok {
		return models.Order{}, false
	}
	return o.Clone(), true
}

// Order returns a copy of orderID
func (s *Store) Order(orderID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[orderID]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Orders returns a copy of the whole collection in creation order
func (s *Store) Orders() []models.Order {
	return s.filter(func(*models.Order) bool { return true })
}

func (s *Store) filter(keep func(*models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (s *Store) byStatus(status models.OrderStatus) []models.Order {
	return s.filter(func(o *models.Order) bool { return o.Status == status })
}

// OpenOrders lists orders still taking items
func (s *Store) OpenOrders() []models.Order {
	return s.byStatus(models.OrderStatusOpen)
}

// ClosedUnpaidOrders lists orders closed and awaiting payment
func (s *Store) ClosedUnpaidOrders() []models.Order {
	return s.byStatus(models.OrderStatusClosed)
}

// PaidOrders lists settled orders
func (s *Store) PaidOrders() []models.Order {
	return s.byStatus(models.OrderStatusPaid)
}

// TotalOf returns the total of orderID (current order when empty), zero when there is none.
func (s *Store) TotalOf(orderID string) decimal.Decimal {
	return s.Summary(orderID).Total
}

// FormattedTotalOf renders TotalOf, or "-" when there is no such order.
func (s *Store) FormattedTotalOf(orderID string) string {
	return s.Summary(orderID).FormattedTotal
}

// ItemCountOf sums line quantities of orderID (current order when empty).
func (s *Store) ItemCountOf(orderID string) int {
	return s.Summary(orderID).ItemCount
}

// Summary bundles total, formatted total and item count for one order
// (current order when orderID is empty).
func (s *Store) Summary(orderID string) models.OrderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.resolveLocked(orderID)
	if !ok {
		return models.OrderSummary{Total: decimal.Zero, FormattedTotal: "-"}
	}
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return models.OrderSummary{
		OrderID:        o.ID,
		Total:          o.Total,
		FormattedTotal: pricing.FormatPrice(o.Total),
		ItemCount:      count,
	}
}

// HasItems reports whether orderID has at least one line, confirmed or not.
func (s *Store) HasItems(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[orderID]
	return ok && len(o.Items) > 0
}

// SalesToday lists paid orders settled since local midnight.
func (s *Store) SalesToday() []models.Order {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return s.filter(func(o *models.Order) bool {
		if o.Status != models.OrderStatusPaid {
			return false
		}
		at, ok := o.SettledAt()
		return ok && !at.Before(midnight)
	})
}

// TotalSalesToday sums the totals of SalesToday.
func (s *Store) TotalSalesToday() decimal.Decimal {
	total := decimal.Zero
	for _, o := range s.SalesToday() {
		total = total.Add(o.Total)
	}
	return total
}
