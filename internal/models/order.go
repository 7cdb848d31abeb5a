package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order (tab)
type OrderStatus string

// OrderStatus constants
const (
	OrderStatusOpen   OrderStatus = "open"
	OrderStatusClosed OrderStatus = "closed"
	OrderStatusPaid   OrderStatus = "paid"
)

// OrderItem is one line of an order. Lines with the same ID merge only
// while both are unconfirmed.
type OrderItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	UnitPrice   string   `json:"unit_price"`
	Description string   `json:"description"`
	ImageRef    string   `json:"image_ref,omitempty"`
	Quantity    int      `json:"quantity"`
	Category    Category `json:"category"`
	Confirmed   bool     `json:"confirmed"`
}

// Order represents a customer tab
type Order struct {
	ID             string          `json:"id"`
	SequenceNumber int             `json:"sequence_number"`
	CustomerName   string          `json:"customer_name"`
	Items          []OrderItem     `json:"items"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  PaymentMethod   `json:"payment_method,omitempty"`
	OpenedAt       time.Time       `json:"opened_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Notes          string          `json:"notes,omitempty"`
}

// Clone returns a deep copy safe to hand out of a store.
func (o *Order) Clone() Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	if c.Items == nil {
		c.Items = []OrderItem{}
	}
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		c.ClosedAt = &t
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return c
}

// SettledAt is the moment a paid order counts as sold: paidAt, falling back to closedAt.
func (o *Order) SettledAt() (time.Time, bool) {
	if o.PaidAt != nil {
		return *o.PaidAt, true
	}
	if o.ClosedAt != nil {
		return *o.ClosedAt, true
	}
	return time.Time{}, false
}

// CreateOrderRequest represents the request to open a new order
type CreateOrderRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
}

// CreateOrderResponse represents the response after opening an order
type CreateOrderResponse struct {
	OrderID        string `json:"order_id"`
	SequenceNumber int    `json:"sequence_number"`
}

// AddItemRequest adds a menu item to the current order
type AddItemRequest struct {
	Item     MenuItem `json:"item" binding:"required"`
	Quantity int      `json:"quantity" binding:"omitempty,gt=0"`
}

// UpdateQuantityRequest sets the quantity of an unconfirmed line.
// Quantity is required; zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// OrderSummary is the aggregate a UI shows for one order
type OrderSummary struct {
	OrderID        string          `json:"order_id,omitempty"`
	Total          decimal.Decimal `json:"total"`
	FormattedTotal string          `json:"formatted_total"`
	ItemCount      int             `json:"item_count"`
}
