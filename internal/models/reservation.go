package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

// ReservationStatus constants
const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// TableType is the kind of table requested
type TableType string

// TableType constants
const (
	TableTypeStandard TableType = "standard"
	TableTypeWindow   TableType = "window"
	TableTypePrivate  TableType = "private"
	TableTypeTerrace  TableType = "terrace"
)

// Reservation is a time-boxed table booking. Every reservation owns exactly
// one order, opened when the reservation is created.
type Reservation struct {
	ID                string            `json:"id"`
	CustomerName      string            `json:"customer_name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	ReservedDate      time.Time         `json:"reserved_date"`
	ReservedTime      string            `json:"reserved_time"`
	PartySize         int               `json:"party_size"`
	TableType         TableType         `json:"table_type"`
	LinkedOrderID     string            `json:"linked_order_id"`
	Status            ReservationStatus `json:"status"`
	Notes             string            `json:"notes,omitempty"`
	RequestedProducts []string          `json:"requested_products,omitempty"`
	RequestedServices []string          `json:"requested_services,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Active reports whether the expiration watchdog still looks at r
func (r *Reservation) Active() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}

// Clone returns a deep copy safe to hand out of a store.
func (r *Reservation) Clone() Reservation {
	c := *r
	c.RequestedProducts = append([]string(nil), r.RequestedProducts...)
	c.RequestedServices = append([]string(nil), r.RequestedServices...)
	return c
}

// DateLayout is the calendar date format accepted for reserved_date
const DateLayout = "2006-01-02"

// ReservationDetails is what a caller supplies to create a reservation.
// reserved_date is a calendar date ("2026-10-18"); a full RFC3339 timestamp
// is also accepted and only its date part is kept.
type ReservationDetails struct {
	CustomerName      string    `json:"customer_name" binding:"required"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	ReservedDate      time.Time `json:"reserved_date" binding:"required"`
	ReservedTime      string    `json:"reserved_time" binding:"required"`
	PartySize         int       `json:"party_size"`
	TableType         TableType `json:"table_type"`
	Notes             string    `json:"notes,omitempty"`
	RequestedProducts []string  `json:"requested_products,omitempty"`
	RequestedServices []string  `json:"requested_services,omitempty"`
}

// CreateReservationResponse represents the response after creating a reservation
type CreateReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	LinkedOrderID string `json:"linked_order_id"`
}

// UnmarshalJSON accepts reserved_date as YYYY-MM-DD or RFC3339
func (d *ReservationDetails) UnmarshalJSON(data []byte) error {
	type plain ReservationDetails
	aux := struct {
		*plain
		ReservedDate string `json:"reserved_date"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	d.ReservedDate = time.Time{}
	if aux.ReservedDate == "" {
		return nil
	}
	date, err := ParseReservedDate(aux.ReservedDate)
	if err != nil {
		return err
	}
	d.ReservedDate = date
	return nil
}

// ParseReservedDate reads a calendar date or an RFC3339 timestamp and
// returns midnight UTC of the date as written.
func ParseReservedDate(text string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, text); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("reserved_date %q: want YYYY-MM-DD", text)
	}
	return CalendarDate(t), nil
}

// CalendarDate drops the clock and zone of t, keeping its Y/M/D at midnight UTC
func CalendarDate(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
