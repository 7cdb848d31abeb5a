// Package client is a typed HTTP client for the tab service. Calls go
// through a circuit breaker that only counts transport errors and 5xx replies.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/api"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/patterns"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reports"
	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx reply from the service
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("tab service returned status %d: %s (field %s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("tab service returned status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Client talks to one tab service instance
type Client struct {
	http    *resty.Client
	circuit *patterns.CircuitBreakerWrapper
}

// New creates a client. Zero values fall back to patterns.DefaultTimeout and five failures.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = patterns.DefaultTimeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json").
			SetRetryCount(0), // the circuit breaker decides
		circuit: patterns.NewCircuitBreaker("TabService", "tab-client", patterns.BreakerSettings{
			MaxFailures: cfg.MaxFailures,
			OpenTimeout: cfg.OpenTimeout,
		}),
	}
}

// CircuitState reports the breaker state (closed, open, half-open)
func (c *Client) CircuitState() string {
	return c.circuit.GetState()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var clientErr *APIError

	err := c.circuit.Run(func() error {
		var errBody api.ErrorResponse
		req := c.http.R().SetContext(ctx).SetError(&errBody)
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("HTTP error: %w", err)
		}
		if !resp.IsError() {
			return nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: errBody.Error, Field: errBody.Field}
		if apiErr.Message == "" {
			apiErr.Message = resp.String()
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return apiErr
		}
		clientErr = apiErr
		return nil
	})
	if err != nil {
		return err
	}
	if clientErr != nil {
		return clientErr
	}
	return nil
}

// Health pings /health
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// OpenOrder opens an order for customerName
func (c *Client) OpenOrder(ctx context.Context, customerName string) (models.CreateOrderResponse, error) {
	var out models.CreateOrderResponse
	err := c.do(ctx, http.MethodPost, "/orders", models.CreateOrderRequest{CustomerName: customerName}, &out)
	return out, err
}

// Order fetches one order
func (c *Client) Order(ctx context.Context, orderID string) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &out)
	return out, err
}

// SelectOrder makes orderID current and returns whatever is current afterwards
func (c *Client) SelectOrder(ctx context.Context, orderID string) (string, error) {
	var out struct {
		CurrentOrderID string `json:"current_order_id"`
	}
	err := c.do(ctx, http.MethodPost, "/orders/"+orderID+"/select", nil, &out)
	return out.CurrentOrderID, err
}

// CurrentOrder fetches the current order
func (c *Client) CurrentOrder(ctx context.Context) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodGet, "/current-order", nil, &out)
	return out, err
}

// CurrentSummary fetches total and item count of the current order
func (c *Client) CurrentSummary(ctx context.Context) (models.OrderSummary, error) {
	var out models.OrderSummary
	err := c.do(ctx, http.MethodGet, "/current-order/summary", nil, &out)
	return out, err
}

// AddItem adds quantity of item to the current order
func (c *Client) AddItem(ctx context.Context, item models.MenuItem, quantity int) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodPost, "/current-order/items", models.AddItemRequest{Item: item, Quantity: quantity}, &out)
	return out, err
}

// ConfirmItems confirms every line of the current order
func (c *Client) ConfirmItems(ctx context.Context) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodPost, "/current-order/confirm", nil, &out)
	return out, err
}

// CloseOrder closes the current order
func (c *Client) CloseOrder(ctx context.Context, req models.CloseOrderRequest) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodPost, "/current-order/close", req, &out)
	return out, err
}

// MarkAsPaid settles a closed order
func (c *Client) MarkAsPaid(ctx context.Context, orderID string, method models.PaymentMethod) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodPost, "/orders/"+orderID+"/pay", models.MarkPaidRequest{PaymentMethod: method}, &out)
	return out, err
}

// CreateReservation books a table and opens its order
func (c *Client) CreateReservation(ctx context.Context, details models.ReservationDetails) (models.CreateReservationResponse, error) {
	var out models.CreateReservationResponse
	err := c.do(ctx, http.MethodPost, "/reservations", details, &out)
	return out, err
}

// Reservation fetches one reservation
func (c *Client) Reservation(ctx context.Context, id string) (models.Reservation, error) {
	var out models.Reservation
	err := c.do(ctx, http.MethodGet, "/reservations/"+id, nil, &out)
	return out, err
}

// CheckReservations runs the expiration check and returns how many expired
func (c *Client) CheckReservations(ctx context.Context) (int, error) {
	var out struct {
		Expired int `json:"expired"`
	}
	err := c.do(ctx, http.MethodPost, "/reservations/check", nil, &out)
	return out.Expired, err
}

// SalesToday fetches today's sales report
func (c *Client) SalesToday(ctx context.Context) (reports.DailySales, error) {
	var out reports.DailySales
	err := c.do(ctx, http.MethodGet, "/reports/sales-today", nil, &out)
	return out, err
}

// BestSellers fetches the top limit items
func (c *Client) BestSellers(ctx context.Context, limit int) ([]reports.BestSeller, error) {
	var out []reports.BestSeller
	err := c.do(ctx, http.MethodGet, "/reports/best-sellers?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}
