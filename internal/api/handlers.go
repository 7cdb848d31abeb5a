package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/orders"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reports"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reservations"
	"github.com/gin-gonic/gin"
)

// Handler exposes the stores over HTTP
type Handler struct {
	orders       *orders.Store
	reservations *reservations.Store
	reports      *reports.Service
}

// NewHandler creates a handler over the given stores
func NewHandler(orderStore *orders.Store, reservationStore *reservations.Store, reportService *reports.Service) *Handler {
	return &Handler{
		orders:       orderStore,
		reservations: reservationStore,
		reports:      reportService,
	}
}

// createOrder opens a new order and makes it current
func (h *Handler) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	id, err := h.orders.Open(req.CustomerName)
	if err != nil {
		respondError(c, err)
		return
	}
	o, err := h.orders.Order(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateOrderResponse{
		OrderID:        id,
		SequenceNumber: o.SequenceNumber,
	})
}

// listOrders lists orders, optionally filtered by ?status=
func (h *Handler) listOrders(c *gin.Context) {
	switch status := models.OrderStatus(c.Query("status")); status {
	case "":
		c.JSON(http.StatusOK, h.orders.Orders())
	case models.OrderStatusOpen:
		c.JSON(http.StatusOK, h.orders.OpenOrders())
	case models.OrderStatusClosed:
		c.JSON(http.StatusOK, h.orders.ClosedUnpaidOrders())
	case models.OrderStatusPaid:
		c.JSON(http.StatusOK, h.orders.PaidOrders())
	default:
		respondBadRequest(c, fmt.Errorf("unknown order status %q", status))
	}
}

func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.Order(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) getOrderSummary(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.orders.Order(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orders.Summary(id))
}

// selectOrder switches the current order. Unknown or settled ids are ignored,
// so the reply always carries whatever is current afterwards.
func (h *Handler) selectOrder(c *gin.Context) {
	h.orders.Select(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"current_order_id": h.orders.CurrentID()})
}

func (h *Handler) payOrder(c *gin.Context) {
	var req models.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	id := c.Param("id")
	if err := h.orders.MarkAsPaid(id, req.PaymentMethod); err != nil {
		respondError(c, err)
		return
	}
	h.respondOrder(c, id)
}

func (h *Handler) respondOrder(c *gin.Context, id string) {
	o, err := h.orders.Order(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) respondCurrent(c *gin.Context) {
	o, ok := h.orders.Current()
	if !ok {
		respondError(c, orders.ErrNoActiveOrder)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) getCurrentOrder(c *gin.Context) {
	h.respondCurrent(c)
}

// getCurrentSummary answers even without a current order, with a "-" total
func (h *Handler) getCurrentSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.Summary(""))
}

func (h *Handler) addItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.orders.AddItem(req.Item, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	h.respondCurrent(c)
}

func (h *Handler) updateItem(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.orders.UpdateQuantity(c.Param("itemId"), *req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	h.respondCurrent(c)
}

func (h *Handler) removeItem(c *gin.Context) {
	if err := h.orders.RemoveItem(c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	h.respondCurrent(c)
}

func (h *Handler) confirmItems(c *gin.Context) {
	if err := h.orders.ConfirmItems(); err != nil {
		respondError(c, err)
		return
	}
	h.respondCurrent(c)
}

// closeCurrentOrder settles the current order; it is no longer current afterwards
func (h *Handler) closeCurrentOrder(c *gin.Context) {
	var req models.CloseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	id, err := h.orders.Close(req.PaymentMethod, req.Notes, req.AlreadyPaid)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOrder(c, id)
}

func (h *Handler) createReservation(c *gin.Context) {
	var req models.ReservationDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	id, err := h.reservations.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.reservations.Reservation(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateReservationResponse{
		ReservationID: id,
		LinkedOrderID: r.LinkedOrderID,
	})
}

func (h *Handler) listReservations(c *gin.Context) {
	switch status := models.ReservationStatus(c.Query("status")); status {
	case "":
		c.JSON(http.StatusOK, h.reservations.Reservations())
	case models.ReservationStatusPending:
		c.JSON(http.StatusOK, h.reservations.PendingReservations())
	case models.ReservationStatusConfirmed:
		c.JSON(http.StatusOK, h.reservations.ConfirmedReservations())
	case models.ReservationStatusCancelled, models.ReservationStatusExpired:
		c.JSON(http.StatusOK, h.reservations.ByStatus(status))
	default:
		respondBadRequest(c, fmt.Errorf("unknown reservation status %q", status))
	}
}

func (h *Handler) getReservation(c *gin.Context) {
	r, err := h.reservations.Reservation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) cancelReservation(c *gin.Context) {
	h.transitionReservation(c, h.reservations.Cancel)
}

func (h *Handler) confirmReservation(c *gin.Context) {
	h.transitionReservation(c, h.reservations.Confirm)
}

func (h *Handler) transitionReservation(c *gin.Context, transition func(string) error) {
	id := c.Param("id")
	if err := transition(id); err != nil {
		respondError(c, err)
		return
	}
	r, err := h.reservations.Reservation(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// checkReservations runs the expiration check now instead of waiting for the watchdog
func (h *Handler) checkReservations(c *gin.Context) {
	metrics.WatchdogRuns.WithLabelValues("manual").Inc()
	c.JSON(http.StatusOK, gin.H{"expired": h.reservations.CheckTimeouts()})
}

func (h *Handler) salesToday(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.DailySales())
}

func (h *Handler) bestSellers(c *gin.Context) {
	limit := reports.DefaultBestSellersLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondBadRequest(c, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.reports.BestSellers(limit))
}

func (h *Handler) paymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.PaymentBreakdown())
}

func (h *Handler) paidRatio(c *gin.Context) {
	c.JSON(http.StatusOK, h.reports.PaidRatio())
}
