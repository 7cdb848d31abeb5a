package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/api"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/orders"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/patterns"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reports"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/reservations"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orderStore := orders.NewStore(nil)
	reservationStore := reservations.NewStore(orderStore, nil)
	h := api.NewHandler(orderStore, reservationStore, reports.NewService(orderStore))

	srv := httptest.NewServer(api.NewRouter(h, api.RouterConfig{Service: "tab-service-test", MaxInFlight: 4}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientOrderFlow(t *testing.T) {
	srv := newService(t)
	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	created, err := c.OpenOrder(ctx, "Ana Sousa")
	require.NoError(t, err)
	assert.Equal(t, 1, created.SequenceNumber)

	_, err = c.AddItem(ctx, models.MenuItem{ID: "cod", Name: "Bacalhau", Price: "18.50€", Category: models.CategoryMain}, 2)
	require.NoError(t, err)
	confirmed, err := c.ConfirmItems(ctx)
	require.NoError(t, err)
	require.Len(t, confirmed.Items, 1)
	assert.True(t, confirmed.Items[0].Confirmed)

	summary, err := c.CurrentSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "37.00€", summary.FormattedTotal)

	closed, err := c.CloseOrder(ctx, models.CloseOrderRequest{PaymentMethod: models.PaymentMethodCash, AlreadyPaid: true})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, closed.Status)

	sales, err := c.SalesToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sales.Orders)

	best, err := c.BestSellers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, best, 1)
	assert.Equal(t, "Bacalhau", best[0].Name)
}

func TestClientReservation(t *testing.T) {
	srv := newService(t)
	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	created, err := c.CreateReservation(ctx, models.ReservationDetails{
		CustomerName: "Marta Reis",
		ReservedDate: time.Now().AddDate(0, 0, 1),
		ReservedTime: "20:00",
	})
	require.NoError(t, err)

	r, err := c.Reservation(ctx, created.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, r.Status)
	assert.Equal(t, created.LinkedOrderID, r.LinkedOrderID)

	expired, err := c.CheckReservations(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestClientErrorsDoNotTripCircuit(t *testing.T) {
	srv := newService(t)
	c := New(Config{BaseURL: srv.URL, MaxFailures: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.CurrentOrder(ctx)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	}

	_, err := c.OpenOrder(ctx, "Ana")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "customer_name", apiErr.Field)

	assert.Equal(t, "closed", c.CircuitState())
}

func TestClientServerErrorsOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MaxFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := c.Health(ctx)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}

	err := c.Health(ctx)
	assert.True(t, errors.Is(err, patterns.ErrCircuitOpen), "got %v", err)
	assert.Equal(t, "open", c.CircuitState())
}
