package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	saves int
}

func (b *failingBackend) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk unavailable")
}

func (b *failingBackend) Save(context.Context, string, []byte) error {
	b.saves++
	return errors.New("disk full")
}

func sampleOrders() []models.Order {
	opened := time.Date(2026, 10, 18, 19, 4, 5, 123_000_000, time.UTC)
	closed := opened.Add(47 * time.Minute)
	return []models.Order{
		{
			ID:             "o-1",
			SequenceNumber: 1,
			CustomerName:   "Ana Silva",
			Items: []models.OrderItem{
				{ID: "coffee", Name: "Coffee", UnitPrice: "1.20€", Quantity: 2, Category: models.CategoryDrink, Confirmed: true},
				{ID: "tart", Name: "Custard tart", UnitPrice: "1,50€", Description: "warm", ImageRef: "tart.png", Quantity: 1, Category: models.CategoryDessert},
			},
			Status:        models.OrderStatusPaid,
			PaymentMethod: models.PaymentMethodCard,
			OpenedAt:      opened,
			ClosedAt:      &closed,
			PaidAt:        &closed,
			Total:         decimal.RequireFromString("3.90"),
			Notes:         "table 4",
		},
		{
			ID:             "o-2",
			SequenceNumber: 2,
			CustomerName:   "Rui Costa",
			Items:          []models.OrderItem{},
			Status:         models.OrderStatusOpen,
			OpenedAt:       opened.Add(time.Hour),
			Total:          decimal.Zero,
		},
	}
}

func assertOrdersEqual(t *testing.T, want, got []models.Order) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.SequenceNumber, g.SequenceNumber)
		assert.Equal(t, w.CustomerName, g.CustomerName)
		assert.Equal(t, w.Items, g.Items)
		assert.Equal(t, w.Status, g.Status)
		assert.Equal(t, w.PaymentMethod, g.PaymentMethod)
		assert.Equal(t, w.Notes, g.Notes)
		assert.True(t, w.Total.Equal(g.Total), "total %s vs %s", w.Total, g.Total)
		assert.True(t, w.OpenedAt.Equal(g.OpenedAt))
		if w.ClosedAt == nil {
			assert.Nil(t, g.ClosedAt)
		} else {
			require.NotNil(t, g.ClosedAt)
			assert.True(t, w.ClosedAt.Equal(*g.ClosedAt))
		}
		if w.PaidAt == nil {
			assert.Nil(t, g.PaidAt)
		} else {
			require.NotNil(t, g.PaidAt)
			assert.True(t, w.PaidAt.Equal(*g.PaidAt))
		}
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "tabs:orders", Key("tabs", "orders"))
	assert.Equal(t, "orders", Key("", "orders"))
}

func TestFileBackendRoundTripOrders(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	s := New[models.Order](backend, "tabs:orders", Options{})
	want := sampleOrders()
	require.NoError(t, s.Save(context.Background(), want))

	got := New[models.Order](backend, "tabs:orders", Options{}).Load(context.Background())
	assertOrdersEqual(t, want, got)
}

func TestRoundTripReservations(t *testing.T) {
	backend := NewMemoryBackend()
	s := New[models.Reservation](backend, "tabs:reservations", Options{})

	created := time.Date(2026, 10, 18, 12, 0, 0, 456_000_000, time.UTC)
	want := []models.Reservation{{
		ID:                "r-1",
		CustomerName:      "Ana Silva",
		Email:             "ana@example.pt",
		Phone:             "+351 912345678",
		ReservedDate:      time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		ReservedTime:      "19:00",
		PartySize:         4,
		TableType:         models.TableTypeTerrace,
		LinkedOrderID:     "o-1",
		Status:            models.ReservationStatusConfirmed,
		RequestedProducts: []string{"voucher-50"},
		CreatedAt:         created,
	}}
	require.NoError(t, s.Save(context.Background(), want))

	got := s.Load(context.Background())
	require.Len(t, got, 1)
	assert.True(t, want[0].CreatedAt.Equal(got[0].CreatedAt))
	assert.True(t, want[0].ReservedDate.Equal(got[0].ReservedDate))
	got[0].CreatedAt, got[0].ReservedDate = want[0].CreatedAt, want[0].ReservedDate
	assert.Equal(t, want, got)
}

func TestLoadMissingSnapshotIsEmpty(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	got := New[models.Order](backend, "tabs:orders", Options{}).Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadCorruptSnapshotIsEmpty(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tabs_orders.json"), []byte("{not json"), 0o644))

	got := New[models.Order](backend, "tabs:orders", Options{}).Load(context.Background())
	assert.Empty(t, got)
}

func TestLoadUnreadableBackendIsEmpty(t *testing.T) {
	got := New[models.Order](&failingBackend{}, "tabs:orders", Options{}).Load(context.Background())
	assert.Empty(t, got)
}

func TestSaveFailureDegradesToMemory(t *testing.T) {
	backend := &failingBackend{}
	s := New[models.Order](backend, "tabs:degraded", Options{MaxFailures: 2})

	err := s.Save(context.Background(), sampleOrders())
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "write", perr.Op)
	assert.False(t, s.Degraded())

	require.Error(t, s.Save(context.Background(), sampleOrders()))
	assert.True(t, s.Degraded())

	assert.NoError(t, s.Save(context.Background(), sampleOrders()))
	assert.Equal(t, 2, backend.saves)
}

func TestRedisBackendRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := New[models.Order](NewRedisBackend(rdb), "tabs:orders", Options{})
	assert.Empty(t, s.Load(context.Background()))

	want := sampleOrders()
	require.NoError(t, s.Save(context.Background(), want))
	assert.True(t, mr.Exists("tabs:orders"))

	assertOrdersEqual(t, want, s.Load(context.Background()))
}
