package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/models"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/orders"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Set(t time.Time) { c.t = t }

var dinnerDate = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 18, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	clock  *fakeClock
	orders *orders.Store
	store  *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: at(12, 0)}
	orderStore := orders.NewStore(nil, orders.WithClock(clock.Now), orders.WithLocation(time.UTC))
	store := NewStore(orderStore, nil, WithClock(clock.Now), WithLocation(time.UTC))
	return &fixture{clock: clock, orders: orderStore, store: store}
}

func (f *fixture) reserve(t *testing.T, reservedTime string) models.Reservation {
	t.Helper()
	id, err := f.store.Create(models.ReservationDetails{
		CustomerName: "Ana Sousa",
		Email:        "ana@example.pt",
		ReservedDate: dinnerDate,
		ReservedTime: reservedTime,
	})
	require.NoError(t, err)
	r, err := f.store.Reservation(id)
	require.NoError(t, err)
	return r
}

func TestCreateOpensLinkedOrder(t *testing.T) {
	f := newFixture(t)

	r := f.reserve(t, "19:00")

	assert.Equal(t, models.ReservationStatusConfirmed, r.Status)
	assert.Equal(t, 2, r.PartySize)
	assert.Equal(t, models.TableTypeStandard, r.TableType)
	require.NotEmpty(t, r.LinkedOrderID)

	o, err := f.orders.Order(r.LinkedOrderID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Sousa", o.CustomerName)
	assert.Equal(t, models.OrderStatusOpen, o.Status)
	assert.Equal(t, r.LinkedOrderID, f.orders.CurrentID())
}

func TestCreateRejectsBadNames(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Create(models.ReservationDetails{CustomerName: "  ", ReservedDate: dinnerDate, ReservedTime: "19:00"})
	var verr *orders.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.store.Create(models.ReservationDetails{CustomerName: "Ana", ReservedDate: dinnerDate, ReservedTime: "19:00"})
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, f.store.Reservations())
	assert.Empty(t, f.orders.Orders())
}

func TestUnusedReservationExpiresAfterGrace(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t, "19:00")

	f.clock.Set(at(19, 31))
	assert.Equal(t, 1, f.store.CheckTimeouts())

	got, err := f.store.Reservation(r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusExpired, got.Status)

	// the linked order is left open
	o, err := f.orders.Order(r.LinkedOrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, o.Status)

	assert.Zero(t, f.store.CheckTimeouts())
}

func TestReservationWithConsumptionSurvives(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t, "19:00")

	f.orders.Select(r.LinkedOrderID)
	require.NoError(t, f.orders.AddItem(models.MenuItem{ID: "wine", Name: "Vinho verde", Price: "12.00€", Category: models.CategoryDrink}, 1))

	f.clock.Set(at(19, 31))
	assert.Zero(t, f.store.CheckTimeouts())

	got, err := f.store.Reservation(r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, got.Status)
}

func TestGraceBoundary(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t, "19:00")

	for _, now := range []time.Time{at(18, 0), at(19, 0), at(19, 30)} {
		f.clock.Set(now)
		assert.Zero(t, f.store.CheckTimeouts(), "at %s", now.Format("15:04"))
	}

	got, _ := f.store.Reservation(r.ID)
	assert.Equal(t, models.ReservationStatusConfirmed, got.Status)
}

func TestCancelledReservationNeverExpires(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t, "19:00")

	require.NoError(t, f.store.Cancel(r.ID))
	require.NoError(t, f.store.Cancel(r.ID))

	f.clock.Set(at(23, 0))
	assert.Zero(t, f.store.CheckTimeouts())

	got, _ := f.store.Reservation(r.ID)
	assert.Equal(t, models.ReservationStatusCancelled, got.Status)
}

func TestUnreadableTimeIsSkipped(t *testing.T) {
	f := newFixture(t)
	bad := f.reserve(t, "tonight")
	good := f.reserve(t, "19:00")

	f.clock.Set(at(21, 0))
	assert.Equal(t, 1, f.store.CheckTimeouts())

	got, _ := f.store.Reservation(bad.ID)
	assert.Equal(t, models.ReservationStatusConfirmed, got.Status)
	got, _ = f.store.Reservation(good.ID)
	assert.Equal(t, models.ReservationStatusExpired, got.Status)
}

func TestTransitionsOnUnknownReservation(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.store.Cancel("missing"), ErrReservationNotFound)
	assert.ErrorIs(t, f.store.Confirm("missing"), ErrReservationNotFound)
	_, err := f.store.Reservation("missing")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestStatusQueries(t *testing.T) {
	f := newFixture(t)
	first := f.reserve(t, "19:00")
	second := f.reserve(t, "20:00")
	require.NoError(t, f.store.Cancel(second.ID))

	confirmed := f.store.ConfirmedReservations()
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)
	assert.Empty(t, f.store.PendingReservations())
	assert.Len(t, f.store.ByStatus(models.ReservationStatusCancelled), 1)
	assert.Len(t, f.store.Reservations(), 2)
}

func TestReservationsPersistAndRestore(t *testing.T) {
	clock := &fakeClock{t: at(12, 0)}
	backend := snapshot.NewMemoryBackend()
	key := snapshot.Key("test", "reservations")
	orderStore := orders.NewStore(nil, orders.WithClock(clock.Now))

	store := NewStore(orderStore, snapshot.New[models.Reservation](backend, key, snapshot.Options{}),
		WithClock(clock.Now), WithLocation(time.UTC))
	id, err := store.Create(models.ReservationDetails{
		CustomerName: "Rui Costa",
		ReservedDate: dinnerDate,
		ReservedTime: "20:30",
		PartySize:    4,
		TableType:    models.TableTypeTerrace,
	})
	require.NoError(t, err)

	restored := NewStore(orderStore, snapshot.New[models.Reservation](backend, key, snapshot.Options{}),
		WithClock(clock.Now), WithLocation(time.UTC))
	r, err := restored.Reservation(id)
	require.NoError(t, err)
	assert.Equal(t, 4, r.PartySize)
	assert.Equal(t, models.TableTypeTerrace, r.TableType)
	assert.Equal(t, "20:30", r.ReservedTime)
	assert.True(t, dinnerDate.Equal(r.ReservedDate))

	raw, err := backend.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, string(raw), id)
}

func TestOrderChangesKickWatchdog(t *testing.T) {
	f := newFixture(t)
	f.store = NewStore(f.orders, nil, WithClock(f.clock.Now), WithLocation(time.UTC), WithCheckInterval(time.Hour))
	f.orders.Subscribe(f.store.Kick)

	r := f.reserve(t, "19:00")
	f.clock.Set(at(19, 45))

	f.store.Start()
	defer f.store.Stop()

	f.orders.Select(r.LinkedOrderID)

	assert.Eventually(t, func() bool {
		got, err := f.store.Reservation(r.ID)
		return err == nil && got.Status == models.ReservationStatusExpired
	}, time.Second, 10*time.Millisecond)
}

func TestCreateKeepsCalendarDate(t *testing.T) {
	f := newFixture(t)
	lateWest := time.Date(2026, 10, 18, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

	id, err := f.store.Create(models.ReservationDetails{
		CustomerName: "Ana Sousa",
		ReservedDate: lateWest,
		ReservedTime: "19:00",
	})
	require.NoError(t, err)

	r, err := f.store.Reservation(id)
	require.NoError(t, err)
	assert.True(t, dinnerDate.Equal(r.ReservedDate), "got %s", r.ReservedDate)

	_, err = f.store.Create(models.ReservationDetails{CustomerName: "Ana Sousa", ReservedTime: "19:00"})
	var verr *orders.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reserved_date", verr.Field)
}
