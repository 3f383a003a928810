package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var checkoutNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type checkoutFixture struct {
	flow     *CheckoutFlow
	carts    *CartRegistry
	ledger   *OrderLedger
	notifier *recordingNotifier
	slept    []time.Duration
}

func newCheckoutFixture(t *testing.T, opts ...CheckoutOption) *checkoutFixture {
	t.Helper()
	ledger, err := NewOrderLedger(NewMemoryLedgerStorage(), SeedOrders(), WithIDSource(sequenceSource(1234)))
	require.NoError(t, err)

	fx := &checkoutFixture{
		carts:    NewCartRegistry(),
		ledger:   ledger,
		notifier: &recordingNotifier{},
	}
	base := []CheckoutOption{
		WithClock(func() time.Time { return checkoutNow }),
		WithSleep(func(d time.Duration) { fx.slept = append(fx.slept, d) }),
	}
	fx.flow = NewCheckoutFlow(fx.carts, ledger, fx.notifier, 2*time.Second, 3, append(base, opts...)...)
	return fx
}

func customer() *models.User {
	return &models.User{ID: "user-1", Email: "priya@example.com", FullName: "Priya Nair", Phone: "9000000001"}
}

func TestBeginRequiresLogin(t *testing.T) {
	fx := newCheckoutFixture(t)
	fx.carts.Get("s1").Add(testProduct("p1", "RO Filter", "Water Filters", "1000"))

	_, err := fx.flow.Begin(context.Background(), "s1", nil)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, 1, fx.carts.Get("s1").Len())
	_, active := fx.flow.State("s1")
	assert.False(t, active)
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	fx := newCheckoutFixture(t)

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutPlacesOrder(t *testing.T) {
	fx := newCheckoutFixture(t)
	cart := fx.carts.Get("s1")
	cart.Add(testProduct("p1", "RO Filter", "Water Filters", "1000"))
	cart.Add(testProduct("p1", "RO Filter", "Water Filters", "1000"))

	co, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	assert.Equal(t, CheckoutScan, co.State)
	assert.Equal(t, "2360.00", co.Summary.Total.String())

	co, err = fx.flow.Confirm(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, CheckoutSuccess, co.State)
	assert.Equal(t, []time.Duration{2 * time.Second}, fx.slept)

	require.NotNil(t, co.Order)
	order := co.Order
	assert.Equal(t, "ORD-1234", order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, "Priya Nair", order.CustomerName)
	assert.Equal(t, "priya@example.com", order.CustomerEmail)
	assert.Equal(t, "9000000001", order.CustomerPhone)
	assert.Equal(t, "2360.00", order.Total.String())
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentMethodUPI, order.PaymentMethod)
	assert.True(t, order.Date.Equal(checkoutNow))
	assert.True(t, order.DeliveryDate.Equal(checkoutNow.AddDate(0, 0, 3)))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, "ORD-1234", fx.ledger.Orders()[0].ID)
	assert.Equal(t, []string{"ORD-1234"}, fx.notifier.placed)

	next, err := fx.flow.Close("s1")
	require.NoError(t, err)
	assert.Equal(t, AccountOrdersRoute, next)
	_, active := fx.flow.State("s1")
	assert.False(t, active)
}

func TestCheckoutNotificationFailureIsNotFatal(t *testing.T) {
	fx := newCheckoutFixture(t)
	fx.notifier.err = errors.New("broker down")
	fx.carts.Get("s1").Add(testProduct("p1", "RO Filter", "Water Filters", "10"))

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	co, err := fx.flow.Confirm(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, CheckoutSuccess, co.State)
	assert.Len(t, fx.ledger.Orders(), 2)
}

func TestCheckoutSnapshotsCartAfterDelay(t *testing.T) {
	fx := newCheckoutFixture(t)
	cart := fx.carts.Get("s1")
	cart.Add(testProduct("p1", "RO Filter", "Water Filters", "10"))
	fx.flow.sleep = func(time.Duration) {
		cart.Add(testProduct("p2", "Panel", "Solar Panels", "20"))
	}

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	co, err := fx.flow.Confirm(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, co.Order.Items, 2)
	assert.Equal(t, "35.40", co.Order.Total.String())
	assert.Equal(t, co.Order.Total.String(), co.Summary.Total.String())
	assert.Equal(t, 2, co.Summary.ItemCount)
}

func TestCheckoutCartEmptiedDuringDelay(t *testing.T) {
	fx := newCheckoutFixture(t)
	cart := fx.carts.Get("s1")
	cart.Add(testProduct("p1", "RO Filter", "Water Filters", "10"))
	fx.flow.sleep = func(time.Duration) { cart.Clear() }

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	co, err := fx.flow.Confirm(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, CheckoutScan, co.State)
	assert.Len(t, fx.ledger.Orders(), 1)
}

func TestCheckoutCannotCancelWhileProcessing(t *testing.T) {
	fx := newCheckoutFixture(t)
	fx.carts.Get("s1").Add(testProduct("p1", "RO Filter", "Water Filters", "10"))

	release := make(chan struct{})
	fx.flow.sleep = func(time.Duration) { <-release }

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var confirmErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, confirmErr = fx.flow.Confirm(ctx, "s1")
	}()

	require.Eventually(t, func() bool {
		co, ok := fx.flow.State("s1")
		return ok && co.State == CheckoutProcessing
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, fx.flow.Cancel("s1"), ErrCheckoutLocked)
	_, err = fx.flow.Confirm(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = fx.flow.Begin(context.Background(), "s1", customer())
	assert.ErrorIs(t, err, ErrCheckoutLocked)

	cancel()
	close(release)
	wg.Wait()

	require.NoError(t, confirmErr)
	co, _ := fx.flow.State("s1")
	assert.Equal(t, CheckoutSuccess, co.State)
}

func TestCheckoutCancelFromScan(t *testing.T) {
	fx := newCheckoutFixture(t)
	fx.carts.Get("s1").Add(testProduct("p1", "RO Filter", "Water Filters", "10"))

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	require.NoError(t, fx.flow.Cancel("s1"))

	assert.Equal(t, 1, fx.carts.Get("s1").Len())
	assert.ErrorIs(t, fx.flow.Cancel("s1"), ErrNoCheckout)
	_, err = fx.flow.Confirm(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoCheckout)
}

func TestCheckoutCloseOnlyFromSuccess(t *testing.T) {
	fx := newCheckoutFixture(t)
	fx.carts.Get("s1").Add(testProduct("p1", "RO Filter", "Water Filters", "10"))

	_, err := fx.flow.Close("s1")
	assert.ErrorIs(t, err, ErrNoCheckout)

	_, err = fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	_, err = fx.flow.Close("s1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

type fakeLocker struct {
	held     map[string]string
	released []string
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if _, ok := f.held[key]; ok {
		return false, nil
	}
	f.held[key] = token
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, key, token string) error {
	if f.held[key] == token {
		delete(f.held, key)
		f.released = append(f.released, key)
	}
	return nil
}

func TestCheckoutLockHeldByConcurrentConfirm(t *testing.T) {
	locker := &fakeLocker{held: map[string]string{"checkout:s1": "concurrent-confirm"}}
	fx := newCheckoutFixture(t, WithLocker(locker, time.Minute))
	fx.carts.Get("s1").Add(testProduct("p1", "RO Filter", "Water Filters", "10"))

	_, err := fx.flow.Begin(context.Background(), "s1", customer())
	require.NoError(t, err)
	_, err = fx.flow.Confirm(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrCheckoutBusy)

	delete(locker.held, "checkout:s1")
	_, err = fx.flow.Confirm(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"checkout:s1"}, locker.released)
}

func TestCheckoutPricesSingleItemWithGST(t *testing.T) {
	tests := []struct {
		name  string
		price string
		qty   int
		total string
	}{
		{name: "purifier", price: "14999", qty: 1, total: "17698.82"},
		{name: "two filters", price: "1000", qty: 2, total: "2360.00"},
		{name: "spare part", price: "0.50", qty: 3, total: "1.77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newCheckoutFixture(t)
			cart := fx.carts.Get("s1")
			p := testProduct("p1", tt.name, "Water Filters", tt.price)
			for i := 0; i < tt.qty; i++ {
				cart.Add(p)
			}

			_, err := fx.flow.Begin(context.Background(), "s1", customer())
			require.NoError(t, err)
			co, err := fx.flow.Confirm(context.Background(), "s1")
			require.NoError(t, err)

			require.NotNil(t, co.Order)
			assert.Equal(t, tt.total, co.Order.Total.String())
			assert.Equal(t, tt.total, co.Summary.Total.String())
			assert.Equal(t, models.OrderStatusPending, co.Order.Status)
			assert.True(t, co.Order.DeliveryDate.Equal(co.Order.Date.AddDate(0, 0, 3)))
			assert.Equal(t, co.Order.ID, fx.ledger.Orders()[0].ID)
		})
	}
}

func TestCheckoutEvictIdle(t *testing.T) {
	now := checkoutNow
	fx := newCheckoutFixture(t)
	fx.flow.now = func() time.Time { return now }

	for _, s := range []string{"scan", "done", "busy"} {
		fx.carts.Get(s).Add(testProduct("p1", "RO Filter", "Water Filters", "10"))
		_, err := fx.flow.Begin(context.Background(), s, customer())
		require.NoError(t, err)
	}
	_, err := fx.flow.Confirm(context.Background(), "done")
	require.NoError(t, err)

	release := make(chan struct{})
	fx.flow.sleep = func(time.Duration) { <-release }
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = fx.flow.Confirm(context.Background(), "busy")
	}()
	require.Eventually(t, func() bool {
		co, ok := fx.flow.State("busy")
		return ok && co.State == CheckoutProcessing
	}, time.Second, time.Millisecond)

	assert.Equal(t, 0, fx.flow.EvictIdle(checkoutNow.Add(-time.Minute)))
	assert.Equal(t, 2, fx.flow.EvictIdle(checkoutNow.Add(time.Minute)))

	_, ok := fx.flow.State("scan")
	assert.False(t, ok)
	_, ok = fx.flow.State("done")
	assert.False(t, ok)
	co, ok := fx.flow.State("busy")
	require.True(t, ok)
	assert.Equal(t, CheckoutProcessing, co.State)

	close(release)
	wg.Wait()
}
