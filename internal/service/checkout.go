package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutState is a step of the checkout state machine
type CheckoutState string

const (
	CheckoutScan       CheckoutState = "scan"
	CheckoutProcessing CheckoutState = "processing"
	CheckoutSuccess    CheckoutState = "success"
)

// Routes the client is sent to around checkout
const (
	LoginRoute         = "/login"
	AccountOrdersRoute = "/profile"
)

var (
	ErrLoginRequired     = errors.New("login required to checkout")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNoCheckout        = errors.New("no checkout in progress")
	ErrCheckoutLocked    = errors.New("checkout is processing and cannot be cancelled")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrCheckoutBusy      = errors.New("checkout already being confirmed")
)

// OrderNotifier emits the order-placed side effect
type OrderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, order *models.Order) error
}

// OrderMirror copies placed orders to the backend
type OrderMirror interface {
	SaveOrder(ctx context.Context, order *models.Order) error
}

// Locker guards a session against concurrent confirmation
type Locker interface {
	AcquireLock(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey, token string) error
}

// Checkout is one session's pass through scan → processing → success
type Checkout struct {
	ID        string        `json:"id"`
	SessionID string        `json:"-"`
	State     CheckoutState `json:"state"`
	User      models.User   `json:"user"`
	Summary   CartSummary   `json:"summary"`
	Order     *models.Order `json:"order,omitempty"`
	StartedAt time.Time     `json:"started_at"`

	updatedAt time.Time
}

// CheckoutFlow turns session carts into ledger orders
type CheckoutFlow struct {
	carts        *CartRegistry
	ledger       *OrderLedger
	notifier     OrderNotifier
	mirror       OrderMirror
	locker       Locker
	lockTTL      time.Duration
	delay        time.Duration
	deliveryDays int
	sleep        func(time.Duration)
	now          func() time.Time
	logger       *zap.Logger

	mu     sync.Mutex
	active map[string]*Checkout
}

// CheckoutOption customises a CheckoutFlow
type CheckoutOption func(*CheckoutFlow)

// WithClock replaces time.Now
func WithClock(now func() time.Time) CheckoutOption {
	return func(f *CheckoutFlow) { f.now = now }
}

// WithSleep replaces the simulated payment delay
func WithSleep(sleep func(time.Duration)) CheckoutOption {
	return func(f *CheckoutFlow) { f.sleep = sleep }
}

// WithMirror mirrors placed orders into the backend
func WithMirror(mirror OrderMirror) CheckoutOption {
	return func(f *CheckoutFlow) { f.mirror = mirror }
}

// WithLocker makes concurrent confirms of the same session fail fast with
// ErrCheckoutBusy instead of queueing behind the one in flight
func WithLocker(locker Locker, ttl time.Duration) CheckoutOption {
	return func(f *CheckoutFlow) {
		f.locker = locker
		f.lockTTL = ttl
	}
}

// NewCheckoutFlow creates a checkout flow. notifier may be nil.
func NewCheckoutFlow(carts *CartRegistry, ledger *OrderLedger, notifier OrderNotifier,
	delay time.Duration, deliveryDays int, opts ...CheckoutOption) *CheckoutFlow {
	f := &CheckoutFlow{
		carts:        carts,
		ledger:       ledger,
		notifier:     notifier,
		delay:        delay,
		deliveryDays: deliveryDays,
		sleep:        time.Sleep,
		now:          time.Now,
		logger:       util.GetLogger(),
		active:       make(map[string]*Checkout),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Begin opens the scan step for a signed-in user with a non-empty cart
func (f *CheckoutFlow) Begin(ctx context.Context, sessionID string, user *models.User) (Checkout, error) {
	_, span := util.StartSpan(ctx, "CheckoutFlow.Begin")
	defer span.End()

	if user == nil {
		util.CheckoutFailedTotal.WithLabelValues("login_required").Inc()
		return Checkout{}, ErrLoginRequired
	}

	items := f.carts.Items(sessionID)
	if len(items) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return Checkout{}, ErrEmptyCart
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.active[sessionID]; ok && existing.State == CheckoutProcessing {
		return Checkout{}, ErrCheckoutLocked
	}

	co := &Checkout{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		State:     CheckoutScan,
		User:      *user,
		Summary:   Summarize(items),
		StartedAt: f.now(),
	}
	co.updatedAt = co.StartedAt
	f.active[sessionID] = co

	f.logger.Info("Checkout started",
		zap.String("checkout_id", co.ID),
		zap.String("user_id", user.ID),
		zap.String("total", co.Summary.Total.String()))
	return *co, nil
}

// Confirm moves scan → processing, waits out the simulated payment, places
// the order and ends in success. The wait is not cut short by ctx.
func (f *CheckoutFlow) Confirm(ctx context.Context, sessionID string) (Checkout, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutFlow.Confirm")
	defer span.End()

	if f.locker != nil {
		token := uuid.New().String()
		ok, err := f.locker.AcquireLock(ctx, "checkout:"+sessionID, token, f.lockTTL)
		if err != nil {
			f.logger.Warn("Checkout lock unavailable, continuing with local guard", zap.Error(err))
		} else if !ok {
			return Checkout{}, ErrCheckoutBusy
		} else {
			defer func() {
				if err := f.locker.ReleaseLock(context.WithoutCancel(ctx), "checkout:"+sessionID, token); err != nil {
					f.logger.Warn("Failed to release checkout lock", zap.Error(err))
				}
			}()
		}
	}

	co, err := f.transition(sessionID, CheckoutScan, CheckoutProcessing)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("invalid_transition").Inc()
		return Checkout{}, err
	}

	start := time.Now()
	f.sleep(f.delay)

	order, err := f.placeOrder(context.WithoutCancel(ctx), co)
	util.CheckoutProcessingLatency.Observe(time.Since(start).Seconds())

	f.mu.Lock()
	defer f.mu.Unlock()
	co.updatedAt = f.now()
	if err != nil {
		co.State = CheckoutScan
		span.RecordError(err)
		return *co, err
	}
	co.Summary = Summarize(order.Items)
	co.Order = &order
	co.State = CheckoutSuccess
	return *co, nil
}

func (f *CheckoutFlow) placeOrder(ctx context.Context, co *Checkout) (models.Order, error) {
	items := f.carts.Items(co.SessionID)
	if len(items) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return models.Order{}, ErrEmptyCart
	}

	summary := Summarize(items)
	date := f.now()
	order, err := f.ledger.AddOrder(models.Order{
		UserID:        co.User.ID,
		CustomerName:  co.User.FullName,
		CustomerEmail: co.User.Email,
		CustomerPhone: co.User.Phone,
		Items:         items,
		Total:         summary.Total,
		Status:        models.OrderStatusPending,
		Date:          date,
		DeliveryDate:  date.AddDate(0, 0, f.deliveryDays),
		PaymentMethod: models.PaymentMethodUPI,
	})
	if err != nil && !errors.Is(err, ErrLedgerPersist) {
		util.CheckoutFailedTotal.WithLabelValues("ledger").Inc()
		return models.Order{}, err
	}

	if f.notifier != nil {
		if err := f.notifier.NotifyOrderPlaced(ctx, &order); err != nil {
			f.logger.Error("Failed to publish order notification",
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
	if f.mirror != nil {
		if err := f.mirror.SaveOrder(ctx, &order); err != nil {
			f.logger.Error("Failed to mirror order to backend",
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}

	f.carts.Clear(co.SessionID)
	util.OrdersPlacedTotal.Inc()
	f.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", order.Total.String()))
	return order, nil
}

// Cancel abandons a checkout that is still at the scan step
func (f *CheckoutFlow) Cancel(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	co, ok := f.active[sessionID]
	if !ok {
		return ErrNoCheckout
	}
	if co.State != CheckoutScan {
		return ErrCheckoutLocked
	}
	delete(f.active, sessionID)
	return nil
}

// Close finishes a successful checkout and returns where to navigate next
func (f *CheckoutFlow) Close(sessionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	co, ok := f.active[sessionID]
	if !ok {
		return "", ErrNoCheckout
	}
	if co.State != CheckoutSuccess {
		return "", ErrInvalidTransition
	}
	delete(f.active, sessionID)
	return AccountOrdersRoute, nil
}

// State returns the session's current checkout
func (f *CheckoutFlow) State(sessionID string) (Checkout, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	co, ok := f.active[sessionID]
	if !ok {
		return Checkout{}, false
	}
	return *co, true
}

// EvictIdle drops scan and success checkouts untouched since cutoff.
// Processing checkouts are kept until Confirm returns.
func (f *CheckoutFlow) EvictIdle(cutoff time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	evicted := 0
	for id, co := range f.active {
		if co.State != CheckoutProcessing && co.updatedAt.Before(cutoff) {
			delete(f.active, id)
			evicted++
		}
	}
	return evicted
}

func (f *CheckoutFlow) transition(sessionID string, from, to CheckoutState) (*Checkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	co, ok := f.active[sessionID]
	if !ok {
		return nil, ErrNoCheckout
	}
	if co.State != from {
		return nil, ErrInvalidTransition
	}
	co.State = to
	return co, nil
}
