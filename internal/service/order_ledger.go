package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const (
	orderIDSpace    = 10000
	orderIDAttempts = 64
)

var (
	ErrOrderIDsExhausted = errors.New("no free order identifier")
	ErrLedgerPersist     = errors.New("order ledger not persisted")
)

// SeedOrders is the fixture the ledger starts from when storage is empty
func SeedOrders() []models.Order {
	return []models.Order{
		{
			ID:            "ORD-001",
			UserID:        "mock-user-1",
			CustomerName:  "Amit Sharma",
			CustomerEmail: "amit@example.com",
			CustomerPhone: "9876543210",
			Items:         []models.CartItem{},
			Total:         models.MustMoney("14999"),
			Status:        models.OrderStatusDelivered,
			Date:          time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC),
			DeliveryDate:  time.Date(2023, 10, 18, 0, 0, 0, 0, time.UTC),
			PaymentMethod: models.PaymentMethodUPI,
		},
	}
}

// LedgerStats are derived from the ledger on every read
type LedgerStats struct {
	Revenue        models.Money `json:"revenue"`
	TotalOrders    int          `json:"total_orders"`
	ActiveOrders   int          `json:"active_orders"`
	TotalCustomers int          `json:"total_customers"`
}

// OrderLedger is the durable, most-recent-first list of placed orders
type OrderLedger struct {
	storage LedgerStorage
	logger  *zap.Logger
	intn    func(n int) int

	mu     sync.RWMutex
	orders []models.Order
}

// LedgerOption customises an OrderLedger
type LedgerOption func(*OrderLedger)

// WithIDSource replaces the random source used for order identifiers
func WithIDSource(intn func(n int) int) LedgerOption {
	return func(l *OrderLedger) { l.intn = intn }
}

// NewOrderLedger loads the ledger from storage, or starts from seed when
// storage holds nothing yet
func NewOrderLedger(storage LedgerStorage, seed []models.Order, opts ...LedgerOption) (*OrderLedger, error) {
	l := &OrderLedger{
		storage: storage,
		logger:  util.GetLogger(),
		intn:    rand.Intn,
	}
	for _, opt := range opts {
		opt(l)
	}

	orders, found, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load order ledger: %w", err)
	}
	if !found {
		orders = append([]models.Order(nil), seed...)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	l.orders = orders

	l.logger.Info("Order ledger loaded",
		zap.Int("orders", len(orders)),
		zap.Bool("from_storage", found))
	return l, nil
}

// AddOrder assigns an ORD-#### identifier and prepends the order. An
// ErrLedgerPersist error means the order is in memory but not yet on disk.
func (l *OrderLedger) AddOrder(order models.Order) (models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.nextID()
	if err != nil {
		return models.Order{}, err
	}
	order.ID = id
	l.orders = append([]models.Order{order}, l.orders...)

	l.logger.Info("Order added",
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.String()))
	return order, l.persist()
}

// nextID draws random suffixes until one is unused in the ledger
func (l *OrderLedger) nextID() (string, error) {
	for i := 0; i < orderIDAttempts; i++ {
		id := fmt.Sprintf("ORD-%04d", l.intn(orderIDSpace))
		if l.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrOrderIDsExhausted
}

// UpdateStatus sets the status of order id; unknown ids are ignored
func (l *OrderLedger) UpdateStatus(id string, status models.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil
	}
	l.orders[i].Status = status
	util.OrderStatusUpdatesTotal.WithLabelValues(string(status)).Inc()
	return l.persist()
}

// UpdateDeliveryDate sets the delivery date of order id; unknown ids are ignored
func (l *OrderLedger) UpdateDeliveryDate(id string, date time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return nil
	}
	l.orders[i].DeliveryDate = date
	return l.persist()
}

// Orders returns a snapshot of the whole ledger
func (l *OrderLedger) Orders() []models.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// Get looks up an order by id
func (l *OrderLedger) Get(id string) (models.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.indexOf(id); i >= 0 {
		return l.orders[i], true
	}
	return models.Order{}, false
}

// OrdersForUser returns the user's orders in ledger order
func (l *OrderLedger) OrdersForUser(userID string) []models.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []models.Order{}
	for _, o := range l.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

// Stats computes revenue and counts over the current ledger
func (l *OrderLedger) Stats() LedgerStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := LedgerStats{Revenue: models.MoneyFromInt(0), TotalOrders: len(l.orders)}
	customers := make(map[string]struct{})
	for _, o := range l.orders {
		stats.Revenue = stats.Revenue.Add(o.Total)
		if o.Status.Active() {
			stats.ActiveOrders++
		}
		customers[o.CustomerEmail] = struct{}{}
	}
	stats.TotalCustomers = len(customers)
	return stats
}

func (l *OrderLedger) indexOf(id string) int {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// persist writes the ledger; callers hold l.mu
func (l *OrderLedger) persist() error {
	if err := l.storage.Save(l.orders); err != nil {
		util.LedgerPersistFailedTotal.Inc()
		l.logger.Error("Failed to persist order ledger", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrLedgerPersist, err)
	}
	return nil
}

// StatusStep is the position of status on the account page's order stepper
func StatusStep(status models.OrderStatus) int {
	switch status {
	case models.OrderStatusPending:
		return 1
	case models.OrderStatusProcessing:
		return 2
	case models.OrderStatusShipped:
		return 3
	case models.OrderStatusDelivered:
		return 4
	default:
		return 0
	}
}
