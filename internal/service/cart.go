package service

import (
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
)

// TaxRate is the fixed GST rate applied at checkout
var TaxRate = decimal.RequireFromString("0.18")

// Cart is a session's quantity map of products, kept in insertion order.
// At most one item exists per product id and every quantity is at least 1.
type Cart struct {
	mu    sync.Mutex
	items []models.CartItem
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{}
}

// Add puts one unit of product into the cart. Stock is not consulted.
func (c *Cart) Add(product models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	if i := c.indexOf(product.ID); i >= 0 {
		c.items[i].Quantity++
		return
	}
	c.items = append(c.items, models.CartItem{Product: product, Quantity: 1})
}

// Remove drops the item for productID; absent ids are ignored
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// SetQuantity sets the quantity for productID, clamped to a minimum of 1
func (c *Cart) SetQuantity(productID string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	if qty < 1 {
		qty = 1
	}
	util.CartMutationsTotal.WithLabelValues("set_quantity").Inc()
	c.items[i].Quantity = qty
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	c.items = nil
}

// Items returns a snapshot of the cart contents
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct products in the cart
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].ID == productID {
			return i
		}
	}
	return -1
}

// CartTotal sums price × quantity over items
func CartTotal(items []models.CartItem) models.Money {
	total := models.MoneyFromInt(0)
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CartSummary is the price breakdown shown for a cart
type CartSummary struct {
	ItemCount int          `json:"item_count"`
	Subtotal  models.Money `json:"subtotal"`
	Tax       models.Money `json:"tax"`
	Shipping  models.Money `json:"shipping"`
	Total     models.Money `json:"total"`
}

// Summarize prices items with the fixed tax rate and free shipping
func Summarize(items []models.CartItem) CartSummary {
	subtotal := CartTotal(items)
	tax := subtotal.Percent(TaxRate)
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return CartSummary{
		ItemCount: count,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  models.MoneyFromInt(0),
		Total:     subtotal.Add(tax),
	}
}

// CartRegistry owns one cart per browser session. Sessions nobody has
// touched since a cutoff are dropped by EvictIdle.
type CartRegistry struct {
	mu    sync.Mutex
	carts map[string]*sessionCart
	now   func() time.Time
}

type sessionCart struct {
	cart     *Cart
	lastSeen time.Time
}

// NewCartRegistry creates an empty registry
func NewCartRegistry() *CartRegistry {
	return &CartRegistry{
		carts: make(map[string]*sessionCart),
		now:   time.Now,
	}
}

// Get returns the cart for sessionID, creating it on first use
func (r *CartRegistry) Get(sessionID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.carts[sessionID]
	if !ok {
		entry = &sessionCart{cart: NewCart()}
		r.carts[sessionID] = entry
	}
	entry.lastSeen = r.now()
	return entry.cart
}

// Items returns the session's cart contents without creating a cart
func (r *CartRegistry) Items(sessionID string) []models.CartItem {
	r.mu.Lock()
	entry, ok := r.carts[sessionID]
	if ok {
		entry.lastSeen = r.now()
	}
	r.mu.Unlock()

	if !ok {
		return []models.CartItem{}
	}
	return entry.cart.Items()
}

// Drop forgets a session's cart
func (r *CartRegistry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
}

// Clear empties the session's cart and forgets the session
func (r *CartRegistry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.carts[sessionID]; ok {
		entry.cart.Clear()
		delete(r.carts, sessionID)
	}
}

// Len returns the number of tracked sessions
func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// EvictIdle drops carts last used before cutoff and returns how many went
func (r *CartRegistry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.carts {
		if entry.lastSeen.Before(cutoff) {
			delete(r.carts, id)
			evicted++
		}
	}
	return evicted
}
