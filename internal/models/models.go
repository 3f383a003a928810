package models

import (
	"time"

	"github.com/lib/pq"
)

// Product represents a sellable catalog entry
type Product struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Category    string         `db:"category" json:"category"`
	Price       Money          `db:"price" json:"price"`
	Description string         `db:"description" json:"description"`
	Features    pq.StringArray `db:"features" json:"features"`
	Image       string         `db:"image" json:"image"`
	Rating      float64        `db:"rating" json:"rating"`
	Reviews     int            `db:"reviews" json:"reviews"`
	Stock       int            `db:"stock" json:"stock"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// ProductInput carries the fields of a product about to be created
type ProductInput struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Price       Money    `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Image       string   `json:"image"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Stock       int      `json:"stock"`
}

// ProductPatch is a partial update; nil fields are left untouched
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Price       *Money    `json:"price,omitempty"`
	Description *string   `json:"description,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	Image       *string   `json:"image,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Reviews     *int      `json:"reviews,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Description == nil &&
		p.Features == nil && p.Image == nil && p.Rating == nil && p.Reviews == nil && p.Stock == nil
}

// CartItem is a product with the quantity a shopper intends to buy
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price × quantity
func (c CartItem) Subtotal() Money {
	return c.Price.MulInt(c.Quantity)
}

// OrderStatus is the lifecycle position of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the order is still in flight
func (s OrderStatus) Active() bool {
	return s != OrderStatusDelivered && s != OrderStatusCancelled
}

// Order represents a placed customer order
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	Items         []CartItem  `json:"items"`
	Total         Money       `json:"total"`
	Status        OrderStatus `json:"status"`
	Date          time.Time   `json:"date"`
	DeliveryDate  time.Time   `json:"delivery_date"`
	PaymentMethod string      `json:"payment_method"`
}

// User represents a registered customer
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Payment methods
const (
	PaymentMethodUPI = "UPI"
)
