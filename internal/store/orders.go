package store

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

// SaveOrder mirrors a placed order and its line items into the backend.
// Line items reference products, which is what blocks deleting a sold product.
func (s *Store) SaveOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, customer_name, customer_email, customer_phone,
			total, status, order_date, delivery_date, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.UserID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.Total, string(order.Status), order.Date, order.DeliveryDate, order.PaymentMethod)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			order.ID, item.ID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateOrderStatus mirrors a status change made in the back office
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", string(status), orderID)
	return err
}
