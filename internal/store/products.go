package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/lib/pq"
)

// ListProducts returns every product, newest first
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// InsertProduct creates a product and returns the stored row
func (s *Store) InsertProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	query := `
		INSERT INTO products (name, category, price, description, features, image, rating, reviews, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`

	var product models.Product
	err := s.db.GetContext(ctx, &product, query,
		in.Name, in.Category, in.Price, in.Description, pq.StringArray(in.Features),
		in.Image, in.Rating, in.Reviews, in.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// UpdateProduct applies a partial update. A row hidden by row-level policy
// looks the same as a missing one.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if patch.Empty() {
		return s.GetProductByID(ctx, id)
	}

	sets, args := patchAssignments(patch)
	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING *",
		strings.Join(sets, ", "), len(args))

	var product models.Product
	err := s.db.GetContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

func patchAssignments(patch models.ProductPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Features != nil {
		add("features", pq.StringArray(*patch.Features))
	}
	if patch.Image != nil {
		add("image", *patch.Image)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	if patch.Reviews != nil {
		add("reviews", *patch.Reviews)
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	return sets, args
}

// DeleteProduct removes a product. Zero affected rows is reported as
// ErrDeleteNotApplied since row-level policy denies silently.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return mapDeleteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDeleteNotApplied, id)
	}
	return nil
}

func mapDeleteError(err error) error {
	if pqCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("%w: %v", ErrProductInUse, err)
	}
	return fmt.Errorf("failed to delete product: %w", err)
}
