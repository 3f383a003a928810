package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ProductBackend is the row store behind the catalog
type ProductBackend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	InsertProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ReconcileAction is what the catalog does with a change notification
type ReconcileAction string

const (
	ActionRefresh ReconcileAction = "refresh"
	ActionIgnore  ReconcileAction = "ignore"
)

// reconcileRules maps backend change types to catalog actions. Deletes are
// applied locally by Delete, never from the feed.
var reconcileRules = map[string]ReconcileAction{
	models.ChangeInsert: ActionRefresh,
	models.ChangeUpdate: ActionRefresh,
	models.ChangeDelete: ActionIgnore,
}

// ReconcileActionFor returns the action for a change type; unknown types are ignored
func ReconcileActionFor(changeType string) ReconcileAction {
	if action, ok := reconcileRules[changeType]; ok {
		return action
	}
	return ActionIgnore
}

// Catalog caches the backend product set
type Catalog struct {
	backend ProductBackend
	logger  *zap.Logger

	mu       sync.RWMutex
	products []models.Product
	loading  bool
	lastErr  error
}

// NewCatalog creates an empty catalog; call Refresh to load it
func NewCatalog(backend ProductBackend) *Catalog {
	return &Catalog{
		backend: backend,
		logger:  util.GetLogger(),
	}
}

// Refresh replaces the cache with the backend's current product set. A failed
// fetch is recorded in Err and leaves the previous cache in place.
func (c *Catalog) Refresh(ctx context.Context) {
	ctx, span := util.StartSpan(ctx, "Catalog.Refresh")
	defer span.End()

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	util.CatalogRefreshTotal.Inc()
	products, err := c.backend.ListProducts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		util.CatalogRefreshFailedTotal.Inc()
		c.lastErr = err
		span.RecordError(err)
		c.logger.Warn("Catalog refresh failed, keeping cached products",
			zap.Int("cached", len(c.products)),
			zap.Error(err))
		return
	}

	if products == nil {
		products = []models.Product{}
	}
	c.products = products
	c.lastErr = nil
}

// Create inserts a product and refreshes the cache
func (c *Catalog) Create(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Catalog.Create")

	product, err := c.backend.InsertProduct(ctx, in)
	util.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Product created", zap.String("product_id", product.ID))
	c.Refresh(ctx)
	return product, nil
}

// Update applies a partial update and refreshes the cache
func (c *Catalog) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Catalog.Update")

	product, err := c.backend.UpdateProduct(ctx, id, patch)
	util.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Product updated", zap.String("product_id", id))
	c.Refresh(ctx)
	return product, nil
}

// Delete removes the product locally before the backend confirms. If the
// backend refuses, the cache is restored to its pre-delete snapshot.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "Catalog.Delete")
	defer span.End()

	c.mu.Lock()
	snapshot := make([]models.Product, len(c.products))
	copy(snapshot, c.products)
	pruned := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.ID != id {
			pruned = append(pruned, p)
		}
	}
	c.products = pruned
	c.mu.Unlock()

	err := c.backend.DeleteProduct(ctx, id)
	if err == nil {
		c.logger.Info("Product deleted", zap.String("product_id", id))
		return nil
	}

	c.mu.Lock()
	c.products = snapshot
	c.mu.Unlock()

	reason := deleteFailureReason(err)
	util.CatalogDeleteRollbacksTotal.WithLabelValues(reason).Inc()
	span.RecordError(err)
	c.logger.Warn("Delete failed, rolled back catalog",
		zap.String("product_id", id),
		zap.String("reason", reason),
		zap.Error(err))
	return fmt.Errorf("delete product %s: %w", id, err)
}

func deleteFailureReason(err error) string {
	switch {
	case errors.Is(err, store.ErrProductInUse):
		return "in_use"
	case errors.Is(err, store.ErrDeleteNotApplied):
		return "not_applied"
	default:
		return "error"
	}
}

// HandleChange applies the reconciliation rule for a backend change notification
func (c *Catalog) HandleChange(ctx context.Context, event models.ChangeEvent) {
	action := ReconcileActionFor(event.EventType)
	util.CatalogChangeEventsTotal.WithLabelValues(event.EventType, string(action)).Inc()

	if action == ActionRefresh {
		c.Refresh(ctx)
	}
}

// Products returns a snapshot of the cached products
func (c *Catalog) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a cached product by id
func (c *Catalog) Get(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Loading reports whether a refresh is in flight
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error of the last refresh, nil if it succeeded
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}
