package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// MessageSource delivers change feed messages
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ChangeApplier reconciles a cache with one backend change
type ChangeApplier interface {
	HandleChange(ctx context.Context, event models.ChangeEvent)
}

// CatalogWorker feeds backend product changes into the catalog
type CatalogWorker struct {
	source       MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewCatalogWorker creates a new catalog worker
func NewCatalogWorker(source MessageSource, catalog ChangeApplier) *CatalogWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnProductChange(catalog.HandleChange)

	return &CatalogWorker{
		source:       source,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming the change feed until ctx is cancelled
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog worker...")
	return w.source.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CatalogWorker) Stop() error {
	w.logger.Info("Stopping catalog worker...")
	return w.source.Close()
}
