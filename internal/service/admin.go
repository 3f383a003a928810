package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAdminCredentials  = errors.New("invalid admin credentials")
	ErrDeleteTokenGone   = errors.New("delete confirmation expired or unknown")
	ErrDescribeInput     = errors.New("name and category are required")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotInCache = errors.New("product not found")
)

// Messages shown to admins when a delete is rolled back
const (
	DeleteInUseMessage      = "Cannot delete: Product is part of an existing Order. Please clear Orders first."
	DeleteNotAppliedMessage = "Delete failed. Permission denied by database (Check RLS Policies) or product not found."
)

// StatusNotifier emits the order-status-changed side effect
type StatusNotifier interface {
	NotifyStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error
}

// StatusMirror copies status changes to the backend
type StatusMirror interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

// DescriptionGenerator writes product copy
type DescriptionGenerator interface {
	GenerateDescription(ctx context.Context, name, category string) (string, error)
}

// DeleteRequest is the first half of a two-step product delete
type DeleteRequest struct {
	Token     string    `json:"token"`
	ProductID string    `json:"product_id"`
	Prompt    string    `json:"prompt"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminConsole is the back office: product CRUD and order management
type AdminConsole struct {
	catalog    *Catalog
	ledger     *OrderLedger
	values     ValueStore
	describer  DescriptionGenerator
	notifier   StatusNotifier
	mirror     StatusMirror
	username   string
	password   string
	sessionTTL time.Duration
	confirmTTL time.Duration
	logger     *zap.Logger
}

// AdminConfig holds the console's credentials and TTLs
type AdminConfig struct {
	Username         string
	Password         string
	SessionTTL       time.Duration
	DeleteConfirmTTL time.Duration
}

// NewAdminConsole creates the back office. notifier and mirror may be nil.
func NewAdminConsole(catalog *Catalog, ledger *OrderLedger, values ValueStore, describer DescriptionGenerator,
	notifier StatusNotifier, mirror StatusMirror, cfg AdminConfig) *AdminConsole {
	return &AdminConsole{
		catalog:    catalog,
		ledger:     ledger,
		values:     values,
		describer:  describer,
		notifier:   notifier,
		mirror:     mirror,
		username:   cfg.Username,
		password:   cfg.Password,
		sessionTTL: cfg.SessionTTL,
		confirmTTL: cfg.DeleteConfirmTTL,
		logger:     util.GetLogger(),
	}
}

// Login checks the fixed admin credentials and opens an admin session.
// This gate only hides the console; it is not an authorization boundary.
func (a *AdminConsole) Login(ctx context.Context, username, password string) (string, error) {
	if username != a.username || password != a.password {
		a.logger.Warn("Admin login rejected", zap.String("username", username))
		return "", ErrAdminCredentials
	}

	sessionID := uuid.New().String()
	if err := a.values.PutValue(ctx, nsAdminSession, sessionID, "true", a.sessionTTL); err != nil {
		return "", fmt.Errorf("failed to store admin session: %w", err)
	}
	return sessionID, nil
}

// Logout clears the admin session
func (a *AdminConsole) Logout(ctx context.Context, sessionID string) error {
	return a.values.DeleteValue(ctx, nsAdminSession, sessionID)
}

// IsAdmin reports whether sessionID carries the admin flag
func (a *AdminConsole) IsAdmin(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	val, ok, err := a.values.GetValue(ctx, nsAdminSession, sessionID)
	if err != nil {
		return false, err
	}
	return ok && val == "true", nil
}

// CreateProduct adds a product, using the default image when none is given
func (a *AdminConsole) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Image) == "" {
		in.Image = DefaultImageURL()
	}
	if in.Features == nil {
		in.Features = []string{}
	}
	return a.catalog.Create(ctx, in)
}

// UpdateProduct patches a product; clearing the image resets it to the default
func (a *AdminConsole) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if patch.Image != nil && strings.TrimSpace(*patch.Image) == "" {
		def := DefaultImageURL()
		patch.Image = &def
	}
	return a.catalog.Update(ctx, id, patch)
}

// RequestDelete issues a short-lived token that ConfirmDelete must present
func (a *AdminConsole) RequestDelete(ctx context.Context, productID string) (*DeleteRequest, error) {
	product, ok := a.catalog.Get(productID)
	if !ok {
		return nil, ErrProductNotInCache
	}

	token := uuid.New().String()
	if err := a.values.PutValue(ctx, nsDeleteConfirm, token, productID, a.confirmTTL); err != nil {
		return nil, fmt.Errorf("failed to store delete confirmation: %w", err)
	}
	return &DeleteRequest{
		Token:     token,
		ProductID: productID,
		Prompt:    fmt.Sprintf("Are you sure you want to delete %q? This cannot be undone.", product.Name),
		ExpiresAt: time.Now().Add(a.confirmTTL),
	}, nil
}

// ConfirmDelete consumes a delete token and deletes its product
func (a *AdminConsole) ConfirmDelete(ctx context.Context, token string) (string, error) {
	productID, ok, err := a.values.TakeValue(ctx, nsDeleteConfirm, token)
	if err != nil {
		return "", fmt.Errorf("failed to read delete confirmation: %w", err)
	}
	if !ok {
		return "", ErrDeleteTokenGone
	}
	return productID, a.catalog.Delete(ctx, productID)
}

// DeleteFailureMessage is the admin-facing text for a failed delete
func DeleteFailureMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrProductInUse):
		return DeleteInUseMessage
	case errors.Is(err, store.ErrDeleteNotApplied):
		return DeleteNotAppliedMessage
	default:
		return "Failed to delete product"
	}
}

// UploadImage converts an upload into a stored data URL. Oversize files are
// rejected outright; any other failure returns the default image URL
// together with the error.
func (a *AdminConsole) UploadImage(data []byte) (string, error) {
	url, err := ProcessImage(data)
	if errors.Is(err, ErrImageTooLarge) {
		return "", err
	}
	if err != nil {
		a.logger.Warn("Image processing failed, using placeholder",
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return DefaultImageURL(), err
	}
	return url, nil
}

// GenerateDescription asks the AI service for product copy
func (a *AdminConsole) GenerateDescription(ctx context.Context, name, category string) (string, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(category) == "" {
		return "", ErrDescribeInput
	}
	return a.describer.GenerateDescription(ctx, name, category)
}

// Orders returns the full ledger
func (a *AdminConsole) Orders() []models.Order {
	return a.ledger.Orders()
}

// Stats returns the dashboard figures
func (a *AdminConsole) Stats() LedgerStats {
	return a.ledger.Stats()
}

// SetOrderStatus moves an order to status and propagates the change
func (a *AdminConsole) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	ctx, span := util.StartSpan(ctx, "AdminConsole.SetOrderStatus")
	defer span.End()

	if !status.Valid() {
		return ErrInvalidStatus
	}
	if _, ok := a.ledger.Get(orderID); !ok {
		return ErrOrderNotFound
	}
	if err := a.ledger.UpdateStatus(orderID, status); err != nil && !errors.Is(err, ErrLedgerPersist) {
		return err
	}

	if a.notifier != nil {
		if err := a.notifier.NotifyStatusChanged(ctx, orderID, status); err != nil {
			a.logger.Error("Failed to publish status change",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
	}
	if a.mirror != nil {
		if err := a.mirror.UpdateOrderStatus(ctx, orderID, status); err != nil {
			a.logger.Error("Failed to mirror status change",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
	}
	return nil
}

// SetDeliveryDate reschedules an order's delivery
func (a *AdminConsole) SetDeliveryDate(orderID string, date time.Time) error {
	if _, ok := a.ledger.Get(orderID); !ok {
		return ErrOrderNotFound
	}
	if err := a.ledger.UpdateDeliveryDate(orderID, date); err != nil && !errors.Is(err, ErrLedgerPersist) {
		return err
	}
	return nil
}
