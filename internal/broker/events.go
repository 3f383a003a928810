package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing storefront notifications
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NotifyOrderPlaced publishes the ORDER_PLACED notification for a new order
func (ep *EventPublisher) NotifyOrderPlaced(ctx context.Context, order *models.Order) error {
	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:       order.ID,
		UserID:        order.UserID,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
		Items:         items,
	}
	return ep.producer.PublishEvent(ctx, orderKey(order.ID), event)
}

// NotifyStatusChanged publishes ORDER_STATUS_CHANGED
func (ep *EventPublisher) NotifyStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error {
	event := &models.OrderStatusChangedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   orderID,
		Status:    status,
	}
	return ep.producer.PublishEvent(ctx, orderKey(orderID), event)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// EventHandler decodes backend change notifications
type EventHandler struct {
	onProductChange func(context.Context, models.ChangeEvent)
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnProductChange registers a handler for changes to the products table
func (eh *EventHandler) OnProductChange(handler func(context.Context, models.ChangeEvent)) {
	eh.onProductChange = handler
}

// HandleMessage routes messages to the registered table handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.ChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal change event: %w", err)
	}

	eh.logger.Debug("Handling change event",
		zap.String("table", event.Table),
		zap.String("type", event.EventType),
		zap.String("id", event.EventID))

	switch event.Table {
	case models.TableProducts:
		if eh.onProductChange != nil {
			eh.onProductChange(ctx, event)
		}
	default:
		eh.logger.Debug("Ignoring change for untracked table", zap.String("table", event.Table))
	}

	return nil
}
