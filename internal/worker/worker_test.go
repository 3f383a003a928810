package worker

import (
	"context"
	"encoding/json"
	"testing"

	"storefront/internal/broker"
	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replaySource struct {
	messages []kafka.Message
	closed   bool
}

func (r *replaySource) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, msg := range r.messages {
		_ = handler(ctx, msg)
	}
	return nil
}

func (r *replaySource) Close() error {
	r.closed = true
	return nil
}

type recordingCatalog struct {
	events []models.ChangeEvent
}

func (r *recordingCatalog) HandleChange(ctx context.Context, event models.ChangeEvent) {
	r.events = append(r.events, event)
}

func message(t *testing.T, table, changeType, id string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-" + id, EventType: changeType},
		Table:     table,
		RecordID:  id,
	})
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestCatalogWorkerForwardsProductChanges(t *testing.T) {
	source := &replaySource{messages: []kafka.Message{
		message(t, models.TableProducts, models.ChangeInsert, "p1"),
		message(t, "orders", models.ChangeInsert, "o1"),
		{Value: []byte("{broken")},
		message(t, models.TableProducts, models.ChangeDelete, "p2"),
	}}
	catalog := &recordingCatalog{}

	w := NewCatalogWorker(source, catalog)
	require.NoError(t, w.Start(context.Background()))

	require.Len(t, catalog.events, 2)
	assert.Equal(t, "p1", catalog.events[0].RecordID)
	assert.Equal(t, models.ChangeDelete, catalog.events[1].EventType)

	require.NoError(t, w.Stop())
	assert.True(t, source.closed)
}
