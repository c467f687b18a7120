package worker

import (
	"context"
	"encoding/json"
	"testing"

	"commerce-dashboard/internal/broker"
	"commerce-dashboard/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	events []*models.ExportRequestedEvent
}

func (p *recordingProcessor) Process(_ context.Context, event *models.ExportRequestedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func TestExportWorkerDispatchesRequests(t *testing.T) {
	processor := &recordingProcessor{}
	w := NewExportWorker(broker.NewConsumer([]string{"localhost:9092"}, "dashboard-exports", "test-group"), processor)
	t.Cleanup(func() { _ = w.Stop() })

	value, err := json.Marshal(&models.ExportRequestedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeExportRequested},
		JobID:     "job-1",
		View:      "customers",
	})
	require.NoError(t, err)

	require.NoError(t, w.eventHandler.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.Len(t, processor.events, 1)
	assert.Equal(t, "job-1", processor.events[0].JobID)
	assert.Equal(t, "customers", processor.events[0].View)
}
