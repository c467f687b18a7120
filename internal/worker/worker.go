package worker

import (
	"context"

	"commerce-dashboard/internal/broker"
	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/util"

	"go.uber.org/zap"
)

// ExportProcessor renders a requested export.
type ExportProcessor interface {
	Process(ctx context.Context, event *models.ExportRequestedEvent) error
}

// ExportWorker consumes export requests and renders them in the background
type ExportWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewExportWorker creates a new export worker
func NewExportWorker(consumer *broker.Consumer, processor ExportProcessor) *ExportWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnExportRequested(processor.Process)

	return &ExportWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming export requests until ctx is done
func (w *ExportWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting export worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ExportWorker) Stop() error {
	w.logger.Info("Stopping export worker")
	return w.consumer.Close()
}
