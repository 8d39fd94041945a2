package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicops/complaintflow/pkg/directory"
	"github.com/civicops/complaintflow/pkg/eventbus"
	"github.com/civicops/complaintflow/pkg/events"
	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/orchestrator"
	"github.com/civicops/complaintflow/pkg/persistence"
	"github.com/civicops/complaintflow/pkg/runlock"
	"github.com/civicops/complaintflow/pkg/template"
)

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	locker      *runlock.Locker
	senders     Senders
	templates   template.Defaults
	tracer      trace.Tracer
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	locker *runlock.Locker,
	senders Senders,
	templates template.Defaults,
	tracer trace.Tracer,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "complaintflow-worker", "worker_id", id),
		persistence: persistence,
		eventBus:    eventBus,
		locker:      locker,
		senders:     senders,
		templates:   templates,
		tracer:      tracer,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	err := w.eventBus.Handle(events.RunRequestedEvent, w.handleRunRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleRunRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.RunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunRequested")

		return nil
	}

	executionID := uuid.New().String()
	logger := w.logger.With(
		"workflow_id", requested.WorkflowID,
		"complaint_id", requested.ComplaintID,
		"execution_id", executionID,
	)
	logger.InfoContext(ctx, "Processing run request")

	if w.locker != nil {
		err := w.locker.Acquire(ctx, requested.ComplaintID, executionID)
		if errors.Is(err, runlock.ErrRunInProgress) {
			logger.WarnContext(ctx, "Run already in progress for complaint, skipping")

			return nil
		}

		if err != nil {
			return err
		}

		defer func() {
			if err := w.locker.Release(ctx, requested.ComplaintID, executionID); err != nil {
				logger.ErrorContext(ctx, "Failed to release run lock", "error", err)
			}
		}()
	}

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, requested.WorkflowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to fetch workflow", "error", err)

		return err
	}

	ec := models.NewExecutionContext(executionID, requested.WorkflowID, requested.ComplaintID)
	ec.TriggerSource = requested.TriggerSource
	ec.TriggeredBy = requested.TriggeredBy

	for key, value := range workflow.Variables {
		ec.Variables[key] = value
	}

	for key, value := range requested.Variables {
		ec.Variables[key] = value
	}

	store := directory.NewStore(w.persistence)

	orch, err := orchestrator.New(workflow.Nodes, workflow.Edges, ec, orchestrator.Dependencies{
		Complaints: store,
		Users:      store,
		Roles:      store,
		Email:      w.senders.Email,
		SMS:        w.senders.SMS,
		WhatsApp:   w.senders.WhatsApp,
		Templates:  w.templates,
		Logger:     logger,
		Tracer:     w.tracer,
		Observer:   &resultPublisher{eventBus: w.eventBus, workerID: w.id, logger: logger},
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build orchestrator", "error", err)

		return w.publishFailed(ctx, requested, executionID, nil, 0, err)
	}

	w.publishStarted(ctx, requested, executionID)

	started := time.Now()

	results, err := orch.ExecuteWorkflow(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Workflow run failed", "error", err)

		return w.publishFailed(ctx, requested, executionID, orch.AllStatuses(), time.Since(started), err)
	}

	completed := events.RunCompleted{
		BaseEvent:   w.baseEvent(events.RunCompletedEvent, requested),
		ExecutionID: executionID,
		Results:     results,
		Duration:    time.Since(started),
	}

	if err := w.eventBus.Publish(ctx, requested.ComplaintID, completed); err != nil {
		logger.ErrorContext(ctx, "Failed to publish run completed event", "error", err)
	}

	logger.InfoContext(ctx, "Workflow run completed", "results", len(results))

	return nil
}

func (w *WorkerManager) publishStarted(ctx context.Context, requested *events.RunRequested, executionID string) {
	started := events.RunStarted{
		BaseEvent:   w.baseEvent(events.RunStartedEvent, requested),
		ExecutionID: executionID,
	}

	if err := w.eventBus.Publish(ctx, requested.ComplaintID, started); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish run started event", "error", err)
	}
}

func (w *WorkerManager) publishFailed(
	ctx context.Context,
	requested *events.RunRequested,
	executionID string,
	statuses map[string]models.NodeStatus,
	duration time.Duration,
	runErr error,
) error {
	failed := events.RunFailed{
		BaseEvent:   w.baseEvent(events.RunFailedEvent, requested),
		ExecutionID: executionID,
		Error:       runErr.Error(),
		Statuses:    statuses,
		Duration:    duration,
	}

	if err := w.eventBus.Publish(ctx, requested.ComplaintID, failed); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish run failed event", "error", err)
	}

	return runErr
}

func (w *WorkerManager) baseEvent(eventType events.EventType, requested *events.RunRequested) events.BaseEvent {
	return events.BaseEvent{
		ID:          w.eventBus.GenerateID(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkflowID:  requested.WorkflowID,
		ComplaintID: requested.ComplaintID,
		Metadata: map[string]any{
			"worker_id": w.id,
		},
	}
}

// resultPublisher forwards each node result to the event bus as the
// per-node audit trail of the run.
type resultPublisher struct {
	eventBus eventbus.EventBus
	workerID string
	logger   *slog.Logger
}

func (p *resultPublisher) ObserveNodeResult(ctx context.Context, ec *models.ExecutionContext, result *models.NodeResult) {
	event := events.NodeCompleted{
		BaseEvent: events.BaseEvent{
			ID:          p.eventBus.GenerateID(),
			Type:        events.NodeCompletedEvent,
			Timestamp:   time.Now().UTC(),
			WorkflowID:  ec.WorkflowID,
			ComplaintID: ec.ComplaintID,
			Metadata: map[string]any{
				"worker_id": p.workerID,
			},
		},
		ExecutionID: ec.ID,
		NodeID:      result.NodeID,
		Result:      result,
	}

	if err := p.eventBus.Publish(ctx, ec.ComplaintID, event); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish node completed event", "error", err)
	}
}
