package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicops/complaintflow/pkg/eventbus"
	"github.com/civicops/complaintflow/pkg/events"
	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// ErrComplaintNotFound is returned when a complaint is not found.
var ErrComplaintNotFound = persistence.ErrComplaintNotFound

// Runs accepts workflow run requests and hands them to the workers over the
// event bus.
type Runs struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
}

// NewRuns creates a new run request service.
func NewRuns(persistence persistence.Persistence, eventBus eventbus.EventBus) *Runs {
	return &Runs{
		persistence: persistence,
		eventBus:    eventBus,
	}
}

// RunRequest describes a request to execute a workflow against a complaint.
type RunRequest struct {
	WorkflowID    string
	ComplaintID   string
	TriggerSource string
	TriggeredBy   string
	Variables     map[string]any
}

// Request validates a run request and publishes it for a worker to pick up.
// Only published workflows are runnable.
func (r *Runs) Request(ctx context.Context, req RunRequest) (string, error) {
	workflow, err := r.persistence.WorkflowRepository().GetByID(ctx, req.WorkflowID)
	if err != nil {
		return "", err
	}

	if workflow.Status != models.WorkflowStatusPublished {
		return "", ErrNotPublished
	}

	if _, err := r.persistence.ComplaintRepository().GetByID(ctx, req.ComplaintID); err != nil {
		return "", err
	}

	triggerSource := req.TriggerSource
	if triggerSource == "" {
		triggerSource = "manual"
	}

	event := events.RunRequested{
		BaseEvent: events.BaseEvent{
			ID:          r.eventBus.GenerateID(),
			Type:        events.RunRequestedEvent,
			Timestamp:   time.Now().UTC(),
			WorkflowID:  req.WorkflowID,
			ComplaintID: req.ComplaintID,
		},
		TriggerSource: triggerSource,
		TriggeredBy:   req.TriggeredBy,
		Variables:     req.Variables,
	}

	if err := r.eventBus.Publish(ctx, req.ComplaintID, event); err != nil {
		return "", fmt.Errorf("failed to publish run request: %w", err)
	}

	return event.ID, nil
}

// IsNotFound reports whether the error is a workflow or complaint lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, persistence.ErrWorkflowNotFound) ||
		errors.Is(err, persistence.ErrComplaintNotFound) ||
		errors.Is(err, persistence.ErrUserNotFound)
}
