// Package escalation periodically scans for overdue complaints and requests
// escalation workflow runs for them.
package escalation

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/civicops/complaintflow/pkg/eventbus"
	"github.com/civicops/complaintflow/pkg/events"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// EscalationWorkflowName is the published template the scheduler triggers.
const EscalationWorkflowName = "Overdue Complaint Escalation"

// Scheduler runs the overdue scan on a cron schedule.
type Scheduler struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	cron        *cron.Cron
}

// NewScheduler creates an escalation scheduler. Start it with Start and a
// cron spec such as "*/15 * * * *".
func NewScheduler(p persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: p,
		eventBus:    bus,
		logger:      logger.With("module", "escalation"),
		cron:        cron.New(),
	}
}

// Start registers the scan job and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		err := s.Scan(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Escalation scan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Escalation scheduler started", "spec", spec)

	return nil
}

// Stop halts the cron runner, waiting for a running scan to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// Scan requests an escalation run for every overdue complaint. Requests are
// fire-and-forget; the worker's run lock suppresses duplicates when a run
// for the complaint is already active.
func (s *Scheduler) Scan(ctx context.Context) error {
	now := time.Now().UTC()

	overdue, err := s.persistence.ComplaintRepository().ListOverdue(ctx, now)
	if err != nil {
		return err
	}

	if len(overdue) == 0 {
		return nil
	}

	workflow, err := s.persistence.WorkflowRepository().GetPublishedByName(ctx, EscalationWorkflowName)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			s.logger.WarnContext(ctx, "No published escalation workflow, skipping scan",
				"overdue", len(overdue))

			return nil
		}

		return err
	}

	for _, complaint := range overdue {
		escalated := events.ComplaintEscalated{
			BaseEvent: events.BaseEvent{
				ID:          s.eventBus.GenerateID(),
				Type:        events.ComplaintEscalatedEvent,
				Timestamp:   now,
				WorkflowID:  workflow.ID,
				ComplaintID: complaint.ID,
			},
			DueAt: *complaint.DueAt,
		}

		err = s.eventBus.Publish(ctx, complaint.ID, escalated)
		if err != nil {
			return err
		}

		request := events.RunRequested{
			BaseEvent: events.BaseEvent{
				ID:          s.eventBus.GenerateID(),
				Type:        events.RunRequestedEvent,
				Timestamp:   now,
				WorkflowID:  workflow.ID,
				ComplaintID: complaint.ID,
			},
			TriggerSource: "escalation",
		}

		err = s.eventBus.Publish(ctx, complaint.ID, request)
		if err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "Requested escalation run",
			"complaint_id", complaint.ID, "due_at", complaint.DueAt)
	}

	return nil
}
