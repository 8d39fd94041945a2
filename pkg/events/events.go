// Package events defines the event types published on the bus for workflow
// run lifecycle and audit.
package events

import (
	"time"

	"github.com/civicops/complaintflow/pkg/models"
)

type EventType string

// Topic carries all complaintflow events.
const Topic = "complaintflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunRequestedEvent EventType = "run.requested"
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"

	NodeCompletedEvent EventType = "node.completed"

	ComplaintEscalatedEvent EventType = "complaint.escalated"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkflowID  string         `json:"workflow_id"`
	ComplaintID string         `json:"complaint_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RunRequested asks a worker to execute the workflow against a complaint.
type RunRequested struct {
	BaseEvent

	TriggerSource string         `json:"trigger_source"`
	TriggeredBy   string         `json:"triggered_by,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func (e RunRequested) GetType() EventType {
	return RunRequestedEvent
}

type RunStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	ExecutionID string                        `json:"execution_id"`
	Results     map[string]*models.NodeResult `json:"results,omitempty"`
	Duration    time.Duration                 `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	ExecutionID string                       `json:"execution_id"`
	Error       string                       `json:"error"`
	Statuses    map[string]models.NodeStatus `json:"statuses,omitempty"`
	Duration    time.Duration                `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// NodeCompleted is the per-node audit record of a run.
type NodeCompleted struct {
	BaseEvent

	ExecutionID string             `json:"execution_id"`
	NodeID      string             `json:"node_id"`
	Result      *models.NodeResult `json:"result"`
}

func (e NodeCompleted) GetType() EventType {
	return NodeCompletedEvent
}

// ComplaintEscalated is published when the escalation scheduler finds a
// complaint past its due date.
type ComplaintEscalated struct {
	BaseEvent

	DueAt time.Time `json:"due_at"`
}

func (e ComplaintEscalated) GetType() EventType {
	return ComplaintEscalatedEvent
}
