// Package web provides HTTP request and response types for the complaint
// workflow API.
package web

import "github.com/civicops/complaintflow/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Owner       string         `json:"owner"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
	Variables   map[string]any `json:"variables"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. Nil fields are left unchanged.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	Nodes       []*models.Node `json:"nodes,omitempty"`
	Edges       []*models.Edge `json:"edges,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

// TriggerRunRequest represents the request body for requesting a workflow run
// against a complaint.
type TriggerRunRequest struct {
	ComplaintID string         `json:"complaint_id" validate:"required"`
	TriggeredBy string         `json:"triggered_by,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

// TriggerRunResponse returns the id of the accepted run request.
type TriggerRunResponse struct {
	RequestID   string `json:"request_id"`
	WorkflowID  string `json:"workflow_id"`
	ComplaintID string `json:"complaint_id"`
	Status      string `json:"status"`
}
