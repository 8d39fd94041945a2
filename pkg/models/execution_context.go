package models

// ExecutionContext is the mutable state threaded through one workflow run.
// It is exclusively owned by a single orchestrator instance and never shared
// across concurrent runs; a second run for the same complaint gets its own
// context.
type ExecutionContext struct {
	ID            string                 `json:"id"`
	WorkflowID    string                 `json:"workflow_id"`
	ComplaintID   string                 `json:"complaint_id"`
	Complaint     *Complaint             `json:"complaint,omitempty"`
	TriggerSource string                 `json:"trigger_source,omitempty"`
	TriggeredBy   string                 `json:"triggered_by,omitempty"`
	Variables     map[string]any         `json:"variables,omitempty"`
	Results       map[string]*NodeResult `json:"results,omitempty"`
}

// NewExecutionContext creates a run context for the given complaint with
// initialized variable and result maps.
func NewExecutionContext(executionID, workflowID, complaintID string) *ExecutionContext {
	return &ExecutionContext{
		ID:          executionID,
		WorkflowID:  workflowID,
		ComplaintID: complaintID,
		Variables:   make(map[string]any),
		Results:     make(map[string]*NodeResult),
	}
}
