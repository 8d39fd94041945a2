package models

// Edge is a directed dependency between two nodes: the target may not
// execute before the source completes. The edge set together with the node
// set must form a DAG; cycle detection happens at order computation.
type Edge struct {
	ID     string `json:"id"     validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Label  string `json:"label,omitempty"`
}
