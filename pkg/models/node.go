// Package models defines the core domain models for complaint workflow execution.
package models

import (
	"strings"
	"time"
)

// NodeType is the coarse dispatch category of a workflow node.
type NodeType string

const (
	NodeTypeStart    NodeType = "start"
	NodeTypeEnd      NodeType = "end"
	NodeTypeTask     NodeType = "task"
	NodeTypeDecision NodeType = "decision"
	NodeTypeCustom   NodeType = "custom"
)

// Node represents a single step in a designer-authored workflow graph.
// Position fields are layout-only and ignored by the executor.
type Node struct {
	ID        string         `json:"id"    validate:"required"`
	Type      NodeType       `json:"type"  validate:"required"`
	Label     string         `json:"label" validate:"required,min=1"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// CustomNodeKind is the closed set of behaviors a custom node can resolve to.
// Kinds are resolved once at graph build time from the node label, so the
// executor dispatches on an enum rather than re-matching strings per run.
type CustomNodeKind int

const (
	KindUnknown CustomNodeKind = iota
	KindEmailNotification
	KindSmsNotification
	KindWhatsAppNotification
	KindInitialInspection
	KindAssessment
	KindEnforcementAction
	KindResolution
)

var kindNames = map[CustomNodeKind]string{
	KindUnknown:              "unknown",
	KindEmailNotification:    "email_notification",
	KindSmsNotification:      "sms_notification",
	KindWhatsAppNotification: "whatsapp_notification",
	KindInitialInspection:    "initial_inspection",
	KindAssessment:           "assessment",
	KindEnforcementAction:    "enforcement_action",
	KindResolution:           "resolution",
}

func (k CustomNodeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// kindMatchers is checked in order; earlier entries win when a label would
// match more than one substring.
var kindMatchers = []struct {
	substr string
	kind   CustomNodeKind
}{
	{"email notification", KindEmailNotification},
	{"sms notification", KindSmsNotification},
	{"whatsapp notification", KindWhatsAppNotification},
	{"initial inspection", KindInitialInspection},
	{"assessment", KindAssessment},
	{"enforcement", KindEnforcementAction},
	{"resolution", KindResolution},
}

// ResolveCustomKind maps a designer-authored node label to a CustomNodeKind
// using case-insensitive substring matching. Labels that match nothing
// resolve to KindUnknown; graphs are end-user-authored, so unrecognized
// labels are tolerated rather than rejected.
func ResolveCustomKind(label string) CustomNodeKind {
	lowered := strings.ToLower(label)
	for _, m := range kindMatchers {
		if strings.Contains(lowered, m.substr) {
			return m.kind
		}
	}

	return KindUnknown
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
)

// NodeResult represents the outcome of a single node execution.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Data      map[string]any `json:"data"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}
