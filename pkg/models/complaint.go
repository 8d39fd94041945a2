package models

import "time"

// ComplaintStatus tracks where a complaint sits in the municipal process.
type ComplaintStatus string

const (
	ComplaintStatusRegistered ComplaintStatus = "registered"
	ComplaintStatusInspection ComplaintStatus = "inspection"
	ComplaintStatusAssessment ComplaintStatus = "assessment"
	ComplaintStatusEnforced   ComplaintStatus = "enforced"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

// Complaint is the snapshot of a complaint record a workflow run executes
// against. It is loaded once at run start and treated as immutable for the
// duration of the run.
type Complaint struct {
	ID               string          `json:"id"`
	Status           ComplaintStatus `json:"status"`
	Priority         string          `json:"priority"`
	ProblemType      string          `json:"problem_type"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	ComplainantName  string          `json:"complainant_name"`
	ComplainantEmail string          `json:"complainant_email"`
	ComplainantPhone string          `json:"complainant_phone"`
	AssignedStaffID  string          `json:"assigned_staff_id,omitempty"`
	ReportedAt       time.Time       `json:"reported_at"`
	DueAt            *time.Time      `json:"due_at,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Overdue reports whether the complaint has passed its due date without
// reaching a terminal status.
func (c *Complaint) Overdue(now time.Time) bool {
	if c.DueAt == nil {
		return false
	}

	if c.Status == ComplaintStatusResolved || c.Status == ComplaintStatusClosed {
		return false
	}

	return now.After(*c.DueAt)
}
