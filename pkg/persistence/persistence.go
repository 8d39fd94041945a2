// Package persistence provides the data storage abstraction for workflow
// templates, complaints, and staff accounts.
package persistence

import (
	"context"
	"time"

	"github.com/civicops/complaintflow/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ComplaintRepository() ComplaintRepository
	UserRepository() UserRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores designer-authored workflow templates.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	GetPublishedByName(ctx context.Context, name string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ComplaintRepository stores complaint records.
type ComplaintRepository interface {
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	Save(ctx context.Context, complaint *models.Complaint) error
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error)
}

// UserRepository stores staff accounts and the role-permission table used
// for role_based notification recipients.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	RolesForAction(ctx context.Context, actionID string) ([]string, error)
}
