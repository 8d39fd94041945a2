package file

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// ComplaintRepository handles complaint file operations.
type ComplaintRepository struct {
	dir string
}

// NewComplaintRepository creates a new complaint repository.
func NewComplaintRepository(root string) *ComplaintRepository {
	return &ComplaintRepository{dir: filepath.Join(root, "complaints")}
}

func (cr *ComplaintRepository) GetByID(_ context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint

	found, err := readDocument(cr.dir, id, &complaint)
	if err != nil {
		return nil, persistence.NewRepositoryError("GetByID", "complaint", id, err)
	}

	if !found {
		return nil, persistence.NewRepositoryError("GetByID", "complaint", id, persistence.ErrComplaintNotFound)
	}

	return &complaint, nil
}

func (cr *ComplaintRepository) Save(_ context.Context, complaint *models.Complaint) error {
	err := writeDocument(cr.dir, complaint.ID, complaint)
	if err != nil {
		return persistence.NewRepositoryError("Save", "complaint", complaint.ID, err)
	}

	return nil
}

func (cr *ComplaintRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error) {
	ids, err := listDocumentIDs(cr.dir)
	if err != nil {
		return nil, persistence.NewRepositoryError("ListOverdue", "complaint", "", err)
	}

	sort.Strings(ids)

	overdue := make([]*models.Complaint, 0)

	for _, id := range ids {
		complaint, err := cr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if complaint.Overdue(now) {
			overdue = append(overdue, complaint)
		}
	}

	return overdue, nil
}

// UserRepository handles staff account file operations. Role-permission
// mappings live in one actions.json document keyed by action id.
type UserRepository struct {
	dir string
}

// NewUserRepository creates a new user repository.
func NewUserRepository(root string) *UserRepository {
	return &UserRepository{dir: filepath.Join(root, "users")}
}

func (ur *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	var user models.User

	found, err := readDocument(ur.dir, id, &user)
	if err != nil {
		return nil, persistence.NewRepositoryError("GetByID", "user", id, err)
	}

	if !found {
		return nil, persistence.NewRepositoryError("GetByID", "user", id, persistence.ErrUserNotFound)
	}

	return &user, nil
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := ur.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}

	return nil, persistence.NewRepositoryError("GetByEmail", "user", email, persistence.ErrUserNotFound)
}

func (ur *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	ids, err := listDocumentIDs(ur.dir)
	if err != nil {
		return nil, persistence.NewRepositoryError("List", "user", "", err)
	}

	sort.Strings(ids)

	users := make([]*models.User, 0, len(ids))

	for _, id := range ids {
		if id == "actions" {
			continue
		}

		user, err := ur.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		users = append(users, user)
	}

	return users, nil
}

func (ur *UserRepository) RolesForAction(_ context.Context, actionID string) ([]string, error) {
	var actions map[string][]string

	found, err := readDocument(ur.dir, "actions", &actions)
	if err != nil {
		return nil, persistence.NewRepositoryError("RolesForAction", "user", actionID, err)
	}

	if !found {
		return nil, nil
	}

	return actions[actionID], nil
}

// SaveUser writes a staff account document. Used by tests and seeding.
func (ur *UserRepository) SaveUser(_ context.Context, user *models.User) error {
	err := writeDocument(ur.dir, user.ID, user)
	if err != nil {
		return persistence.NewRepositoryError("Save", "user", user.ID, err)
	}

	return nil
}

// SaveActionRoles writes the role-permission table.
func (ur *UserRepository) SaveActionRoles(_ context.Context, actions map[string][]string) error {
	err := writeDocument(ur.dir, "actions", actions)
	if err != nil {
		return persistence.NewRepositoryError("SaveActionRoles", "user", "actions", err)
	}

	return nil
}
