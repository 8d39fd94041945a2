package directory

import (
	"context"
	"fmt"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// Store adapts the persistence layer to the directory source contracts,
// translating not-found errors into ErrNotFound, so notification handlers
// can treat missing records as skippable.
type Store struct {
	p persistence.Persistence
}

// NewStore wraps a persistence layer.
func NewStore(p persistence.Persistence) *Store {
	return &Store{p: p}
}

func (s *Store) ComplaintByID(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, err := s.p.ComplaintRepository().GetByID(ctx, id)
	if persistence.IsComplaintNotFound(err) {
		return nil, fmt.Errorf("%w: complaint %s", ErrNotFound, id)
	}

	return complaint, err
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.p.UserRepository().GetByID(ctx, id)
	if persistence.IsUserNotFound(err) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}

	return user, err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.p.UserRepository().GetByEmail(ctx, email)
	if persistence.IsUserNotFound(err) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}

	return user, err
}

func (s *Store) AllUsers(ctx context.Context) ([]*models.User, error) {
	return s.p.UserRepository().List(ctx)
}

func (s *Store) RolesForAction(ctx context.Context, actionID string) ([]string, error) {
	return s.p.UserRepository().RolesForAction(ctx, actionID)
}
