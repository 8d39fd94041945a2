package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/civicops/complaintflow/pkg/models"
)

// MockComplaintSource is a mock implementation of directory.ComplaintSource.
type MockComplaintSource struct {
	mock.Mock
}

func (m *MockComplaintSource) ComplaintByID(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)

	if complaint := args.Get(0); complaint != nil {
		return complaint.(*models.Complaint), args.Error(1)
	}

	return nil, args.Error(1)
}

// MockUserSource is a mock implementation of directory.UserSource.
type MockUserSource struct {
	mock.Mock
}

func (m *MockUserSource) UserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)

	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserSource) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)

	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserSource) AllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)

	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Error(1)
	}

	return nil, args.Error(1)
}

// MockRoleSource is a mock implementation of directory.RoleSource.
type MockRoleSource struct {
	mock.Mock
}

func (m *MockRoleSource) RolesForAction(ctx context.Context, actionID string) ([]string, error) {
	args := m.Called(ctx, actionID)

	if roles := args.Get(0); roles != nil {
		return roles.([]string), args.Error(1)
	}

	return nil, args.Error(1)
}
