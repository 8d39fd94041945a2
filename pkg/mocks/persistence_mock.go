package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) WorkflowRepository() persistence.WorkflowRepository {
	args := m.Called()

	return args.Get(0).(persistence.WorkflowRepository)
}

func (m *MockPersistence) ComplaintRepository() persistence.ComplaintRepository {
	args := m.Called()

	return args.Get(0).(persistence.ComplaintRepository)
}

func (m *MockPersistence) UserRepository() persistence.UserRepository {
	args := m.Called()

	return args.Get(0).(persistence.UserRepository)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockWorkflowRepository is a mock implementation of persistence.WorkflowRepository.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	args := m.Called(ctx)

	if workflows := args.Get(0); workflows != nil {
		return workflows.([]*models.Workflow), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)

	if workflow := args.Get(0); workflow != nil {
		return workflow.(*models.Workflow), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockWorkflowRepository) GetPublishedByName(ctx context.Context, name string) (*models.Workflow, error) {
	args := m.Called(ctx, name)

	if workflow := args.Get(0); workflow != nil {
		return workflow.(*models.Workflow), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockWorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockComplaintRepository is a mock implementation of persistence.ComplaintRepository.
type MockComplaintRepository struct {
	mock.Mock
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)

	if complaint := args.Get(0); complaint != nil {
		return complaint.(*models.Complaint), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockComplaintRepository) Save(ctx context.Context, complaint *models.Complaint) error {
	args := m.Called(ctx, complaint)

	return args.Error(0)
}

func (m *MockComplaintRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error) {
	args := m.Called(ctx, now)

	if complaints := args.Get(0); complaints != nil {
		return complaints.([]*models.Complaint), args.Error(1)
	}

	return nil, args.Error(1)
}

// MockUserRepository is a mock implementation of persistence.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)

	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)

	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)

	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) RolesForAction(ctx context.Context, actionID string) ([]string, error) {
	args := m.Called(ctx, actionID)

	if roles := args.Get(0); roles != nil {
		return roles.([]string), args.Error(1)
	}

	return nil, args.Error(1)
}
