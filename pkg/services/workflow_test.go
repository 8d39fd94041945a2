package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence/file"
)

func validWorkflow(name string) *models.Workflow {
	return &models.Workflow{
		Name: name,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart, Label: "Start"},
			{ID: "end", Type: models.NodeTypeEnd, Label: "End"},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "end"},
		},
	}
}

func newTestWorkflowService(t *testing.T) *Workflow {
	t.Helper()

	return NewWorkflow(file.NewPersistence(t.TempDir()))
}

func TestWorkflow_Create(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow("Water Leak Handling"))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := service.FetchByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water Leak Handling", fetched.Name)
}

func TestWorkflow_Create_InvalidName(t *testing.T) {
	service := newTestWorkflowService(t)

	_, err := service.Create(context.Background(), validWorkflow("ab"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestWorkflow_FetchByID_NotFound(t *testing.T) {
	service := newTestWorkflowService(t)

	_, err := service.FetchByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_Publish(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow("Water Leak Handling"))
	require.NoError(t, err)

	published, err := service.Publish(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
}

func TestWorkflow_Publish_UnpublishesPrevious(t *testing.T) {
	service := newTestWorkflowService(t)
	ctx := context.Background()

	first, err := service.Create(ctx, validWorkflow("Water Leak Handling"))
	require.NoError(t, err)
	_, err = service.Publish(ctx, first.ID)
	require.NoError(t, err)

	second, err := service.Create(ctx, validWorkflow("Water Leak Handling"))
	require.NoError(t, err)
	_, err = service.Publish(ctx, second.ID)
	require.NoError(t, err)

	previous, err := service.FetchByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusUnpublished, previous.Status)
}

func TestWorkflow_Publish_RejectsCycle(t *testing.T) {
	service := newTestWorkflowService(t)

	cyclic := validWorkflow("Cyclic Flow")
	cyclic.Edges = append(cyclic.Edges, &models.Edge{ID: "e2", Source: "end", Target: "start"})

	created, err := service.Create(context.Background(), cyclic)
	require.NoError(t, err)

	_, err = service.Publish(context.Background(), created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphHasCycle)
	assert.True(t, IsValidationError(err))
}

func TestWorkflow_Publish_RejectsEmptyGraph(t *testing.T) {
	service := newTestWorkflowService(t)

	empty := validWorkflow("Empty Flow")
	empty.Nodes = nil
	empty.Edges = nil

	created, err := service.Create(context.Background(), empty)
	require.NoError(t, err)

	_, err = service.Publish(context.Background(), created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodesRequired)
}

func TestWorkflow_Delete_PublishedConflict(t *testing.T) {
	service := newTestWorkflowService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validWorkflow("Water Leak Handling"))
	require.NoError(t, err)
	_, err = service.Publish(ctx, created.ID)
	require.NoError(t, err)

	err = service.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCannotDeletePublished)
	assert.True(t, IsConflictError(err))
}

func TestWorkflow_Unpublish_RequiresPublished(t *testing.T) {
	service := newTestWorkflowService(t)

	created, err := service.Create(context.Background(), validWorkflow("Water Leak Handling"))
	require.NoError(t, err)

	_, err = service.Unpublish(context.Background(), created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPublished)
}

func TestWorkflow_Update_PreservesStatus(t *testing.T) {
	service := newTestWorkflowService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validWorkflow("Water Leak Handling"))
	require.NoError(t, err)
	_, err = service.Publish(ctx, created.ID)
	require.NoError(t, err)

	changed := validWorkflow("Water Leak Handling v2")

	updated, err := service.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPublished, updated.Status)
	assert.Equal(t, "Water Leak Handling v2", updated.Name)
}
