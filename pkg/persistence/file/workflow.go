package file

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// WorkflowRepository handles workflow template file operations.
type WorkflowRepository struct {
	dir string
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{dir: filepath.Join(root, "workflows")}
}

func (wr *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := listDocumentIDs(wr.dir)
	if err != nil {
		return nil, persistence.NewRepositoryError("List", "workflow", "", err)
	}

	sort.Strings(ids)

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := readDocument(wr.dir, id, &workflow)
	if err != nil {
		return nil, persistence.NewRepositoryError("GetByID", "workflow", id, err)
	}

	if !found {
		return nil, persistence.NewRepositoryError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

func (wr *WorkflowRepository) GetPublishedByName(ctx context.Context, name string) (*models.Workflow, error) {
	workflows, err := wr.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, workflow := range workflows {
		if workflow.Name == name && workflow.Status == models.WorkflowStatusPublished {
			return workflow, nil
		}
	}

	return nil, persistence.NewRepositoryError("GetPublishedByName", "workflow", name, persistence.ErrWorkflowNotFound)
}

func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	err := writeDocument(wr.dir, workflow.ID, workflow)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := removeDocument(wr.dir, id)
	if err != nil {
		return persistence.NewRepositoryError("Delete", "workflow", id, err)
	}

	return nil
}
