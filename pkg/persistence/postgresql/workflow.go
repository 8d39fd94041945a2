package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// WorkflowRepository stores workflow templates with the graph held as JSONB.
type WorkflowRepository struct {
	db *sql.DB
}

const workflowColumns = `id, name, description, status, nodes, edges, variables, owner, created_at, updated_at, published_at`

func (wr *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := wr.db.QueryContext(ctx, `SELECT `+workflowColumns+` FROM workflows ORDER BY created_at`)
	if err != nil {
		return nil, persistence.NewRepositoryError("List", "workflow", "", err)
	}
	defer rows.Close()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, persistence.NewRepositoryError("List", "workflow", "", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRepositoryError("List", "workflow", "", err)
	}

	return workflows, nil
}

func (wr *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := wr.db.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id)

	workflow, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("GetByID", "workflow", id, err)
	}

	return workflow, nil
}

func (wr *WorkflowRepository) GetPublishedByName(ctx context.Context, name string) (*models.Workflow, error) {
	row := wr.db.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE name = $1 AND status = $2`,
		name, string(models.WorkflowStatusPublished))

	workflow, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("GetPublishedByName", "workflow", name, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("GetPublishedByName", "workflow", name, err)
	}

	return workflow, nil
}

func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	edges, err := json.Marshal(workflow.Edges)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	variables, err := json.Marshal(workflow.Variables)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	_, err = wr.db.ExecContext(ctx, `
		INSERT INTO workflows (`+workflowColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			variables = EXCLUDED.variables,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at`,
		workflow.ID, workflow.Name, workflow.Description, string(workflow.Status),
		nodes, edges, variables, workflow.Owner,
		workflow.CreatedAt, workflow.UpdatedAt, workflow.PublishedAt)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := wr.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewRepositoryError("Delete", "workflow", id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow  models.Workflow
		status    string
		nodes     []byte
		edges     []byte
		variables []byte
	)

	err := row.Scan(&workflow.ID, &workflow.Name, &workflow.Description, &status,
		&nodes, &edges, &variables, &workflow.Owner,
		&workflow.CreatedAt, &workflow.UpdatedAt, &workflow.PublishedAt)
	if err != nil {
		return nil, err
	}

	workflow.Status = models.WorkflowStatus(status)

	err = json.Unmarshal(nodes, &workflow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow nodes: %w", err)
	}

	err = json.Unmarshal(edges, &workflow.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow edges: %w", err)
	}

	err = json.Unmarshal(variables, &workflow.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow variables: %w", err)
	}

	return &workflow, nil
}
