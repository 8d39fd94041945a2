package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civicops/complaintflow/pkg/mocks"
	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence/file"
	"github.com/civicops/complaintflow/pkg/services"
	"github.com/civicops/complaintflow/pkg/web"
)

type testEnv struct {
	app             *fiber.App
	persistence     *file.Persistence
	workflowService *services.Workflow
	eventBus        *mocks.MockEventBus
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	workflowService := services.NewWorkflow(persistence)

	eventBus := &mocks.MockEventBus{}
	eventBus.On("GenerateID").Return("req-test-1").Maybe()
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	runService := services.NewRuns(persistence, eventBus)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(workflowService, runService, validate)
	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/publish", handlers.PublishWorkflow)
	w.Post("/:id/unpublish", handlers.UnpublishWorkflow)
	w.Post("/:id/runs", handlers.TriggerRun)

	return &testEnv{
		app:             app,
		persistence:     persistence,
		workflowService: workflowService,
		eventBus:        eventBus,
	}
}

func linearDefinition() ([]*models.Node, []*models.Edge) {
	nodes := []*models.Node{
		{ID: "start", Type: models.NodeTypeStart, Label: "Complaint Registered"},
		{ID: "notify", Type: models.NodeTypeCustom, Label: "Email Notification"},
		{ID: "end", Type: models.NodeTypeEnd, Label: "Done"},
	}
	edges := []*models.Edge{
		{ID: "e1", Source: "start", Target: "notify"},
		{ID: "e2", Source: "notify", Target: "end"},
	}

	return nodes, edges
}

func seedWorkflow(t *testing.T, env *testEnv) *models.Workflow {
	t.Helper()

	nodes, edges := linearDefinition()
	created, err := env.workflowService.Create(context.Background(), &models.Workflow{
		Name:  "Noise Complaint Intake",
		Nodes: nodes,
		Edges: edges,
	})
	require.NoError(t, err)

	return created
}

func seedComplaint(t *testing.T, env *testEnv, id string) {
	t.Helper()

	err := env.persistence.ComplaintRepository().Save(context.Background(), &models.Complaint{
		ID:               id,
		Status:           models.ComplaintStatusRegistered,
		Priority:         "high",
		ProblemType:      "noise",
		ComplainantName:  "Ada Citizen",
		ComplainantEmail: "ada@example.org",
		ReportedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) *http.Response {
	t.Helper()

	var body []byte

	switch v := payload.(type) {
	case nil:
	case string:
		body = []byte(v)
	default:
		var err error

		body, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	nodes, edges := linearDefinition()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, resp *http.Response)
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Name:      "Noise Complaint Intake",
				Owner:     "inspections",
				Nodes:     nodes,
				Edges:     edges,
				Variables: map[string]any{"department": "environmental"},
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, resp *http.Response) {
				t.Helper()

				var workflow models.Workflow
				decodeBody(t, resp, &workflow)
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, "Noise Complaint Intake", workflow.Name)
				assert.Equal(t, "inspections", workflow.Owner)
				assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
				assert.Len(t, workflow.Nodes, 3)
				assert.Len(t, workflow.Edges, 2)
				assert.Equal(t, "environmental", workflow.Variables["department"])
			},
		},
		{
			name: "definition missing nodes",
			requestBody: map[string]any{
				"name":  "Broken Definition",
				"edges": []any{},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "definition with unknown node type",
			requestBody: map[string]any{
				"name": "Broken Definition",
				"nodes": []map[string]any{
					{"id": "n1", "type": "teleport", "label": "Nope"},
				},
				"edges": []any{},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "name too short",
			requestBody: web.CreateWorkflowRequest{
				Name:  "No",
				Nodes: nodes,
				Edges: edges,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestApp(t)

			resp := doJSON(t, env.app, http.MethodPost, "/workflows", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				tt.validateResult(t, resp)
			} else {
				_ = resp.Body.Close()
			}
		})
	}
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	created := seedWorkflow(t, env)

	resp := doJSON(t, env.app, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow
	decodeBody(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)

	resp = doJSON(t, env.app, http.MethodGet, "/workflows/ghost", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	seedWorkflow(t, env)

	resp := doJSON(t, env.app, http.MethodGet, "/workflows/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Workflows  []*models.Workflow `json:"workflows"`
		TotalCount int                `json:"total_count"`
	}
	decodeBody(t, resp, &listing)
	assert.Equal(t, 1, listing.TotalCount)
	require.Len(t, listing.Workflows, 1)
	assert.Equal(t, "Noise Complaint Intake", listing.Workflows[0].Name)
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	created := seedWorkflow(t, env)

	newName := "Noise Complaint Intake v2"
	resp := doJSON(t, env.app, http.MethodPatch, "/workflows/"+created.ID, web.UpdateWorkflowRequest{
		Name: &newName,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow
	decodeBody(t, resp, &updated)
	assert.Equal(t, newName, updated.Name)
	assert.Len(t, updated.Nodes, 3)
	assert.Equal(t, models.WorkflowStatusDraft, updated.Status)

	resp = doJSON(t, env.app, http.MethodPatch, "/workflows/ghost", web.UpdateWorkflowRequest{Name: &newName})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_PublishWorkflow(t *testing.T) {
	t.Parallel()

	t.Run("publishes a valid draft", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/publish", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var published models.Workflow
		decodeBody(t, resp, &published)
		assert.Equal(t, models.WorkflowStatusPublished, published.Status)
		assert.NotNil(t, published.PublishedAt)
	})

	t.Run("rejects a cyclic graph", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created, err := env.workflowService.Create(context.Background(), &models.Workflow{
			Name: "Circular Escalation",
			Nodes: []*models.Node{
				{ID: "a", Type: models.NodeTypeTask, Label: "First"},
				{ID: "b", Type: models.NodeTypeTask, Label: "Second"},
			},
			Edges: []*models.Edge{
				{ID: "e1", Source: "a", Target: "b"},
				{ID: "e2", Source: "b", Target: "a"},
			},
		})
		require.NoError(t, err)

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/publish", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/ghost/publish", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_UnpublishWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	created := seedWorkflow(t, env)

	resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/unpublish", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	_, err := env.workflowService.Publish(context.Background(), created.ID)
	require.NoError(t, err)

	resp = doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/unpublish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var unpublished models.Workflow
	decodeBody(t, resp, &unpublished)
	assert.Equal(t, models.WorkflowStatusUnpublished, unpublished.Status)
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	t.Parallel()

	t.Run("deletes a draft", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)

		resp := doJSON(t, env.app, http.MethodDelete, "/workflows/"+created.ID, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err := env.workflowService.FetchByID(context.Background(), created.ID)
		assert.Error(t, err)
	})

	t.Run("refuses to delete a published workflow", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)

		_, err := env.workflowService.Publish(context.Background(), created.ID)
		require.NoError(t, err)

		resp := doJSON(t, env.app, http.MethodDelete, "/workflows/"+created.ID, nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestAPIHandlers_TriggerRun(t *testing.T) {
	t.Parallel()

	t.Run("accepts a run for a published workflow", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)
		seedComplaint(t, env, "AQ-2024-007")

		_, err := env.workflowService.Publish(context.Background(), created.ID)
		require.NoError(t, err)

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/runs", web.TriggerRunRequest{
			ComplaintID: "AQ-2024-007",
			TriggeredBy: "clerk-17",
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var accepted web.TriggerRunResponse
		decodeBody(t, resp, &accepted)
		assert.Equal(t, "req-test-1", accepted.RequestID)
		assert.Equal(t, created.ID, accepted.WorkflowID)
		assert.Equal(t, "AQ-2024-007", accepted.ComplaintID)
		assert.Equal(t, "accepted", accepted.Status)

		env.eventBus.AssertCalled(t, "Publish", mock.Anything, "AQ-2024-007", mock.Anything)
	})

	t.Run("rejects a draft workflow", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)
		seedComplaint(t, env, "AQ-2024-007")

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/runs", web.TriggerRunRequest{
			ComplaintID: "AQ-2024-007",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown complaint", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)

		_, err := env.workflowService.Publish(context.Background(), created.ID)
		require.NoError(t, err)

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/runs", web.TriggerRunRequest{
			ComplaintID: "ghost",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing complaint id", func(t *testing.T) {
		t.Parallel()

		env := setupTestApp(t)
		created := seedWorkflow(t, env)

		resp := doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/runs", map[string]any{})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
