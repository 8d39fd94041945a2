package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civicops/complaintflow/pkg/mocks"
	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/template"
)

func testComplaint() *models.Complaint {
	due := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	return &models.Complaint{
		ID:               "AQ-2024-007",
		Status:           models.ComplaintStatusInspection,
		Priority:         "high",
		ProblemType:      "water leak",
		Description:      "Burst pipe on Main St",
		Location:         "Main St 42",
		ComplainantName:  "Amina Yusuf",
		ComplainantEmail: "amina@example.com",
		ComplainantPhone: "+5511999990000",
		AssignedStaffID:  "staff-1",
		ReportedAt:       time.Date(2024, 3, 28, 8, 30, 0, 0, time.UTC),
		DueAt:            &due,
	}
}

func testContext() *models.ExecutionContext {
	ec := models.NewExecutionContext("exec-1", "wf-1", "AQ-2024-007")
	ec.Complaint = testComplaint()

	return ec
}

func linearNodes() ([]*models.Node, []*models.Edge) {
	nodes := []*models.Node{
		{ID: "start", Type: models.NodeTypeStart, Label: "Start"},
		{ID: "inspect", Type: models.NodeTypeCustom, Label: "Initial Inspection"},
		{ID: "notify", Type: models.NodeTypeCustom, Label: "Email Notification"},
		{ID: "end", Type: models.NodeTypeEnd, Label: "End"},
	}
	edges := []*models.Edge{
		{ID: "e1", Source: "start", Target: "inspect"},
		{ID: "e2", Source: "inspect", Target: "notify"},
		{ID: "e3", Source: "notify", Target: "end"},
	}

	return nodes, edges
}

func TestNew_RejectsCyclicGraph(t *testing.T) {
	nodes := []*models.Node{
		{ID: "a", Type: models.NodeTypeTask, Label: "A"},
		{ID: "b", Type: models.NodeTypeTask, Label: "B"},
	}
	edges := []*models.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "a"},
	}

	_, err := New(nodes, edges, testContext(), Dependencies{Templates: template.BuiltinDefaults()})
	require.Error(t, err)
}

func TestExecuteWorkflow_LinearRun(t *testing.T) {
	nodes, edges := linearNodes()

	email := new(mocks.MockEmailSender)
	email.On("SendEmail", mock.Anything, "amina@example.com", mock.Anything, mock.Anything).Return(nil)

	orch, err := New(nodes, edges, testContext(), Dependencies{
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "inspect", "notify", "end"}, orch.Order())

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "workflow_started", results["start"].Data["marker"])
	assert.Equal(t, "initial_inspection", results["inspect"].Data["stage"])
	assert.Equal(t, true, results["inspect"].Data["requires_human_task"])
	assert.Equal(t, true, results["notify"].Data["success"])
	assert.Equal(t, "workflow_finished", results["end"].Data["marker"])

	for _, id := range orch.Order() {
		assert.Equal(t, models.NodeStatusCompleted, orch.NodeStatus(id))
	}

	email.AssertExpectations(t)
}

func TestExecuteWorkflow_EmailBodySubstituted(t *testing.T) {
	nodes := []*models.Node{
		{
			ID:    "notify",
			Type:  models.NodeTypeCustom,
			Label: "Email Notification",
			Config: map[string]any{
				"subject":  "Complaint {{complaintId}}",
				"template": "Status is {{status}}",
			},
		},
	}

	email := new(mocks.MockEmailSender)
	email.On("SendEmail", mock.Anything, "amina@example.com",
		"Complaint AQ-2024-007", "Status is inspection").Return(nil)

	orch, err := New(nodes, nil, testContext(), Dependencies{
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	_, err = orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	email.AssertExpectations(t)
}

func TestExecuteWorkflow_DeliveryFailureIsNotFatal(t *testing.T) {
	nodes, edges := linearNodes()

	email := new(mocks.MockEmailSender)
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("gateway unavailable"))

	orch, err := New(nodes, edges, testContext(), Dependencies{
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, false, results["notify"].Data["success"])
	assert.Equal(t, "gateway unavailable", results["notify"].Data["error"])
	assert.Equal(t, models.NodeStatusCompleted, orch.NodeStatus("notify"))
}

func TestExecuteWorkflow_NoSenderConfigured(t *testing.T) {
	nodes := []*models.Node{
		{ID: "sms", Type: models.NodeTypeCustom, Label: "SMS Notification"},
	}

	orch, err := New(nodes, nil, testContext(), Dependencies{Templates: template.BuiltinDefaults()})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, false, results["sms"].Data["success"])
	assert.Contains(t, results["sms"].Data["error"], "not configured")
}

func TestExecuteWorkflow_MissingEmailSkips(t *testing.T) {
	nodes := []*models.Node{
		{ID: "notify", Type: models.NodeTypeCustom, Label: "Email Notification"},
	}

	ec := testContext()
	ec.Complaint.ComplainantEmail = ""

	email := new(mocks.MockEmailSender)

	orch, err := New(nodes, nil, ec, Dependencies{
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "skipped", results["notify"].Status)
	assert.Equal(t, "no_recipient_email", results["notify"].Data["reason"])
	email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteWorkflow_CustomRecipientEmptyEmailSkips(t *testing.T) {
	nodes := []*models.Node{
		{ID: "notify", Type: models.NodeTypeCustom, Label: "Email Notification", Config: map[string]any{
			"recipientType": "custom",
			"customEmail":   "",
		}},
	}

	email := new(mocks.MockEmailSender)

	orch, err := New(nodes, nil, testContext(), Dependencies{
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "skipped", results["notify"].Status)
	assert.Equal(t, "no_recipient_email", results["notify"].Data["reason"])
	email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteWorkflow_MissingPhoneSkips(t *testing.T) {
	nodes := []*models.Node{
		{ID: "sms", Type: models.NodeTypeCustom, Label: "SMS Notification"},
		{ID: "wa", Type: models.NodeTypeCustom, Label: "WhatsApp Notification"},
	}

	ec := testContext()
	ec.Complaint.ComplainantPhone = ""

	orch, err := New(nodes, nil, ec, Dependencies{Templates: template.BuiltinDefaults()})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "no_recipient_phone", results["sms"].Data["reason"])
	assert.Equal(t, "no_recipient_phone", results["wa"].Data["reason"])
}

func TestExecuteWorkflow_AssignedStaffRecipient(t *testing.T) {
	nodes := []*models.Node{
		{
			ID:     "notify",
			Type:   models.NodeTypeCustom,
			Label:  "Email Notification",
			Config: map[string]any{"recipientType": "assigned_staff"},
		},
	}

	users := new(mocks.MockUserSource)
	users.On("UserByID", mock.Anything, "staff-1").Return(&models.User{
		ID:     "staff-1",
		Name:   "Inspector Silva",
		Email:  "silva@city.gov",
		Active: true,
	}, nil)

	email := new(mocks.MockEmailSender)
	email.On("SendEmail", mock.Anything, "silva@city.gov", mock.Anything, mock.Anything).Return(nil)

	orch, err := New(nodes, nil, testContext(), Dependencies{
		Users:     users,
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "silva@city.gov", results["notify"].Data["recipient"])
	email.AssertExpectations(t)
}

func TestExecuteWorkflow_RoleBasedRecipient(t *testing.T) {
	nodes := []*models.Node{
		{
			ID:    "notify",
			Type:  models.NodeTypeCustom,
			Label: "Email Notification",
			Config: map[string]any{
				"recipientType": "role_based",
				"actionId":      "approve_enforcement",
			},
		},
	}

	roles := new(mocks.MockRoleSource)
	roles.On("RolesForAction", mock.Anything, "approve_enforcement").Return([]string{"supervisor"}, nil)

	users := new(mocks.MockUserSource)
	users.On("AllUsers", mock.Anything).Return([]*models.User{
		{ID: "u1", Name: "Clerk", Email: "clerk@city.gov", Roles: []string{"clerk"}, Active: true},
		{ID: "u2", Name: "Boss", Email: "boss@city.gov", Roles: []string{"supervisor"}, Active: true},
	}, nil)

	email := new(mocks.MockEmailSender)
	email.On("SendEmail", mock.Anything, "boss@city.gov", mock.Anything, mock.Anything).Return(nil)

	orch, err := New(nodes, nil, testContext(), Dependencies{
		Users:     users,
		Roles:     roles,
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	_, err = orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	email.AssertExpectations(t)
}

func TestExecuteWorkflow_CustomRecipient(t *testing.T) {
	nodes := []*models.Node{
		{
			ID:    "notify",
			Type:  models.NodeTypeCustom,
			Label: "Email Notification",
			Config: map[string]any{
				"recipientType": "custom",
				"customName":    "Ombudsman",
				"customEmail":   "ombudsman@city.gov",
			},
		},
	}

	email := new(mocks.MockEmailSender)
	email.On("SendEmail", mock.Anything, "ombudsman@city.gov", mock.Anything, mock.Anything).Return(nil)

	orch, err := New(nodes, nil, testContext(), Dependencies{
		Email:     email,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Ombudsman", results["notify"].Data["recipient_name"])
	email.AssertExpectations(t)
}

func TestExecuteWorkflow_LookupErrorAbortsRun(t *testing.T) {
	nodes := []*models.Node{
		{ID: "early", Type: models.NodeTypeTask, Label: "Register"},
		{
			ID:     "notify",
			Type:   models.NodeTypeCustom,
			Label:  "Email Notification",
			Config: map[string]any{"recipientType": "assigned_staff"},
		},
		{ID: "late", Type: models.NodeTypeTask, Label: "Close"},
	}
	edges := []*models.Edge{
		{ID: "e1", Source: "early", Target: "notify"},
		{ID: "e2", Source: "notify", Target: "late"},
	}

	users := new(mocks.MockUserSource)
	users.On("UserByID", mock.Anything, "staff-1").Return(nil, errors.New("directory timeout"))

	orch, err := New(nodes, edges, testContext(), Dependencies{
		Users:     users,
		Templates: template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	_, err = orch.ExecuteWorkflow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify")

	assert.Equal(t, models.NodeStatusCompleted, orch.NodeStatus("early"))
	assert.Equal(t, models.NodeStatusFailed, orch.NodeStatus("notify"))
	assert.Equal(t, models.NodeStatusPending, orch.NodeStatus("late"))
}

func TestExecuteWorkflow_DecisionCondition(t *testing.T) {
	nodes := []*models.Node{
		{
			ID:     "decide",
			Type:   models.NodeTypeDecision,
			Label:  "Needs enforcement?",
			Config: map[string]any{"condition": `priority == "high"`},
		},
	}

	orch, err := New(nodes, nil, testContext(), Dependencies{Templates: template.BuiltinDefaults()})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, true, results["decide"].Data["outcome"])
}

func TestExecuteWorkflow_DecisionConditionErrorRecorded(t *testing.T) {
	nodes := []*models.Node{
		{
			ID:     "decide",
			Type:   models.NodeTypeDecision,
			Label:  "Broken",
			Config: map[string]any{"condition": "priority =="},
		},
	}

	orch, err := New(nodes, nil, testContext(), Dependencies{Templates: template.BuiltinDefaults()})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, results["decide"].Data["condition_error"])
}

func TestExecuteWorkflow_UnknownCustomLabelCompletes(t *testing.T) {
	nodes := []*models.Node{
		{ID: "odd", Type: models.NodeTypeCustom, Label: "Experimental Step"},
	}

	orch, err := New(nodes, nil, testContext(), Dependencies{Templates: template.BuiltinDefaults()})
	require.NoError(t, err)

	results, err := orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "completed", results["odd"].Status)
	assert.Contains(t, results["odd"].Data["message"], "Experimental Step")
}

func TestExecuteWorkflow_LoadsComplaintOnce(t *testing.T) {
	nodes := []*models.Node{
		{ID: "a", Type: models.NodeTypeTask, Label: "One"},
		{ID: "b", Type: models.NodeTypeTask, Label: "Two"},
	}

	complaints := new(mocks.MockComplaintSource)
	complaints.On("ComplaintByID", mock.Anything, "AQ-2024-007").Return(testComplaint(), nil).Once()

	ec := models.NewExecutionContext("exec-1", "wf-1", "AQ-2024-007")

	orch, err := New(nodes, nil, ec, Dependencies{
		Complaints: complaints,
		Templates:  template.BuiltinDefaults(),
	})
	require.NoError(t, err)

	_, err = orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	complaints.AssertExpectations(t)
}

type recordingObserver struct {
	results []*models.NodeResult
}

func (r *recordingObserver) ObserveNodeResult(_ context.Context, _ *models.ExecutionContext, result *models.NodeResult) {
	r.results = append(r.results, result)
}

func TestExecuteWorkflow_ObserverSeesEveryResult(t *testing.T) {
	nodes, edges := linearNodes()

	observer := &recordingObserver{}

	orch, err := New(nodes, edges, testContext(), Dependencies{
		Templates: template.BuiltinDefaults(),
		Observer:  observer,
	})
	require.NoError(t, err)

	_, err = orch.ExecuteWorkflow(context.Background())
	require.NoError(t, err)

	require.Len(t, observer.results, 4)
	assert.Equal(t, "start", observer.results[0].NodeID)
	assert.Equal(t, "end", observer.results[3].NodeID)
}
