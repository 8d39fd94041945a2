// Package orchestrator executes a complaint workflow graph: it computes a
// deterministic topological order and drives each node's effect against a
// single execution context.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicops/complaintflow/pkg/directory"
	"github.com/civicops/complaintflow/pkg/graph"
	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/notify"
	"github.com/civicops/complaintflow/pkg/otelhelper"
	"github.com/civicops/complaintflow/pkg/template"
)

// ResultObserver receives each node result as it is produced. Observers are
// cross-cutting (audit trail, event publication) and must not influence the
// run: observer errors are not surfaced here.
type ResultObserver interface {
	ObserveNodeResult(ctx context.Context, ec *models.ExecutionContext, result *models.NodeResult)
}

// Dependencies are the external collaborators node handlers call into. Only
// the sources used by the graph being executed need to be non-nil; a graph
// without notification nodes runs fine with nil senders.
type Dependencies struct {
	Complaints directory.ComplaintSource
	Users      directory.UserSource
	Roles      directory.RoleSource
	Email      notify.EmailSender
	SMS        notify.SMSSender
	WhatsApp   notify.WhatsAppSender
	Templates  template.Defaults
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Observer   ResultObserver
}

// Orchestrator executes one workflow run. An instance is single-use and
// exclusively owns its execution context; concurrent runs for the same
// complaint each get their own instance.
type Orchestrator struct {
	graph    *graph.Graph
	order    []string
	ec       *models.ExecutionContext
	deps     Dependencies
	statuses map[string]models.NodeStatus
	logger   *slog.Logger
}

// New validates the graph and eagerly computes the execution order, so a
// cyclic or malformed graph fails here, before any node executes.
func New(nodes []*models.Node, edges []*models.Edge, ec *models.ExecutionContext, deps Dependencies) (*Orchestrator, error) {
	g, err := graph.Build(nodes, edges)
	if err != nil {
		return nil, err
	}

	order, err := g.ComputeOrder()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		"module", "orchestrator",
		"execution_id", ec.ID,
		"complaint_id", ec.ComplaintID,
	)

	statuses := make(map[string]models.NodeStatus, len(order))
	for _, id := range order {
		statuses[id] = models.NodeStatusPending
	}

	return &Orchestrator{
		graph:    g,
		order:    order,
		ec:       ec,
		deps:     deps,
		statuses: statuses,
		logger:   logger,
	}, nil
}

// Order returns the precomputed execution order.
func (o *Orchestrator) Order() []string {
	return o.order
}

// NodeStatus returns the execution status of a single node.
func (o *Orchestrator) NodeStatus(nodeID string) models.NodeStatus {
	return o.statuses[nodeID]
}

// AllStatuses returns a copy of the per-node status map.
func (o *Orchestrator) AllStatuses() map[string]models.NodeStatus {
	statuses := make(map[string]models.NodeStatus, len(o.statuses))
	for id, status := range o.statuses {
		statuses[id] = status
	}

	return statuses
}

// ExecuteWorkflow loads the complaint snapshot once, then executes every node
// strictly sequentially in the precomputed order. A handler error marks that
// node failed and aborts the run immediately: later nodes stay pending and
// effects of already-completed nodes stand uncorrected. Runs are not atomic.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context) (map[string]*models.NodeResult, error) {
	o.logger.InfoContext(ctx, "Starting workflow execution", "nodes", len(o.order))

	if o.ec.Complaint == nil {
		if o.deps.Complaints == nil {
			return nil, fmt.Errorf("no complaint snapshot and no complaint source for %s", o.ec.ComplaintID)
		}

		complaint, err := o.deps.Complaints.ComplaintByID(ctx, o.ec.ComplaintID)
		if err != nil {
			return nil, fmt.Errorf("failed to load complaint %s: %w", o.ec.ComplaintID, err)
		}

		o.ec.Complaint = complaint
	}

	for _, nodeID := range o.order {
		node, _ := o.graph.NodeByID(nodeID)

		result, err := o.executeNode(ctx, node)
		if err != nil {
			o.statuses[nodeID] = models.NodeStatusFailed
			o.logger.ErrorContext(ctx, "Node execution failed, aborting run",
				"node_id", nodeID, "error", err)

			return o.ec.Results, fmt.Errorf("node %s failed: %w", nodeID, err)
		}

		o.ec.Results[nodeID] = result
		o.statuses[nodeID] = models.NodeStatusCompleted

		if o.deps.Observer != nil {
			o.deps.Observer.ObserveNodeResult(ctx, o.ec, result)
		}
	}

	o.logger.InfoContext(ctx, "Workflow execution completed", "results", len(o.ec.Results))

	return o.ec.Results, nil
}

func (o *Orchestrator) executeNode(ctx context.Context, node *models.Node) (*models.NodeResult, error) {
	o.statuses[node.ID] = models.NodeStatusRunning
	o.logger.InfoContext(ctx, "Executing node",
		"node_id", node.ID, "node_type", node.Type, "node_label", node.Label)

	var span trace.Span
	if o.deps.Tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, o.deps.Tracer, "orchestrator.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
			attribute.String(otelhelper.ExecutionIDKey, o.ec.ID),
		)
		defer span.End()
	}

	result, err := o.dispatch(ctx, node)
	if err != nil {
		if span != nil {
			otelhelper.SetError(span, err)
		}

		return nil, err
	}

	return result, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, node *models.Node) (*models.NodeResult, error) {
	switch node.Type {
	case models.NodeTypeStart:
		return markerResult(node, "workflow_started"), nil
	case models.NodeTypeEnd:
		return markerResult(node, "workflow_finished"), nil
	case models.NodeTypeTask:
		return o.taskResult(node, "task"), nil
	case models.NodeTypeDecision:
		return o.decisionResult(node), nil
	case models.NodeTypeCustom:
		return o.dispatchCustom(ctx, node)
	default:
		// Unknown node types are tolerated: graphs are end-user-authored and
		// may contain experimental nodes.
		return &models.NodeResult{
			NodeID:    node.ID,
			Status:    "skipped",
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"reason":    "unknown_node_type",
				"node_type": string(node.Type),
			},
		}, nil
	}
}

func (o *Orchestrator) dispatchCustom(ctx context.Context, node *models.Node) (*models.NodeResult, error) {
	kind := o.graph.KindOf(node.ID)

	switch kind {
	case models.KindEmailNotification:
		return o.executeEmailNode(ctx, node)
	case models.KindSmsNotification:
		return o.executeSMSNode(ctx, node)
	case models.KindWhatsAppNotification:
		return o.executeWhatsAppNode(ctx, node)
	case models.KindInitialInspection, models.KindAssessment,
		models.KindEnforcementAction, models.KindResolution:
		return o.taskResult(node, kind.String()), nil
	case models.KindUnknown:
		return &models.NodeResult{
			NodeID:    node.ID,
			Status:    "completed",
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"message": fmt.Sprintf("completed, unknown custom label %q", node.Label),
			},
		}, nil
	default:
		return nil, fmt.Errorf("unhandled custom node kind %s for node %s", kind, node.ID)
	}
}

func markerResult(node *models.Node, marker string) *models.NodeResult {
	return &models.NodeResult{
		NodeID:    node.ID,
		Status:    "completed",
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"marker": marker,
		},
	}
}

// taskResult records that a downstream task is to be created for human
// action. The orchestrator itself does not persist the task row; callers
// read this result and invoke the task collaborator.
func (o *Orchestrator) taskResult(node *models.Node, stage string) *models.NodeResult {
	return &models.NodeResult{
		NodeID:    node.ID,
		Status:    "completed",
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"stage":               stage,
			"message":             fmt.Sprintf("%s task pending for complaint %s", stage, o.ec.ComplaintID),
			"requires_human_task": true,
		},
	}
}
