package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expr-lang/expr"

	"github.com/civicops/complaintflow/pkg/directory"
	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/template"
)

// Recipient type values accepted in notification node config.
const (
	recipientComplainant   = "complainant"
	recipientAssignedStaff = "assigned_staff"
	recipientRoleBased     = "role_based"
	recipientCustom        = "custom"
)

type recipient struct {
	name  string
	email string
	phone string
}

// decisionResult records that a decision point was reached. When the node
// config carries a condition expression, it is evaluated against the run
// variables and complaint fields and the outcome is recorded; evaluation
// errors are recorded, not raised, since conditions are designer-authored.
func (o *Orchestrator) decisionResult(node *models.Node) *models.NodeResult {
	result := o.taskResult(node, "decision")

	condition := stringConfig(node.Config, "condition")
	if condition == "" {
		return result
	}

	env := template.ComplaintData(o.ec)

	output, err := expr.Eval(condition, env)
	if err != nil {
		result.Data["condition"] = condition
		result.Data["condition_error"] = err.Error()

		return result
	}

	result.Data["condition"] = condition
	result.Data["outcome"] = output

	return result
}

func (o *Orchestrator) executeEmailNode(ctx context.Context, node *models.Node) (*models.NodeResult, error) {
	to, err := o.resolveRecipient(ctx, node)
	if err != nil {
		return nil, err
	}

	if to.email == "" {
		return skippedResult(node, "no_recipient_email"), nil
	}

	data := template.ComplaintData(o.ec)
	subject := template.Substitute(
		configOrDefault(node.Config, "subject", o.deps.Templates.EmailSubject), data)
	body := template.Substitute(
		configOrDefault(node.Config, "template", o.deps.Templates.EmailBody), data)

	sendErr := errors.New("email sender not configured")
	if o.deps.Email != nil {
		sendErr = o.deps.Email.SendEmail(ctx, to.email, subject, body)
	}

	return o.dispatchResult(ctx, node, "email", to.name, to.email, sendErr), nil
}

func (o *Orchestrator) executeSMSNode(ctx context.Context, node *models.Node) (*models.NodeResult, error) {
	to, err := o.resolveRecipient(ctx, node)
	if err != nil {
		return nil, err
	}

	if to.phone == "" {
		return skippedResult(node, "no_recipient_phone"), nil
	}

	message := template.Substitute(
		configOrDefault(node.Config, "template", o.deps.Templates.SMS),
		template.ComplaintData(o.ec))

	sendErr := errors.New("sms sender not configured")
	if o.deps.SMS != nil {
		sendErr = o.deps.SMS.SendSMS(ctx, to.phone, message)
	}

	return o.dispatchResult(ctx, node, "sms", to.name, to.phone, sendErr), nil
}

func (o *Orchestrator) executeWhatsAppNode(ctx context.Context, node *models.Node) (*models.NodeResult, error) {
	to, err := o.resolveRecipient(ctx, node)
	if err != nil {
		return nil, err
	}

	if to.phone == "" {
		return skippedResult(node, "no_recipient_phone"), nil
	}

	message := template.Substitute(
		configOrDefault(node.Config, "template", o.deps.Templates.WhatsApp),
		template.ComplaintData(o.ec))

	sendErr := errors.New("whatsapp sender not configured")
	if o.deps.WhatsApp != nil {
		sendErr = o.deps.WhatsApp.SendWhatsApp(ctx, to.phone, message)
	}

	return o.dispatchResult(ctx, node, "whatsapp", to.name, to.phone, sendErr), nil
}

// dispatchResult encodes the adapter outcome. Dispatch failure is degraded,
// not fatal: the run continues with success=false recorded for inspection.
func (o *Orchestrator) dispatchResult(ctx context.Context, node *models.Node, channel, name, address string, sendErr error) *models.NodeResult {
	result := &models.NodeResult{
		NodeID:    node.ID,
		Status:    "completed",
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"type":      channel,
			"recipient": address,
			"success":   sendErr == nil,
		},
	}

	if name != "" {
		result.Data["recipient_name"] = name
	}

	if sendErr != nil {
		result.Data["error"] = sendErr.Error()
		o.logger.WarnContext(ctx, "Notification dispatch failed",
			"node_id", node.ID, "channel", channel, "error", sendErr)
	}

	return result
}

// resolveRecipient turns the node's configured recipientType into a concrete
// address. Missing recipients are reported through empty fields and become
// skipped results; only infrastructure failures (lookup errors other than
// not-found) propagate and fail the run.
func (o *Orchestrator) resolveRecipient(ctx context.Context, node *models.Node) (recipient, error) {
	recipientType := stringConfig(node.Config, "recipientType")
	if recipientType == "" {
		recipientType = recipientComplainant
	}

	switch recipientType {
	case recipientComplainant:
		c := o.ec.Complaint
		if c == nil {
			return recipient{}, nil
		}

		return recipient{name: c.ComplainantName, email: c.ComplainantEmail, phone: c.ComplainantPhone}, nil

	case recipientAssignedStaff:
		return o.resolveAssignedStaff(ctx)

	case recipientRoleBased:
		return o.resolveRoleBased(ctx, stringConfig(node.Config, "actionId"))

	case recipientCustom:
		return recipient{
			name:  stringConfig(node.Config, "customName"),
			email: stringConfig(node.Config, "customEmail"),
			phone: stringConfig(node.Config, "customPhone"),
		}, nil

	default:
		// Unrecognized recipient types yield no recipient and a skipped
		// notification, consistent with lenient graph handling.
		return recipient{}, nil
	}
}

func (o *Orchestrator) resolveAssignedStaff(ctx context.Context) (recipient, error) {
	c := o.ec.Complaint
	if c == nil || c.AssignedStaffID == "" || o.deps.Users == nil {
		return recipient{}, nil
	}

	user, err := o.deps.Users.UserByID(ctx, c.AssignedStaffID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return recipient{}, nil
		}

		return recipient{}, fmt.Errorf("failed to resolve assigned staff %s: %w", c.AssignedStaffID, err)
	}

	return recipient{name: user.Name, email: user.Email, phone: user.Phone}, nil
}

// resolveRoleBased resolves all users holding a role permitted for the
// configured action and picks the first as primary recipient.
func (o *Orchestrator) resolveRoleBased(ctx context.Context, actionID string) (recipient, error) {
	if actionID == "" || o.deps.Roles == nil || o.deps.Users == nil {
		return recipient{}, nil
	}

	roles, err := o.deps.Roles.RolesForAction(ctx, actionID)
	if err != nil {
		return recipient{}, fmt.Errorf("failed to resolve roles for action %s: %w", actionID, err)
	}

	users, err := o.deps.Users.AllUsers(ctx)
	if err != nil {
		return recipient{}, fmt.Errorf("failed to list users for role resolution: %w", err)
	}

	matched := directory.UsersWithRoles(users, roles)
	if len(matched) == 0 {
		return recipient{}, nil
	}

	primary := matched[0]

	return recipient{name: primary.Name, email: primary.Email, phone: primary.Phone}, nil
}

func skippedResult(node *models.Node, reason string) *models.NodeResult {
	return &models.NodeResult{
		NodeID:    node.ID,
		Status:    "skipped",
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"status": "skipped",
			"reason": reason,
		},
	}
}

func stringConfig(config map[string]any, key string) string {
	if config == nil {
		return ""
	}

	value, _ := config[key].(string)

	return value
}

func configOrDefault(config map[string]any, key, fallback string) string {
	if value := stringConfig(config, key); value != "" {
		return value
	}

	return fallback
}
