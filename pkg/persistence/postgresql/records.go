package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/civicops/complaintflow/pkg/models"
	"github.com/civicops/complaintflow/pkg/persistence"
)

// ComplaintRepository stores complaint records.
type ComplaintRepository struct {
	db *sql.DB
}

const complaintColumns = `id, status, priority, problem_type, description, location,
	complainant_name, complainant_email, complainant_phone, assigned_staff_id,
	reported_at, due_at, updated_at`

func (cr *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	row := cr.db.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)

	complaint, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("GetByID", "complaint", id, persistence.ErrComplaintNotFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("GetByID", "complaint", id, err)
	}

	return complaint, nil
}

func (cr *ComplaintRepository) Save(ctx context.Context, complaint *models.Complaint) error {
	var assigned sql.NullString
	if complaint.AssignedStaffID != "" {
		assigned = sql.NullString{String: complaint.AssignedStaffID, Valid: true}
	}

	_, err := cr.db.ExecContext(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			problem_type = EXCLUDED.problem_type,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			complainant_name = EXCLUDED.complainant_name,
			complainant_email = EXCLUDED.complainant_email,
			complainant_phone = EXCLUDED.complainant_phone,
			assigned_staff_id = EXCLUDED.assigned_staff_id,
			due_at = EXCLUDED.due_at,
			updated_at = EXCLUDED.updated_at`,
		complaint.ID, string(complaint.Status), complaint.Priority, complaint.ProblemType,
		complaint.Description, complaint.Location, complaint.ComplainantName,
		complaint.ComplainantEmail, complaint.ComplainantPhone, assigned,
		complaint.ReportedAt, complaint.DueAt, complaint.UpdatedAt)
	if err != nil {
		return persistence.NewRepositoryError("Save", "complaint", complaint.ID, err)
	}

	return nil
}

func (cr *ComplaintRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error) {
	rows, err := cr.db.QueryContext(ctx, `
		SELECT `+complaintColumns+` FROM complaints
		WHERE due_at IS NOT NULL AND due_at < $1 AND status NOT IN ($2, $3)
		ORDER BY due_at`,
		now, string(models.ComplaintStatusResolved), string(models.ComplaintStatusClosed))
	if err != nil {
		return nil, persistence.NewRepositoryError("ListOverdue", "complaint", "", err)
	}
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)

	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, persistence.NewRepositoryError("ListOverdue", "complaint", "", err)
		}

		complaints = append(complaints, complaint)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRepositoryError("ListOverdue", "complaint", "", err)
	}

	return complaints, nil
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var (
		complaint models.Complaint
		status    string
		assigned  sql.NullString
	)

	err := row.Scan(&complaint.ID, &status, &complaint.Priority, &complaint.ProblemType,
		&complaint.Description, &complaint.Location, &complaint.ComplainantName,
		&complaint.ComplainantEmail, &complaint.ComplainantPhone, &assigned,
		&complaint.ReportedAt, &complaint.DueAt, &complaint.UpdatedAt)
	if err != nil {
		return nil, err
	}

	complaint.Status = models.ComplaintStatus(status)

	if assigned.Valid {
		complaint.AssignedStaffID = assigned.String
	}

	return &complaint, nil
}

// UserRepository stores staff accounts and the role-permission table.
type UserRepository struct {
	db *sql.DB
}

const userColumns = `id, name, email, phone, roles, active`

func (ur *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := ur.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("GetByID", "user", id, persistence.ErrUserNotFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("GetByID", "user", id, err)
	}

	return user, nil
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := ur.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("GetByEmail", "user", email, persistence.ErrUserNotFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("GetByEmail", "user", email, err)
	}

	return user, nil
}

func (ur *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := ur.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, persistence.NewRepositoryError("List", "user", "", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, persistence.NewRepositoryError("List", "user", "", err)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRepositoryError("List", "user", "", err)
	}

	return users, nil
}

func (ur *UserRepository) RolesForAction(ctx context.Context, actionID string) ([]string, error) {
	rows, err := ur.db.QueryContext(ctx,
		`SELECT role FROM action_roles WHERE action_id = $1 ORDER BY role`, actionID)
	if err != nil {
		return nil, persistence.NewRepositoryError("RolesForAction", "user", actionID, err)
	}
	defer rows.Close()

	roles := make([]string, 0)

	for rows.Next() {
		var role string

		err = rows.Scan(&role)
		if err != nil {
			return nil, persistence.NewRepositoryError("RolesForAction", "user", actionID, err)
		}

		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewRepositoryError("RolesForAction", "user", actionID, err)
	}

	return roles, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user  models.User
		roles []byte
	)

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &roles, &user.Active)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(roles, &user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user roles: %w", err)
	}

	return &user, nil
}
