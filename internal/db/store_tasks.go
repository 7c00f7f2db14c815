package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/haneul-labs/complyhub/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const taskColumns = `
	id, org_id, title, description, status, priority, due_date, recurring_rule,
	control_id, assignee_id, created_at, updated_at
`

// GetTasks returns the organization's tasks matching the filter, ordered by
// due date ascending with null due dates last.
func (db *DB) GetTasks(ctx context.Context, orgID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE org_id = $1
	`
	args := []any{orgID}
	argIdx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*filter.Status))
		argIdx++
	}
	if filter.Priority != nil {
		query += fmt.Sprintf(" AND priority = $%d", argIdx)
		args = append(args, string(*filter.Priority))
		argIdx++
	}
	if filter.ControlID != nil {
		query += fmt.Sprintf(" AND control_id = $%d", argIdx)
		args = append(args, *filter.ControlID)
		argIdx++
	}
	if filter.AssigneeID != nil {
		query += fmt.Sprintf(" AND assignee_id = $%d", argIdx)
		args = append(args, *filter.AssigneeID)
		argIdx++
	}
	if filter.OverdueOnly {
		query += fmt.Sprintf(" AND due_date < $%d AND status != 'done'", argIdx)
		args = append(args, time.Now().UTC())
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY due_date ASC NULLS LAST, created_at ASC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetUpcomingTasks returns unfinished tasks with a due date no later than
// now + windowDays, ordered by due date ascending. Already-overdue tasks are
// included.
func (db *DB) GetUpcomingTasks(ctx context.Context, orgID uuid.UUID, windowDays int) ([]*models.Task, error) {
	horizon := time.Now().UTC().AddDate(0, 0, windowDays)
	rows, err := db.Pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE org_id = $1
		  AND status != 'done'
		  AND due_date IS NOT NULL
		  AND due_date <= $2
		ORDER BY due_date ASC
	`, orgID, horizon)
	if err != nil {
		return nil, fmt.Errorf("list upcoming tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTaskByID returns one task scoped to an organization.
func (db *DB) GetTaskByID(ctx context.Context, orgID, id uuid.UUID) (*models.Task, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND org_id = $2
	`, id, orgID)
	return scanTask(row)
}

// CreateTask inserts a task after verifying that any control or assignee
// reference belongs to the same organization.
func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		if err := verifyTaskRefs(ctx, tx, task.OrgID, task.ControlID, task.AssigneeID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO tasks (id, org_id, title, description, status, priority, due_date,
			                   recurring_rule, control_id, assignee_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, task.ID, task.OrgID, task.Title, task.Description, string(task.Status), string(task.Priority),
			task.DueDate, task.RecurringRule, task.ControlID, task.AssigneeID, task.CreatedAt, task.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	return mapError(err)
}

// UpdateTask persists the task's mutable fields, re-verifying references.
func (db *DB) UpdateTask(ctx context.Context, task *models.Task) error {
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		if err := verifyTaskRefs(ctx, tx, task.OrgID, task.ControlID, task.AssigneeID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE tasks
			SET title = $3, description = $4, status = $5, priority = $6, due_date = $7,
			    recurring_rule = $8, control_id = $9, assignee_id = $10, updated_at = $11
			WHERE id = $1 AND org_id = $2
		`, task.ID, task.OrgID, task.Title, task.Description, string(task.Status), string(task.Priority),
			task.DueDate, task.RecurringRule, task.ControlID, task.AssigneeID, task.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

// DeleteTask hard-deletes a task scoped to an organization.
func (db *DB) DeleteTask(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM tasks WHERE id = $1 AND org_id = $2
	`, id, orgID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// verifyTaskRefs checks that optional control and assignee references point
// at records owned by orgID. Cross-tenant references are rejected before any
// write happens.
func verifyTaskRefs(ctx context.Context, q querier, orgID uuid.UUID, controlID, assigneeID *uuid.UUID) error {
	if controlID != nil {
		var ok bool
		err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM organization_controls WHERE id = $1 AND org_id = $2)",
			*controlID, orgID,
		).Scan(&ok)
		if err != nil {
			return fmt.Errorf("verify control reference: %w", err)
		}
		if !ok {
			return ErrInvalidReference
		}
	}
	if assigneeID != nil {
		var ok bool
		err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND org_id = $2)",
			*assigneeID, orgID,
		).Scan(&ok)
		if err != nil {
			return fmt.Errorf("verify assignee reference: %w", err)
		}
		if !ok {
			return ErrInvalidReference
		}
	}
	return nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var status, priority string
	err := row.Scan(
		&task.ID, &task.OrgID, &task.Title, &task.Description, &status, &priority,
		&task.DueDate, &task.RecurringRule, &task.ControlID, &task.AssigneeID,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	task.Status = models.TaskStatus(status)
	task.Priority = models.TaskPriority(priority)
	return &task, nil
}
