package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/models"
)

const notificationColumns = `
	id, org_id, user_id, type, title, message, is_read,
	related_task_id, related_document_id, created_at, updated_at
`

// CreateNotification inserts a user alert.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO notifications (id, org_id, user_id, type, title, message, is_read,
		                           related_task_id, related_document_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, n.ID, n.OrgID, n.UserID, string(n.Type), n.Title, n.Message, n.IsRead,
		n.RelatedTaskID, n.RelatedDocumentID, n.CreatedAt, n.UpdatedAt)
	return mapError(err)
}

// GetNotificationsByUser returns a user's notifications, newest first. When
// unreadOnly is set, read notifications are excluded.
func (db *DB) GetNotificationsByUser(ctx context.Context, orgID, userID uuid.UUID, unreadOnly bool) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE org_id = $1 AND user_id = $2
	`
	if unreadOnly {
		query += " AND NOT is_read"
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Pool.Query(ctx, query, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// UnreadNotificationCount returns the number of unread notifications for a
// user.
func (db *DB) UnreadNotificationCount(ctx context.Context, orgID, userID uuid.UUID) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE org_id = $1 AND user_id = $2 AND NOT is_read
	`, orgID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks one notification as read, scoped to its owner.
func (db *DB) MarkNotificationRead(ctx context.Context, orgID, userID, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND user_id = $3
	`, id, orgID, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of a user as read
// and returns how many were updated.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, updated_at = NOW()
		WHERE org_id = $1 AND user_id = $2 AND NOT is_read
	`, orgID, userID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// HasRecentNotification reports whether a notification of the given type
// already exists for the user since the cutoff, optionally tied to a task or
// document. The deadline scanner uses this to avoid re-alerting on every run.
func (db *DB) HasRecentNotification(ctx context.Context, userID uuid.UUID, typ models.NotificationType, taskID, docID *uuid.UUID, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND type = $2 AND created_at >= $3
	`
	args := []any{userID, string(typ), since}
	argIdx := 4

	if taskID != nil {
		query += fmt.Sprintf(" AND related_task_id = $%d", argIdx)
		args = append(args, *taskID)
		argIdx++
	}
	if docID != nil {
		query += fmt.Sprintf(" AND related_document_id = $%d", argIdx)
		args = append(args, *docID)
		argIdx++
	}
	query += ")"

	var exists bool
	if err := db.Pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return exists, nil
}

// GetAssignedTasksDueWithin returns, across all organizations, unfinished
// tasks that have an assignee and a due date no later than now + windowDays.
// The deadline scanner walks these to emit alerts.
func (db *DB) GetAssignedTasksDueWithin(ctx context.Context, windowDays int) ([]*models.Task, error) {
	horizon := time.Now().UTC().AddDate(0, 0, windowDays)
	rows, err := db.Pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status != 'done'
		  AND assignee_id IS NOT NULL
		  AND due_date IS NOT NULL
		  AND due_date <= $1
		ORDER BY due_date ASC
	`, horizon)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
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

// GetDocumentsExpiringWithin returns, across all organizations, documents
// whose validity ends no later than now + windowDays.
func (db *DB) GetDocumentsExpiringWithin(ctx context.Context, windowDays int) ([]*models.Document, error) {
	horizon := time.Now().UTC().AddDate(0, 0, windowDays)
	rows, err := db.Pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE expires_at IS NOT NULL
		  AND expires_at <= $1
		ORDER BY expires_at ASC
	`, horizon)
	if err != nil {
		return nil, fmt.Errorf("list expiring documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var typ string
	err := row.Scan(
		&n.ID, &n.OrgID, &n.UserID, &typ, &n.Title, &n.Message, &n.IsRead,
		&n.RelatedTaskID, &n.RelatedDocumentID, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	n.Type = models.NotificationType(typ)
	return &n, nil
}
