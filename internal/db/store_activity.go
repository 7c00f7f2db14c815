package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/models"
)

const defaultActivityLimit = 50

// CreateActivity appends one audit trail entry. Entries are immutable once
// written.
func (db *DB) CreateActivity(ctx context.Context, activity *models.Activity) error {
	meta, err := activity.MetadataJSON()
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO activities (id, org_id, user_id, type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, activity.ID, activity.OrgID, activity.UserID, string(activity.Type),
		activity.Description, meta, activity.CreatedAt)
	return mapError(err)
}

// GetActivities returns the organization's audit feed matching the filter,
// newest first.
func (db *DB) GetActivities(ctx context.Context, orgID uuid.UUID, filter models.ActivityFilter) ([]*models.Activity, error) {
	query := `
		SELECT id, org_id, user_id, type, description, metadata, created_at
		FROM activities
		WHERE org_id = $1
	`
	args := []any{orgID}
	argIdx := 2

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, string(*filter.Type))
		argIdx++
	}
	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filter.Since)
		argIdx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var a models.Activity
		var typ string
		var meta []byte
		if err := rows.Scan(&a.ID, &a.OrgID, &a.UserID, &typ, &a.Description, &meta, &a.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		a.Type = models.ActivityType(typ)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}
