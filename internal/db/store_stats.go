package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/models"
)

// GetOrganizationStats computes the organization's cross-entity summary in a
// single round trip. Every seeded control row counts toward the total, so
// completed/total reads as percent of catalog; expiring documents are those
// ending within 30 days.
func (db *DB) GetOrganizationStats(ctx context.Context, orgID uuid.UUID) (*models.OrganizationStats, error) {
	now := time.Now().UTC()
	expiryHorizon := now.AddDate(0, 0, 30)

	var stats models.OrganizationStats
	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM organization_controls WHERE org_id = $1),
			(SELECT COUNT(*) FROM organization_controls WHERE org_id = $1 AND status = 'completed'),
			(SELECT COUNT(*) FROM organization_controls WHERE org_id = $1 AND status = 'in_progress'),
			(SELECT COUNT(*) FROM organization_controls WHERE org_id = $1 AND status = 'not_started'),
			(SELECT COUNT(*) FROM tasks WHERE org_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE org_id = $1 AND status = 'done'),
			(SELECT COUNT(*) FROM tasks WHERE org_id = $1 AND status != 'done' AND due_date < $2),
			(SELECT COUNT(*) FROM documents WHERE org_id = $1),
			(SELECT COUNT(*) FROM documents WHERE org_id = $1 AND expires_at IS NOT NULL AND expires_at <= $3)
	`, orgID, now, expiryHorizon).Scan(
		&stats.TotalControls,
		&stats.CompletedControls,
		&stats.InProgressControls,
		&stats.NotStartedControls,
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.OverdueTasks,
		&stats.TotalDocuments,
		&stats.ExpiringDocuments,
	)
	if err != nil {
		return nil, fmt.Errorf("compute organization stats: %w", err)
	}
	return &stats, nil
}
