package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/models"
)

const orgControlColumns = `
	oc.id, oc.org_id, oc.control_id, oc.status, oc.is_applicable, oc.notes,
	oc.created_at, oc.updated_at,
	c.id, c.code, c.name_en, c.name_ko, c.description_en, c.description_ko,
	c.category, c.category_name_en, c.category_name_ko
`

// GetOrgControls returns the organization's adoption records matching the
// filter, each joined with its catalog definition, ordered by control code.
func (db *DB) GetOrgControls(ctx context.Context, orgID uuid.UUID, filter models.ControlFilter) ([]*models.OrganizationControl, error) {
	query := `
		SELECT ` + orgControlColumns + `
		FROM organization_controls oc
		JOIN controls c ON c.id = oc.control_id
		WHERE oc.org_id = $1
	`
	args := []any{orgID}
	argIdx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND oc.status = $%d", argIdx)
		args = append(args, string(*filter.Status))
		argIdx++
	}
	if filter.Category != nil {
		query += fmt.Sprintf(" AND c.category = $%d", argIdx)
		args = append(args, *filter.Category)
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		query += fmt.Sprintf(" AND (c.name_en ILIKE $%d OR c.name_ko ILIKE $%d OR c.code ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY c.code"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list organization controls: %w", err)
	}
	defer rows.Close()

	var controls []*models.OrganizationControl
	for rows.Next() {
		oc, err := scanOrgControl(rows)
		if err != nil {
			return nil, err
		}
		controls = append(controls, oc)
	}
	return controls, rows.Err()
}

// GetOrgControlByID returns one adoption record scoped to an organization,
// joined with its catalog definition.
func (db *DB) GetOrgControlByID(ctx context.Context, orgID, id uuid.UUID) (*models.OrganizationControl, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+orgControlColumns+`
		FROM organization_controls oc
		JOIN controls c ON c.id = oc.control_id
		WHERE oc.id = $1 AND oc.org_id = $2
	`, id, orgID)
	return scanOrgControl(row)
}

// UpdateOrgControl persists the adoption record's mutable fields, scoped to
// the owning organization.
func (db *DB) UpdateOrgControl(ctx context.Context, oc *models.OrganizationControl) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE organization_controls
		SET status = $3, is_applicable = $4, notes = $5, updated_at = $6
		WHERE id = $1 AND org_id = $2
	`, oc.ID, oc.OrgID, string(oc.Status), oc.IsApplicable, oc.Notes, oc.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrgControl(row rowScanner) (*models.OrganizationControl, error) {
	var oc models.OrganizationControl
	var ctrl models.Control
	var status string
	var descEN, descKO *string
	err := row.Scan(
		&oc.ID, &oc.OrgID, &oc.ControlID, &status, &oc.IsApplicable, &oc.Notes,
		&oc.CreatedAt, &oc.UpdatedAt,
		&ctrl.ID, &ctrl.Code, &ctrl.NameEN, &ctrl.NameKO, &descEN, &descKO,
		&ctrl.Category, &ctrl.CategoryNameEN, &ctrl.CategoryNameKO,
	)
	if err != nil {
		return nil, mapError(err)
	}
	oc.Status = models.ControlStatus(status)
	if descEN != nil {
		ctrl.DescriptionEN = *descEN
	}
	if descKO != nil {
		ctrl.DescriptionKO = *descKO
	}
	oc.Control = &ctrl
	return &oc, nil
}
