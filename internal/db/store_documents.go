package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/haneul-labs/complyhub/internal/models"
)

const documentColumns = `
	id, org_id, name, description, file_key, file_size, mime_type, version,
	expires_at, control_id, task_id, uploaded_by_id, created_at, updated_at
`

// GetDocuments returns the organization's document records matching the
// filter, newest first.
func (db *DB) GetDocuments(ctx context.Context, orgID uuid.UUID, filter models.DocumentFilter) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE org_id = $1
	`
	args := []any{orgID}
	argIdx := 2

	if filter.ControlID != nil {
		query += fmt.Sprintf(" AND control_id = $%d", argIdx)
		args = append(args, *filter.ControlID)
		argIdx++
	}
	if filter.TaskID != nil {
		query += fmt.Sprintf(" AND task_id = $%d", argIdx)
		args = append(args, *filter.TaskID)
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
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

// GetDocumentByID returns one document record scoped to an organization.
func (db *DB) GetDocumentByID(ctx context.Context, orgID, id uuid.UUID) (*models.Document, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1 AND org_id = $2
	`, id, orgID)
	return scanDocument(row)
}

// CreateDocument inserts a document record after verifying that any control
// or task reference belongs to the same organization.
func (db *DB) CreateDocument(ctx context.Context, doc *models.Document) error {
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		if err := verifyDocumentRefs(ctx, tx, doc.OrgID, doc.ControlID, doc.TaskID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO documents (id, org_id, name, description, file_key, file_size, mime_type,
			                       version, expires_at, control_id, task_id, uploaded_by_id,
			                       created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, doc.ID, doc.OrgID, doc.Name, doc.Description, doc.FileKey, doc.FileSize, doc.MimeType,
			doc.Version, doc.ExpiresAt, doc.ControlID, doc.TaskID, doc.UploadedByID,
			doc.CreatedAt, doc.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
	return mapError(err)
}

// UpdateDocument persists the document's mutable metadata, re-verifying
// references. The stored file itself never changes.
func (db *DB) UpdateDocument(ctx context.Context, doc *models.Document) error {
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		if err := verifyDocumentRefs(ctx, tx, doc.OrgID, doc.ControlID, doc.TaskID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE documents
			SET name = $3, description = $4, expires_at = $5, control_id = $6, task_id = $7, updated_at = $8
			WHERE id = $1 AND org_id = $2
		`, doc.ID, doc.OrgID, doc.Name, doc.Description, doc.ExpiresAt, doc.ControlID, doc.TaskID, doc.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

// DeleteDocument removes the document record scoped to an organization and
// returns the file key so the caller can clean up the stored blob afterwards.
func (db *DB) DeleteDocument(ctx context.Context, orgID, id uuid.UUID) (string, error) {
	var fileKey string
	err := db.Pool.QueryRow(ctx, `
		DELETE FROM documents
		WHERE id = $1 AND org_id = $2
		RETURNING file_key
	`, id, orgID).Scan(&fileKey)
	if err != nil {
		return "", mapError(err)
	}
	return fileKey, nil
}

func verifyDocumentRefs(ctx context.Context, q querier, orgID uuid.UUID, controlID, taskID *uuid.UUID) error {
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
	if taskID != nil {
		var ok bool
		err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1 AND org_id = $2)",
			*taskID, orgID,
		).Scan(&ok)
		if err != nil {
			return fmt.Errorf("verify task reference: %w", err)
		}
		if !ok {
			return ErrInvalidReference
		}
	}
	return nil
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID, &doc.OrgID, &doc.Name, &doc.Description, &doc.FileKey, &doc.FileSize,
		&doc.MimeType, &doc.Version, &doc.ExpiresAt, &doc.ControlID, &doc.TaskID,
		&doc.UploadedByID, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &doc, nil
}
