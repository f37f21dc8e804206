package postgres

import (
	"context"
	"database/sql"

	"invoiceanalytics/internal/model"
	"invoiceanalytics/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, file_name, file_path, file_size, file_type, status, metadata, raw_json, created_at, processed_at
		FROM documents
		WHERE id = $1
	`
	var (
		d             model.Document
		meta, rawJSON []byte
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID,
		&d.FileName,
		&d.FilePath,
		&d.FileSize,
		&d.FileType,
		&d.Status,
		&meta,
		&rawJSON,
		&d.CreatedAt,
		&d.ProcessedAt,
	); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		d.Metadata = meta
	}
	if len(rawJSON) > 0 {
		d.RawJSON = rawJSON
	}
	return &d, nil
}
