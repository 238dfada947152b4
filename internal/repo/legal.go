package repo

import (
	"context"
	"fmt"
)

const legalColumns = `id, doc_type, title, content, version, updated_at`

func scanLegal(row interface{ Scan(...any) error }, d *LegalDocument) error {
	return row.Scan(&d.ID, &d.DocType, &d.Title, &d.Content, &d.Version, &d.UpdatedAt)
}

// GetLegalDocument returns the document of a given type.
func (r *PostgresRepository) GetLegalDocument(ctx context.Context, docType string) (*LegalDocument, error) {
	const q = `SELECT ` + legalColumns + ` FROM legal_documents WHERE doc_type = $1 LIMIT 1;`
	var d LegalDocument
	if err := scanLegal(r.pool.QueryRow(ctx, q, docType), &d); err != nil {
		return nil, wrapScanErr("get legal document", err)
	}
	return &d, nil
}

// ListLegalDocuments returns all legal documents.
func (r *PostgresRepository) ListLegalDocuments(ctx context.Context) ([]LegalDocument, error) {
	const q = `SELECT ` + legalColumns + ` FROM legal_documents ORDER BY doc_type ASC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list legal documents: %w", err)
	}
	defer rows.Close()

	var docs []LegalDocument
	for rows.Next() {
		var d LegalDocument
		if err := scanLegal(rows, &d); err != nil {
			return nil, fmt.Errorf("scan legal document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legal documents: %w", err)
	}
	return docs, nil
}

// UpsertLegalDocument replaces a document's content by type, bumping version.
func (r *PostgresRepository) UpsertLegalDocument(ctx context.Context, docType, title, content string) (*LegalDocument, error) {
	const q = `
INSERT INTO legal_documents (doc_type, title, content)
VALUES ($1, $2, $3)
ON CONFLICT (doc_type) DO UPDATE SET
    title = EXCLUDED.title,
    content = EXCLUDED.content,
    version = legal_documents.version + 1,
    updated_at = NOW()
RETURNING ` + legalColumns + `;
`
	var d LegalDocument
	if err := scanLegal(r.pool.QueryRow(ctx, q, docType, title, content), &d); err != nil {
		return nil, wrapScanErr("upsert legal document", err)
	}
	return &d, nil
}
