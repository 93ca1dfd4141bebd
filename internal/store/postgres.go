package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocuments stores each document as one jsonb row. Update locks the
// row with SELECT ... FOR UPDATE so concurrent workers serialize per
// document, matching the file backend's mutex semantics.
type PostgresDocuments struct {
	db *pgxpool.Pool
}

// NewPostgresDocuments ensures the documents table exists.
func NewPostgresDocuments(ctx context.Context, db *pgxpool.Pool) (*PostgresDocuments, error) {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			body JSONB NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &PostgresDocuments{db: db}, nil
}

// Update runs a read-modify-write transaction on one document.
func (p *PostgresDocuments) Update(ctx context.Context, name string, fn func(raw []byte) ([]byte, error)) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin document tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT body FROM documents WHERE name = $1 FOR UPDATE`, name,
	).Scan(&raw)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("read document %s: %w", name, err)
	}

	next, err := fn(raw)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (name, body) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body
	`, name, next)
	if err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit document %s: %w", name, err)
	}
	return nil
}

// Load decodes a document into out; ok is false when the document is absent.
func (p *PostgresDocuments) Load(ctx context.Context, name string, out any) (bool, error) {
	var raw []byte
	err := p.db.QueryRow(ctx,
		`SELECT body FROM documents WHERE name = $1`, name,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read document %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode document %s: %w", name, err)
	}
	return true, nil
}

// Clear removes the named documents; missing documents are not an error.
func (p *PostgresDocuments) Clear(ctx context.Context, names ...string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM documents WHERE name = ANY($1)`, names)
	if err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	return nil
}
