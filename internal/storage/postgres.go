package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createItemsTable = `
CREATE TABLE IF NOT EXISTS kv_items (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Postgres stores items in kv_items, one namespace per local profile.
type Postgres struct {
	db        *pgxpool.Pool
	namespace string
}

// NewPostgres ensures the table exists. The caller keeps ownership of db.
func NewPostgres(ctx context.Context, db *pgxpool.Pool, namespace string) (*Postgres, error) {
	if _, err := db.Exec(ctx, createItemsTable); err != nil {
		return nil, fmt.Errorf("failed to create kv_items table: %w", err)
	}
	return &Postgres{db: db, namespace: namespace}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRow(ctx,
		"SELECT value FROM kv_items WHERE namespace = $1 AND key = $2",
		p.namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	upsert := `
	INSERT INTO kv_items (namespace, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (namespace, key) DO UPDATE
	SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.Exec(ctx, upsert, p.namespace, key, value); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx, "DELETE FROM kv_items WHERE namespace = $1 AND key = $2", p.namespace, key)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Keys(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, "SELECT key FROM kv_items WHERE namespace = $1 ORDER BY key COLLATE \"C\"", p.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, "DELETE FROM kv_items WHERE namespace = $1", p.namespace); err != nil {
		return fmt.Errorf("failed to clear namespace: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error { return nil }
