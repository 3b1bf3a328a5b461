package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dormride/internal/domain"
	"dormride/internal/repository"
)

// Querier is the subset of *sql.DB and *sql.Tx the store needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ensure interfaces are satisfied.
var (
	_ Querier                 = (*sql.DB)(nil)
	_ Querier                 = (*sql.Tx)(nil)
	_ repository.DatasetStore = (*DatasetStore)(nil)
)

const schema = `
	CREATE TABLE IF NOT EXISTS ride_documents (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// DatasetStore keeps the whole dataset as a single JSONB row.
type DatasetStore struct {
	q    Querier
	name string
}

// NewDatasetStore creates a PostgreSQL dataset store for the named document.
func NewDatasetStore(db *sql.DB, name string) *DatasetStore {
	return &DatasetStore{q: db, name: name}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *DatasetStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.q.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create ride_documents table: %w", err)
	}
	return nil
}

// Load retrieves the dataset. A missing row yields an empty dataset.
func (s *DatasetStore) Load(ctx context.Context) (*domain.Dataset, error) {
	query := `SELECT body FROM ride_documents WHERE name = $1`

	var body []byte
	err := s.q.QueryRowContext(ctx, query, s.name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewDataset(), nil
		}
		return nil, fmt.Errorf("select document %q: %w", s.name, err)
	}

	ds := domain.NewDataset()
	if err := json.Unmarshal(body, ds); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", repository.ErrCorruptDocument, s.name, err)
	}
	return ds, nil
}

// Save upserts the dataset row.
func (s *DatasetStore) Save(ctx context.Context, ds *domain.Dataset) error {
	query := `
		INSERT INTO ride_documents (name, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`

	body, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", s.name, err)
	}

	if _, err := s.q.ExecContext(ctx, query, s.name, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert document %q: %w", s.name, err)
	}
	return nil
}
