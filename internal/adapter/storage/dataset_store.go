// internal/adapter/storage/dataset_store.go

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rotisserie/eris"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
)

// Querier is the subset of *pgxpool.Pool the store uses
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DatasetInfo describes a stored dataset
type DatasetInfo struct {
	Name      string    `json:"name"`
	Features  int       `json:"features"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DatasetStore implements storage for GeoJSON datasets
type DatasetStore struct {
	db Querier
}

// NewDatasetStore creates a new dataset store
func NewDatasetStore(db Querier) *DatasetStore {
	return &DatasetStore{
		db: db,
	}
}

// Migrate creates the datasets table if it does not exist
func (s *DatasetStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS datasets (
			name       TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return eris.Wrap(err, "storage: create datasets table")
	}
	return nil
}

// Save stores a GeoJSON FeatureCollection under name, replacing any previous version
func (s *DatasetStore) Save(ctx context.Context, name string, body []byte) error {
	if name == "" {
		return eris.New("storage: dataset name is required")
	}
	if _, err := feature.Decode(body); err != nil {
		return eris.Wrapf(err, "storage: dataset %s is not a valid FeatureCollection", name)
	}

	query := `
		INSERT INTO datasets (name, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET
			body = $2,
			updated_at = $3
	`

	if _, err := s.db.Exec(ctx, query, name, body, time.Now()); err != nil {
		return eris.Wrapf(err, "storage: save dataset %s", name)
	}
	return nil
}

// Fetch retrieves and decodes a dataset by name
func (s *DatasetStore) Fetch(ctx context.Context, name string) (*feature.Collection, error) {
	query := `SELECT body FROM datasets WHERE name = $1`

	var body []byte
	if err := s.db.QueryRow(ctx, query, name).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(temporal.ErrDatasetNotFound, "storage: %s", name)
		}
		return nil, eris.Wrapf(err, "storage: query dataset %s", name)
	}

	return feature.Decode(body)
}

// List returns every stored dataset, ordered by name
func (s *DatasetStore) List(ctx context.Context) ([]DatasetInfo, error) {
	query := `
		SELECT name, jsonb_array_length(body->'features'), updated_at
		FROM datasets
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list datasets")
	}
	defer rows.Close()

	var infos []DatasetInfo
	for rows.Next() {
		var info DatasetInfo
		if err := rows.Scan(&info.Name, &info.Features, &info.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "storage: scan dataset")
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "storage: iterate datasets")
	}

	return infos, nil
}
