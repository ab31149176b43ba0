package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements ports.AssetStore using PostgreSQL via pgx.
type Store struct {
	db *pgxpool.Pool
}

// New creates a new Store backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(pool), nil
}

// Save inserts the asset or replaces the stored version.
func (s *Store) Save(ctx context.Context, asset *domain.Asset) error {
	if asset == nil || asset.ID == "" {
		return fmt.Errorf("asset id is required")
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO dialogue_assets (id, authoring_data, runtime_data, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET authoring_data = EXCLUDED.authoring_data,
		     runtime_data   = EXCLUDED.runtime_data,
		     updated_at     = EXCLUDED.updated_at`,
		asset.ID, asset.AuthoringData, asset.RuntimeData, asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save asset: %w", err)
	}
	return nil
}

// Load fetches a single asset by its id.
func (s *Store) Load(ctx context.Context, assetID string) (*domain.Asset, error) {
	var a domain.Asset
	err := s.db.QueryRow(ctx,
		`SELECT id, authoring_data, runtime_data, updated_at FROM dialogue_assets WHERE id = $1`,
		assetID,
	).Scan(&a.ID, &a.AuthoringData, &a.RuntimeData, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetID)
		}
		return nil, fmt.Errorf("postgres: load asset: %w", err)
	}

	return &a, nil
}

// Delete removes an asset. No error if it doesn't exist.
func (s *Store) Delete(ctx context.Context, assetID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM dialogue_assets WHERE id = $1`, assetID)
	if err != nil {
		return fmt.Errorf("postgres: delete asset: %w", err)
	}
	return nil
}

// List returns every asset id ordered by id.
// Returns an empty slice (not nil) if none found.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM dialogue_assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list assets: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: scan asset ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
