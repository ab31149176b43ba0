package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dialogue_assets (
    id             TEXT PRIMARY KEY,
    authoring_data TEXT NOT NULL DEFAULT '',
    runtime_data   TEXT NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// CreateSchema creates the dialogue_assets table if it doesn't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the dialogue_assets table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS dialogue_assets;`)
	return err
}
