package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/dialoguetree/pkg/domain"
)

// Store implements ports.AssetStore using the local filesystem.
// It stores assets as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".dialoguetree/assets".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".dialoguetree", "assets")
	}
	return &Store{BasePath: basePath}
}

// tempPrefix marks in-flight writes. Ids may not start with a dot, so a temp file never
// shadows a real asset.
const tempPrefix = ".tmp-"

func (s *Store) path(assetID string) (string, error) {
	if assetID == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrInvalidAssetID)
	}
	if strings.ContainsAny(assetID, `/\`) || strings.HasPrefix(assetID, ".") {
		return "", fmt.Errorf("%w: %q is not a valid file name", domain.ErrInvalidAssetID, assetID)
	}
	return filepath.Join(s.BasePath, assetID+".json"), nil
}

// Save persists the asset to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, asset *domain.Asset) error {
	if asset == nil {
		return fmt.Errorf("asset cannot be nil")
	}
	destPath, err := s.path(asset.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure asset directory: %w", err)
	}

	data, err := json.MarshalIndent(asset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, tempPrefix+asset.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing asset file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to asset file: %w", err)
	}

	return nil
}

// Load retrieves the asset from its JSON file.
func (s *Store) Load(ctx context.Context, assetID string) (*domain.Asset, error) {
	filePath, err := s.path(assetID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetID)
		}
		return nil, fmt.Errorf("failed to read asset file: %w", err)
	}

	var asset domain.Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset: %w", err)
	}

	return &asset, nil
}

// Delete removes the asset file.
func (s *Store) Delete(ctx context.Context, assetID string) error {
	filePath, err := s.path(assetID)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset file: %w", err)
	}

	return nil
}

// List returns all stored asset ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)

	return ids, nil
}
