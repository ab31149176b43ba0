package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/dialoguetree/pkg/domain"
)

// Store implements ports.AssetStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Asset
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with assets.
func NewStore(seed ...domain.Asset) *Store {
	s := &Store{
		data: make(map[string]domain.Asset, len(seed)),
	}
	for _, a := range seed {
		s.data[a.ID] = a
	}
	return s
}

// Save persists the asset in memory.
func (s *Store) Save(ctx context.Context, asset *domain.Asset) error {
	if asset == nil || asset.ID == "" {
		return fmt.Errorf("asset id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[asset.ID] = *asset
	return nil
}

// Load retrieves the asset from memory.
func (s *Store) Load(ctx context.Context, assetID string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.data[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetID)
	}

	// Asset holds only value fields, so returning the address of the copy is isolation enough.
	return &asset, nil
}

// Delete removes the asset.
func (s *Store) Delete(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, assetID)
	return nil
}

// List returns stored asset ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
