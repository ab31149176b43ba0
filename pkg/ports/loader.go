package ports

import (
	"context"

	"github.com/aretw0/dialoguetree/pkg/domain"
)

// AssetLoader retrieves saved dialogue assets.
// Read-only sources (e.g. a document library) implement only this interface.
type AssetLoader interface {
	// Load retrieves the asset with the given id.
	// Returns domain.ErrAssetNotFound if the asset does not exist.
	Load(ctx context.Context, assetID string) (*domain.Asset, error)

	// List returns the ids of every stored asset.
	List(ctx context.Context) ([]string, error)
}
