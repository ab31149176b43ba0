package ports

import (
	"context"
	"time"

	"github.com/aretw0/dialoguetree/pkg/domain"
)

// AssetStore defines the interface for persisting dialogue assets.
type AssetStore interface {
	AssetLoader

	// Save persists the asset under asset.ID, replacing any previous version.
	Save(ctx context.Context, asset *domain.Asset) error

	// Delete removes the asset. Deleting an unknown id is not an error.
	Delete(ctx context.Context, assetID string) error
}

// CompileObserver is notified after every compile of a dialogue graph.
type CompileObserver interface {
	ObserveCompile(nodes, connections int, elapsed time.Duration, err error)
}
