package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAssetStoreContract runs a suite of tests to verify that an AssetStore implementation
// adheres to the defined interface contract.
func RunAssetStoreContract(t *testing.T, store AssetStore) {
	ctx := context.Background()
	assetID := "contract-test-asset-" + time.Now().Format("20060102150405")

	newAsset := func(id string) *domain.Asset {
		return &domain.Asset{
			ID:            id,
			AuthoringData: "dialogue-authoring/1`0`0`0`",
			RuntimeData:   "dialogue-runtime/1`0`0`",
			UpdatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		asset := newAsset(assetID)
		asset.AuthoringData = "dialogue-authoring/1`0`1`1`0`0`150`45`1`2`0`1`1`Guard`Halt \\` there`Halt`true`"

		err := store.Save(ctx, asset)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, assetID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, asset.ID, loaded.ID)
		assert.Equal(t, asset.AuthoringData, loaded.AuthoringData, "blobs must round-trip byte for byte")
		assert.Equal(t, asset.RuntimeData, loaded.RuntimeData)
		assert.True(t, asset.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should survive persistence")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		asset := newAsset(assetID)
		asset.RuntimeData = "dialogue-runtime/1`0`7`"
		require.NoError(t, store.Save(ctx, asset))

		loaded, err := store.Load(ctx, assetID)
		require.NoError(t, err)
		assert.Equal(t, asset.RuntimeData, loaded.RuntimeData)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+assetID)
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newAsset(assetID))
		require.NoError(t, err)

		err = store.Delete(ctx, assetID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, assetID)
		assert.ErrorIs(t, err, domain.ErrAssetNotFound, "Load after Delete should return ErrAssetNotFound")

		assert.NoError(t, store.Delete(ctx, assetID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := assetID + "-1"
		id2 := assetID + "-2"
		_ = store.Save(ctx, newAsset(id1))
		_ = store.Save(ctx, newAsset(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		assets, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, assets, id1)
		assert.Contains(t, assets, id2)
	})
}
