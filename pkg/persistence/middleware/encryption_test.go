package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/persistence/middleware"
	"github.com/aretw0/dialoguetree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.AssetStore, active []byte, fallback ...[]byte) ports.AssetStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	require.NoError(t, err)
	return mw(next)
}

func secretAsset(id string) *domain.Asset {
	return &domain.Asset{
		ID:            id,
		AuthoringData: "dialogue-authoring/1`the butler did it`",
		RuntimeData:   "dialogue-runtime/1`the butler did it`",
		UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunAssetStoreContract(t, encrypted(t, memory.NewStore(), generateKey(t)))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, generateKey(t))

	require.NoError(t, secure.Save(ctx, secretAsset("intro")))

	// The underlying store only sees the envelope.
	raw, err := underlying.Load(ctx, "intro")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw.AuthoringData, middleware.EnvelopePrefix))
	assert.NotContains(t, raw.AuthoringData, "butler")
	assert.Empty(t, raw.RuntimeData)

	loaded, err := secure.Load(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, secretAsset("intro").AuthoringData, loaded.AuthoringData)
	assert.Equal(t, secretAsset("intro").RuntimeData, loaded.RuntimeData)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	secureOld := encrypted(t, underlying, oldKey)
	require.NoError(t, secureOld.Save(ctx, secretAsset("rotation")))

	// Load with NEW key (Active) + OLD key (Fallback)
	secureNew := encrypted(t, underlying, newKey, oldKey)
	loaded, err := secureNew.Load(ctx, "rotation")
	require.NoError(t, err)

	// Saving again re-encrypts with the new key; the old key alone no longer opens it.
	require.NoError(t, secureNew.Save(ctx, loaded))
	_, err = secureOld.Load(ctx, "rotation")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_BindsAssetID(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, generateKey(t))

	require.NoError(t, secure.Save(ctx, secretAsset("a")))
	raw, err := underlying.Load(ctx, "a")
	require.NoError(t, err)
	raw.ID = "b"
	require.NoError(t, underlying.Save(ctx, raw))

	_, err = secure.Load(ctx, "b")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainAssets(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, secretAsset("plain")))

	_, err := encrypted(t, underlying, generateKey(t)).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}
