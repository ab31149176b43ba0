package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunAssetStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(domain.Asset{ID: "intro", AuthoringData: "a"})

	loaded, err := store.Load(ctx, "intro")
	require.NoError(t, err)
	loaded.AuthoringData = "mutated"

	again, err := store.Load(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, "a", again.AuthoringData)
}

func TestMemoryStore_SaveRequiresID(t *testing.T) {
	store := memory.NewStore()
	assert.Error(t, store.Save(context.Background(), &domain.Asset{}))
}

func TestMemoryStore_ListSorted(t *testing.T) {
	store := memory.NewStore(domain.Asset{ID: "b"}, domain.Asset{ID: "a"}, domain.Asset{ID: "c"})
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
