package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
	"github.com/aretw0/dialoguetree/pkg/ports"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke lost updates if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Asset, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s SlowStore) Save(ctx context.Context, asset *domain.Asset) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, asset)
}

func TestManager_EditSerializesReadModifyWrite(t *testing.T) {
	store := SlowStore{memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	writers := 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Edit(ctx, "race", func(m *graph.Model) error {
				m.AddNode(domain.Vector2{})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	asset, err := manager.Load(ctx, "race")
	require.NoError(t, err)
	m, err := authoring.Decode(asset.AuthoringData)
	require.NoError(t, err)
	assert.Equal(t, writers, m.NodeCount(), "every edit must see the previous one")
}

func TestManager_EditFailureSavesNothing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Edit(ctx, "a", func(m *graph.Model) error {
		m.AddNode(domain.Vector2{})
		return errors.New("rejected")
	})
	assert.EqualError(t, err, "rejected")

	_, err = manager.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestManager_ImportRecompilesRuntime(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	m := graph.New()
	n := m.AddNode(domain.Vector2{})
	require.NoError(t, m.SetStartNode(n))

	asset, err := manager.Import(ctx, "imported", authoring.Encode(m))
	require.NoError(t, err)

	view, err := compiler.Decode(asset.RuntimeData)
	require.NoError(t, err)
	assert.Equal(t, n, view.StartNodeID)

	_, err = manager.Import(ctx, "bad", "dialogue-authoring/1`x`")
	assert.ErrorIs(t, err, domain.ErrMalformedStream)
	_, err = manager.Load(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

type countingLocker struct {
	locks, unlocks atomic.Int32
}

func (c *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	c.locks.Add(1)
	return func(context.Context) error {
		c.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_UsesDistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx := context.Background()

	_, err := manager.Edit(ctx, "a", func(m *graph.Model) error { return nil })
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "a"))

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())
}
