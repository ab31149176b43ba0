package session_test

import (
	"context"
	"testing"

	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestManager_EditorOperations(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())

	greet, _, err := manager.AddNode(ctx, "guard", domain.Vector2{X: 10, Y: 20})
	require.NoError(t, err)
	pass, _, err := manager.AddNode(ctx, "guard", domain.Vector2{X: 240, Y: 20})
	require.NoError(t, err)

	_, err = manager.UpdateNode(ctx, "guard", greet, session.NodePatch{
		Speaker: ptr("Guard"),
		Body:    ptr("Halt!"),
		Start:   ptr(true),
	})
	require.NoError(t, err)
	_, err = manager.UpdateNode(ctx, "guard", pass, session.NodePatch{Preview: ptr("Friend")})
	require.NoError(t, err)

	plug, asset, err := manager.AddOption(ctx, "guard", greet, &pass)
	require.NoError(t, err)
	assert.NotZero(t, plug)

	v, err := compiler.Decode(asset.RuntimeData)
	require.NoError(t, err)
	start, ok := v.Start()
	require.True(t, ok)
	assert.Equal(t, greet, start.NodeID)
	assert.Equal(t, "Guard", start.Speaker)
	assert.Equal(t, []int{pass}, start.NextNodeIDs)

	asset, err = manager.RemoveOption(ctx, "guard", greet, plug)
	require.NoError(t, err)
	v, err = compiler.Decode(asset.RuntimeData)
	require.NoError(t, err)
	start, _ = v.Start()
	assert.Empty(t, start.NextNodeIDs)

	_, err = manager.UpdateNode(ctx, "guard", greet, session.NodePatch{Start: ptr(false)})
	require.NoError(t, err)
	asset, err = manager.RemoveNode(ctx, "guard", pass)
	require.NoError(t, err)
	v, err = compiler.Decode(asset.RuntimeData)
	require.NoError(t, err)
	assert.False(t, v.HasStart())
	assert.Equal(t, 1, v.Len())
}

func TestManager_AddOptionToMissingTargetSavesNothing(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(memory.NewStore())

	node, before, err := manager.AddNode(ctx, "a", domain.Vector2{})
	require.NoError(t, err)

	missing := 999
	_, _, err = manager.AddOption(ctx, "a", node, &missing)
	require.ErrorIs(t, err, domain.ErrNotFound)

	after, err := manager.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, before.AuthoringData, after.AuthoringData)
}

func TestManager_UpdateMissingNode(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.UpdateNode(context.Background(), "a", 42, session.NodePatch{Body: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
