package dialoguetree_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/testutils"
	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	nodes, connections int
	err                error
}

type recorder struct {
	calls []observed
}

func (r *recorder) ObserveCompile(nodes, connections int, _ time.Duration, err error) {
	r.calls = append(r.calls, observed{nodes, connections, err})
}

type failingStore struct {
	*memory.Store
}

func (failingStore) Save(context.Context, *domain.Asset) error {
	return errors.New("disk full")
}

func TestNew_GeneratesID(t *testing.T) {
	a := dialoguetree.New("")
	b := dialoguetree.New("")
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "intro", dialoguetree.New("intro").ID())
}

func TestCompile_FreshAsset(t *testing.T) {
	asset, err := dialoguetree.New("fresh").Compile()
	require.NoError(t, err)
	assert.Equal(t, "fresh", asset.ID)
	assert.False(t, asset.UpdatedAt.IsZero())

	view, err := dialoguetree.LoadRuntime(asset)
	require.NoError(t, err)
	assert.Zero(t, view.Len())
	assert.Equal(t, domain.NoNode, view.StartNodeID)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := &recorder{}

	tree := testutils.GuardDialogue(t)
	b := dialoguetree.New("guard", dialoguetree.WithStore(store), dialoguetree.WithMetrics(rec))
	require.NoError(t, b.Open(&domain.Asset{ID: "guard", AuthoringData: authoring.Encode(tree.Model)}))

	saved, err := b.Save(ctx)
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, observed{nodes: 4, connections: 3}, rec.calls[0])

	stored, err := store.Load(ctx, "guard")
	require.NoError(t, err)
	assert.Equal(t, saved.AuthoringData, stored.AuthoringData)

	reopened := dialoguetree.New("guard", dialoguetree.WithStore(store))
	require.NoError(t, reopened.Load(ctx))
	assert.Equal(t, 4, reopened.Model().NodeCount())
	assert.Equal(t, saved.AuthoringData, authoring.Encode(reopened.Model()))

	view, err := dialoguetree.LoadRuntime(stored)
	require.NoError(t, err)
	assert.Equal(t, tree.ID("greet"), view.StartNodeID)
	greet, _ := view.Entry(tree.ID("greet"))
	assert.True(t, greet.IsBranching)
	assert.Equal(t, []int{tree.ID("friend"), tree.ID("foe")}, greet.NextNodeIDs)
}

func TestSave_WithoutStore(t *testing.T) {
	_, err := dialoguetree.New("x").Save(context.Background())
	assert.ErrorIs(t, err, dialoguetree.ErrNoStore)
	assert.ErrorIs(t, dialoguetree.New("x").Load(context.Background()), dialoguetree.ErrNoStore)
}

func TestSave_StoreFailure(t *testing.T) {
	b := dialoguetree.New("x", dialoguetree.WithStore(failingStore{memory.NewStore()}))
	_, err := b.Save(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestCompile_RejectsDanglingConnection(t *testing.T) {
	rec := &recorder{}
	b := dialoguetree.New("x", dialoguetree.WithMetrics(rec))
	n := b.Model().AddNode(domain.Vector2{})
	b.Model().AddConnection(99, 100, n, 101)

	_, err := b.Compile()
	assert.ErrorIs(t, err, domain.ErrDanglingReference)
	require.Len(t, rec.calls, 1)
	assert.Error(t, rec.calls[0].err)
}

func TestLoad_KeepsModelOnFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(domain.Asset{ID: "broken", AuthoringData: "dialogue-authoring/1`7`"})

	b := dialoguetree.New("broken", dialoguetree.WithStore(store))
	n := b.Model().AddNode(domain.Vector2{})

	err := b.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrMalformedStream)
	_, err = b.Model().Node(n)
	assert.NoError(t, err, "the graph being edited survives a rejected load")
}

func TestLoad_Missing(t *testing.T) {
	b := dialoguetree.New("nope", dialoguetree.WithLoader(memory.NewStore()))
	assert.ErrorIs(t, b.Load(context.Background()), domain.ErrAssetNotFound)
}

func TestWithLayout(t *testing.T) {
	layout := domain.Layout{Base: domain.Vector2{X: 100, Y: 10}, PlugHeight: 5, PlugGap: 5}
	b := dialoguetree.New("x", dialoguetree.WithLayout(layout))
	n := b.Model().AddNode(domain.Vector2{})
	_, _ = b.Model().AddOutputPlug(n)

	node, _ := b.Model().Node(n)
	assert.Equal(t, domain.Vector2{X: 100, Y: 20}, node.Dimension)

	asset, err := b.Compile()
	require.NoError(t, err)

	b.Reset()
	assert.Zero(t, b.Model().NodeCount())
	require.NoError(t, b.Open(asset), "reopening uses the same layout")
}

func TestVerify(t *testing.T) {
	tree := testutils.GuardDialogue(t)
	b := dialoguetree.New("guard")
	asset := compiledAsset(t, tree.Model)

	report, err := b.Verify(asset)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.ElementsMatch(t, []int{tree.ID("foe"), tree.ID("end")}, report.DeadEnds)

	stale := *asset
	stale.RuntimeData = "dialogue-runtime/1`0`0`"
	_, err = b.Verify(&stale)
	assert.ErrorIs(t, err, dialoguetree.ErrStaleRuntime)

	broken := *asset
	broken.AuthoringData = "dialogue-authoring/1`x`"
	_, err = b.Verify(&broken)
	assert.ErrorIs(t, err, domain.ErrMalformedStream)
}

func compiledAsset(t *testing.T, m *graph.Model) *domain.Asset {
	t.Helper()
	b := dialoguetree.New("guard")
	require.NoError(t, b.Open(&domain.Asset{ID: "guard", AuthoringData: authoring.Encode(m)}))
	asset, err := b.Compile()
	require.NoError(t, err)
	return asset
}
