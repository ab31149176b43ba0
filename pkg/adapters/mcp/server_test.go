package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/dialoguetree/internal/testutils"
	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(session.NewManager(memory.NewStore()))
}

func TestCompileDialogue(t *testing.T) {
	s := newTestServer(t)
	stream := authoring.Encode(testutils.GuardDialogue(t).Model)

	res, err := s.handleCompile(context.Background(), mcp.CallToolRequest{}, compileArgs{AuthoringData: stream})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Runtime.Len())
	assert.True(t, res.Report.OK())
	assert.NotEmpty(t, res.RuntimeData)

	_, err = s.handleCompile(context.Background(), mcp.CallToolRequest{}, compileArgs{AuthoringData: "nope`1`"})
	assert.ErrorIs(t, err, domain.ErrMalformedStream)
}

func TestImportInspectAndGraph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	stream := authoring.Encode(testutils.GuardDialogue(t).Model)

	imported, err := s.handleImport(ctx, mcp.CallToolRequest{}, importArgs{AssetID: "guard", AuthoringData: stream})
	require.NoError(t, err)
	assert.Equal(t, "guard", imported.AssetID)

	list, err := s.handleList(ctx, mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"guard"}, list.Assets)

	inspected, err := s.handleInspect(ctx, mcp.CallToolRequest{}, assetArgs{AssetID: "guard"})
	require.NoError(t, err)
	assert.Empty(t, inspected.RuntimeData)
	start, ok := inspected.Runtime.Start()
	require.True(t, ok)
	assert.Equal(t, "Guard", start.Speaker)

	chart, err := s.graph(ctx, "guard")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(chart, "graph TD"))

	_, err = s.handleInspect(ctx, mcp.CallToolRequest{}, assetArgs{AssetID: "missing"})
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestEditingTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	a, err := s.handleAddNode(ctx, mcp.CallToolRequest{}, addNodeArgs{AssetID: "draft", X: 0, Y: 0})
	require.NoError(t, err)
	b, err := s.handleAddNode(ctx, mcp.CallToolRequest{}, addNodeArgs{AssetID: "draft", X: 220, Y: 0})
	require.NoError(t, err)

	speaker, start := "Guard", true
	_, err = s.handleUpdateNode(ctx, mcp.CallToolRequest{}, updateNodeArgs{
		AssetID: "draft", NodeID: a.NodeID, Speaker: &speaker, Start: &start,
	})
	require.NoError(t, err)

	opt, err := s.handleAddOption(ctx, mcp.CallToolRequest{}, addOptionArgs{AssetID: "draft", NodeID: a.NodeID, Target: &b.NodeID})
	require.NoError(t, err)
	assert.NotZero(t, opt.PlugID)

	inspected, err := s.handleInspect(ctx, mcp.CallToolRequest{}, assetArgs{AssetID: "draft"})
	require.NoError(t, err)
	entry, ok := inspected.Runtime.Start()
	require.True(t, ok)
	assert.Equal(t, []int{b.NodeID}, entry.NextNodeIDs)

	_, err = s.handleRemoveNode(ctx, mcp.CallToolRequest{}, nodeArgs{AssetID: "draft", NodeID: b.NodeID})
	require.NoError(t, err)
	inspected, err = s.handleInspect(ctx, mcp.CallToolRequest{}, assetArgs{AssetID: "draft"})
	require.NoError(t, err)
	assert.Equal(t, 1, inspected.Runtime.Len())
	assert.Equal(t, []int{a.NodeID}, inspected.Report.DeadEnds)
}
