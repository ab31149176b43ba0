package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/dialoguetree/internal/presentation/graph"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func view(start int, entries ...domain.DialogueNode) *compiler.View {
	return &compiler.View{Entries: entries, StartNodeID: start}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		view     *compiler.View
		contains []string
		excludes []string
	}{
		{
			name: "Start Node Shape",
			view: view(1,
				domain.DialogueNode{NodeID: 1, Speaker: "Guard", Body: "Halt!"},
			),
			contains: []string{`n1(("#1 Guard: Halt!"))`},
		},
		{
			name: "Branching Node Shape",
			view: view(0,
				domain.DialogueNode{NodeID: 2, IsBranching: true, NextNodeIDs: []int{3, 4}},
				domain.DialogueNode{NodeID: 3},
				domain.DialogueNode{NodeID: 4},
			),
			contains: []string{`n2{"#2"}`, `n3["#3"]`, "n2 --> n3", "n2 --> n4"},
		},
		{
			name: "Preview Labels",
			view: view(0,
				domain.DialogueNode{NodeID: 1, NextNodeIDs: []int{2}},
				domain.DialogueNode{NodeID: 2, Preview: `Say "hi"`},
			),
			contains: []string{`n1 -- "Say 'hi'" --> n2`},
		},
		{
			name: "Label Escaping",
			view: view(0,
				domain.DialogueNode{NodeID: 5, Body: "line one\n\"quoted\""},
			),
			contains: []string{`n5["#5: line one<br/>'quoted'"]`},
		},
		{
			name: "Long Body Truncated",
			view: view(0,
				domain.DialogueNode{NodeID: 6, Body: strings.Repeat("a", 60)},
			),
			contains: []string{strings.Repeat("a", 39) + "…"},
			excludes: []string{strings.Repeat("a", 40)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.view, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	v := view(1,
		domain.DialogueNode{NodeID: 1, NextNodeIDs: []int{2}},
		domain.DialogueNode{NodeID: 2},
		domain.DialogueNode{NodeID: 3},
	)

	got := graph.GenerateMermaid(v, graph.OverlayFromReport(compiler.Reachability(v)))

	assert.Contains(t, got, "classDef unreachable")
	assert.Contains(t, got, "class n3 unreachable;")
	assert.Contains(t, got, "class n2 deadend;")
}
