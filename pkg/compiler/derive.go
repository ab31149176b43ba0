package compiler

import (
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
)

// Derive computes the runtime view of a model. For every dialogue entry it sets
// IsBranching (more than one output plug) and NextNodeIDs (the destinations of the
// node's outgoing connections, in plug order). The start node is the flagged entry.
func Derive(m *graph.Model) *View {
	dialogue := m.DialogueNodes()
	entries := make([]domain.DialogueNode, 0, len(dialogue))
	start := domain.NoNode

	for _, d := range dialogue {
		if node, err := m.Node(d.NodeID); err == nil {
			d.IsBranching = len(node.Outputs) > 1
		}

		outgoing := m.OutgoingConnections(d.NodeID)
		d.NextNodeIDs = make([]int, 0, len(outgoing))
		for _, c := range outgoing {
			d.NextNodeIDs = append(d.NextNodeIDs, c.InputNodeID)
		}

		if d.IsStartNode {
			start = d.NodeID
		}
		entries = append(entries, d)
	}

	return newView(entries, start)
}

// Compile derives the runtime view of a model and encodes it.
func Compile(m *graph.Model) (string, *View) {
	v := Derive(m)
	return Encode(v), v
}
