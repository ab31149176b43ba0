package compiler

import "github.com/aretw0/dialoguetree/pkg/domain"

// View is the runtime form of a dialogue tree.
type View struct {
	// Entries are in the graph's insertion order.
	Entries []domain.DialogueNode `json:"entries"`

	// StartNodeID is domain.NoNode when no entry is flagged as start.
	StartNodeID int `json:"start_node_id"`

	index map[int]int
}

func newView(entries []domain.DialogueNode, start int) *View {
	v := &View{Entries: entries, StartNodeID: start}
	v.reindex()
	return v
}

func (v *View) reindex() {
	v.index = make(map[int]int, len(v.Entries))
	for i, e := range v.Entries {
		v.index[e.NodeID] = i
	}
}

// Entry returns the entry for a node id.
func (v *View) Entry(nodeID int) (domain.DialogueNode, bool) {
	if v.index == nil || len(v.index) != len(v.Entries) {
		v.reindex()
	}
	i, ok := v.index[nodeID]
	if !ok {
		return domain.DialogueNode{}, false
	}
	return v.Entries[i], true
}

// HasStart reports whether the tree has a start node.
func (v *View) HasStart() bool {
	return v.StartNodeID != domain.NoNode
}

// Start returns the entry of the start node.
func (v *View) Start() (domain.DialogueNode, bool) {
	if !v.HasStart() {
		return domain.DialogueNode{}, false
	}
	return v.Entry(v.StartNodeID)
}

// Len returns the number of entries.
func (v *View) Len() int {
	return len(v.Entries)
}
