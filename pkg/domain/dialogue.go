package domain

// DialogueNode is the narrative payload attached 1:1 to a Node, keyed by the node id.
type DialogueNode struct {
	NodeID      int    `json:"node_id"`
	IsStartNode bool   `json:"is_start_node"`
	Speaker     string `json:"speaker"`
	Body        string `json:"body"`
	Preview     string `json:"preview"`

	// IsBranching and NextNodeIDs are derived by the compiler and only exist in the
	// runtime form.
	IsBranching bool  `json:"is_branching"`
	NextNodeIDs []int `json:"next_node_ids"`
}

// Clone returns a deep copy of the entry.
func (d DialogueNode) Clone() DialogueNode {
	c := d
	if d.NextNodeIDs != nil {
		c.NextNodeIDs = append([]int(nil), d.NextNodeIDs...)
	}
	return c
}
