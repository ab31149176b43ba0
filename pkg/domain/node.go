package domain

// PlugRole tells whether a plug receives or emits connections.
type PlugRole int

const (
	// PlugInput is the single entry point of a node.
	PlugInput PlugRole = iota
	// PlugOutput is one dialogue option leaving a node.
	PlugOutput
)

func (r PlugRole) String() string {
	switch r {
	case PlugInput:
		return "input"
	case PlugOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Plug is a connection point owned by exactly one node.
// Plug ids are unique across the whole graph, not only within the owning node.
type Plug struct {
	ID     int      `json:"plug_id"`
	NodeID int      `json:"node_id"`
	Role   PlugRole `json:"role"`

	// Position is authoring metadata only; it is not persisted.
	Position Vector2 `json:"-"`
}

// Node is an authoring-time dialogue step.
type Node struct {
	ID        int     `json:"id"`
	Position  Vector2 `json:"position"`
	Dimension Vector2 `json:"dimension"`
	Input     Plug    `json:"input"`

	// Outputs are kept in insertion order; that order is the branch order of the dialogue.
	Outputs []Plug `json:"outputs"`
}

// Output returns the output plug with the given id.
func (n *Node) Output(plugID int) (Plug, bool) {
	for _, p := range n.Outputs {
		if p.ID == plugID {
			return p, true
		}
	}
	return Plug{}, false
}

// OutputIndex returns the insertion index of an output plug, or -1.
func (n *Node) OutputIndex(plugID int) int {
	for i, p := range n.Outputs {
		if p.ID == plugID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	c.Outputs = append([]Plug(nil), n.Outputs...)
	return c
}
