package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/dialoguetree/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Model is the in-memory dialogue graph.
type Model struct {
	nodes       *orderedmap.OrderedMap[int, *domain.Node]
	connections *orderedmap.OrderedMap[int, *domain.Connection]
	dialogue    *orderedmap.OrderedMap[int, *domain.DialogueNode]

	// plugs maps every plug id (input and output) to its owning node.
	plugs map[int]int

	lastID int
	layout domain.Layout
}

// Option configures a Model.
type Option func(*Model)

// WithLayout overrides the node layout used to compute dimensions.
func WithLayout(layout domain.Layout) Option {
	return func(m *Model) {
		m.layout = layout
	}
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		nodes:       orderedmap.New[int, *domain.Node](),
		connections: orderedmap.New[int, *domain.Connection](),
		dialogue:    orderedmap.New[int, *domain.DialogueNode](),
		plugs:       make(map[int]int),
		layout:      domain.DefaultLayout(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Layout returns the layout the model uses for node dimensions.
func (m *Model) Layout() domain.Layout {
	return m.layout
}

func (m *Model) nextID() int {
	m.lastID++
	return m.lastID
}

// reserve makes sure the counter never hands out an id that was loaded from a stream.
func (m *Model) reserve(id int) {
	if id > m.lastID {
		m.lastID = id
	}
}

// --- Nodes ---

// AddNode creates a node at the given position with a fresh input plug, no output plugs
// and an empty dialogue entry. It returns the new node id.
func (m *Model) AddNode(position domain.Vector2) int {
	id := m.nextID()
	inputID := m.nextID()

	node := &domain.Node{
		ID:        id,
		Position:  position,
		Dimension: m.layout.Dimension(0),
		Input:     domain.Plug{ID: inputID, NodeID: id, Role: domain.PlugInput},
		Outputs:   []domain.Plug{},
	}

	m.nodes.Set(id, node)
	m.plugs[inputID] = id
	m.dialogue.Set(id, &domain.DialogueNode{NodeID: id})
	return id
}

// RemoveNode deletes a node, every connection touching it and its dialogue entry.
func (m *Model) RemoveNode(nodeID int) error {
	node, ok := m.nodes.Get(nodeID)
	if !ok {
		return fmt.Errorf("%w: node %d", domain.ErrNotFound, nodeID)
	}

	var stale []int
	for pair := m.connections.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Touches(nodeID) {
			stale = append(stale, pair.Key)
		}
	}
	for _, id := range stale {
		m.RemoveConnection(id)
	}

	m.dialogue.Delete(nodeID)
	delete(m.plugs, node.Input.ID)
	for _, p := range node.Outputs {
		delete(m.plugs, p.ID)
	}
	m.nodes.Delete(nodeID)
	return nil
}

// MoveNode sets the editor position of a node.
func (m *Model) MoveNode(nodeID int, position domain.Vector2) error {
	node, ok := m.nodes.Get(nodeID)
	if !ok {
		return fmt.Errorf("%w: node %d", domain.ErrNotFound, nodeID)
	}
	node.Position = position
	return nil
}

// Node returns a copy of the node.
func (m *Model) Node(nodeID int) (domain.Node, error) {
	node, ok := m.nodes.Get(nodeID)
	if !ok {
		return domain.Node{}, fmt.Errorf("%w: node %d", domain.ErrNotFound, nodeID)
	}
	return node.Clone(), nil
}

// Nodes returns copies of all nodes in insertion order.
func (m *Model) Nodes() []domain.Node {
	out := make([]domain.Node, 0, m.nodes.Len())
	for pair := m.nodes.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Clone())
	}
	return out
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int {
	return m.nodes.Len()
}

// --- Plugs ---

// AddOutputPlug appends a new output plug to a node and grows the node accordingly.
// The insertion order of output plugs is the branch order of the dialogue.
func (m *Model) AddOutputPlug(nodeID int) (int, error) {
	node, ok := m.nodes.Get(nodeID)
	if !ok {
		return 0, fmt.Errorf("%w: node %d", domain.ErrNotFound, nodeID)
	}

	id := m.nextID()
	node.Outputs = append(node.Outputs, domain.Plug{ID: id, NodeID: nodeID, Role: domain.PlugOutput})
	node.Dimension = m.layout.Dimension(len(node.Outputs))
	m.plugs[id] = nodeID
	return id, nil
}

// RemoveOutputPlug deletes an output plug of a node, after removing every connection
// leaving it.
func (m *Model) RemoveOutputPlug(plugID, nodeID int) error {
	node, ok := m.nodes.Get(nodeID)
	if !ok {
		return fmt.Errorf("%w: node %d", domain.ErrNotFound, nodeID)
	}
	idx := node.OutputIndex(plugID)
	if idx < 0 {
		return fmt.Errorf("%w: output plug %d on node %d", domain.ErrNotFound, plugID, nodeID)
	}

	var stale []int
	for pair := m.connections.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.OutputPlugID == plugID {
			stale = append(stale, pair.Key)
		}
	}
	for _, id := range stale {
		m.RemoveConnection(id)
	}

	node.Outputs = append(node.Outputs[:idx], node.Outputs[idx+1:]...)
	node.Dimension = m.layout.Dimension(len(node.Outputs))
	delete(m.plugs, plugID)
	return nil
}

// PlugOwner returns the id of the node owning a plug.
func (m *Model) PlugOwner(plugID int) (int, bool) {
	nodeID, ok := m.plugs[plugID]
	return nodeID, ok
}

// --- Connections ---

// AddConnection records a connection from an output plug to an input plug and returns
// its fresh id. Endpoints are not checked here; see Connect and Validate.
func (m *Model) AddConnection(inputNodeID, inputPlugID, outputNodeID, outputPlugID int) int {
	id := m.nextID()
	m.connections.Set(id, &domain.Connection{
		ID:           id,
		InputNodeID:  inputNodeID,
		InputPlugID:  inputPlugID,
		OutputNodeID: outputNodeID,
		OutputPlugID: outputPlugID,
	})
	return id
}

// Connect wires an existing output plug to the input plug of an existing node.
func (m *Model) Connect(outputPlugID, inputNodeID int) (int, error) {
	outputNodeID, ok := m.plugs[outputPlugID]
	if !ok {
		return 0, fmt.Errorf("%w: plug %d", domain.ErrNotFound, outputPlugID)
	}
	source, _ := m.nodes.Get(outputNodeID)
	if source.OutputIndex(outputPlugID) < 0 {
		return 0, fmt.Errorf("%w: plug %d is not an output plug", domain.ErrNotFound, outputPlugID)
	}
	target, ok := m.nodes.Get(inputNodeID)
	if !ok {
		return 0, fmt.Errorf("%w: node %d", domain.ErrNotFound, inputNodeID)
	}
	return m.AddConnection(target.ID, target.Input.ID, outputNodeID, outputPlugID), nil
}

// RemoveConnection deletes a connection. Removing an absent id is not an error.
func (m *Model) RemoveConnection(connectionID int) {
	m.connections.Delete(connectionID)
}

// Connection returns a copy of the connection.
func (m *Model) Connection(connectionID int) (domain.Connection, error) {
	c, ok := m.connections.Get(connectionID)
	if !ok {
		return domain.Connection{}, fmt.Errorf("%w: connection %d", domain.ErrNotFound, connectionID)
	}
	return *c, nil
}

// Connections returns copies of all connections in insertion order.
func (m *Model) Connections() []domain.Connection {
	out := make([]domain.Connection, 0, m.connections.Len())
	for pair := m.connections.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value)
	}
	return out
}

// ConnectionCount returns the number of connections.
func (m *Model) ConnectionCount() int {
	return m.connections.Len()
}

// OutgoingConnections returns the connections leaving a node, ordered by the insertion
// order of their output plug and then by connection insertion order.
func (m *Model) OutgoingConnections(nodeID int) []domain.Connection {
	var out []domain.Connection
	for pair := m.connections.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.OutputNodeID == nodeID {
			out = append(out, *pair.Value)
		}
	}

	node, ok := m.nodes.Get(nodeID)
	if !ok {
		return out
	}
	rank := func(c domain.Connection) int {
		if i := node.OutputIndex(c.OutputPlugID); i >= 0 {
			return i
		}
		return len(node.Outputs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

// --- Dialogue ---

// Dialogue returns a copy of the dialogue entry of a node.
func (m *Model) Dialogue(nodeID int) (domain.DialogueNode, error) {
	d, ok := m.dialogue.Get(nodeID)
	if !ok {
		return domain.DialogueNode{}, fmt.Errorf("%w: dialogue for node %d", domain.ErrNotFound, nodeID)
	}
	return d.Clone(), nil
}

// DialogueNodes returns copies of all dialogue entries in insertion order.
func (m *Model) DialogueNodes() []domain.DialogueNode {
	out := make([]domain.DialogueNode, 0, m.dialogue.Len())
	for pair := m.dialogue.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Clone())
	}
	return out
}

// SetDialogue updates the speaker, body and preview text of the entry keyed by
// d.NodeID. The start flag and derived fields are left untouched.
func (m *Model) SetDialogue(d domain.DialogueNode) error {
	entry, ok := m.dialogue.Get(d.NodeID)
	if !ok {
		return fmt.Errorf("%w: dialogue for node %d", domain.ErrNotFound, d.NodeID)
	}
	entry.Speaker = d.Speaker
	entry.Body = d.Body
	entry.Preview = d.Preview
	return nil
}

// SetStartNode flags a node as the start of the dialogue and clears any previous flag.
func (m *Model) SetStartNode(nodeID int) error {
	if _, ok := m.dialogue.Get(nodeID); !ok {
		return fmt.Errorf("%w: dialogue for node %d", domain.ErrNotFound, nodeID)
	}
	for pair := m.dialogue.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.IsStartNode = pair.Key == nodeID
	}
	return nil
}

// ClearStartNode removes the start flag from every entry.
func (m *Model) ClearStartNode() {
	for pair := m.dialogue.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.IsStartNode = false
	}
}

// StartNode returns the id of the flagged start node.
func (m *Model) StartNode() (int, bool) {
	for pair := m.dialogue.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.IsStartNode {
			return pair.Key, true
		}
	}
	return domain.NoNode, false
}

// --- Reconstruction ---

// InsertNode adds a node whose ids were already assigned, e.g. by a codec.
// The dimension height is recomputed from the plug count; no dialogue entry is created.
func (m *Model) InsertNode(n domain.Node) error {
	if _, ok := m.nodes.Get(n.ID); ok {
		return fmt.Errorf("%w: node %d", domain.ErrDuplicateID, n.ID)
	}

	seen := map[int]bool{n.Input.ID: true}
	for _, p := range n.Outputs {
		if seen[p.ID] {
			return fmt.Errorf("%w: plug %d", domain.ErrDuplicateID, p.ID)
		}
		seen[p.ID] = true
	}
	for id := range seen {
		if _, taken := m.plugs[id]; taken {
			return fmt.Errorf("%w: plug %d", domain.ErrDuplicateID, id)
		}
	}

	node := n.Clone()
	if node.Outputs == nil {
		node.Outputs = []domain.Plug{}
	}
	node.Input.Role = domain.PlugInput
	for i := range node.Outputs {
		node.Outputs[i].Role = domain.PlugOutput
	}
	node.Dimension.Y = m.layout.Dimension(len(node.Outputs)).Y

	m.nodes.Set(node.ID, &node)
	for id := range seen {
		m.plugs[id] = node.ID
		m.reserve(id)
	}
	m.reserve(node.ID)
	return nil
}

// InsertConnection adds a connection whose id was already assigned.
func (m *Model) InsertConnection(c domain.Connection) error {
	if _, ok := m.connections.Get(c.ID); ok {
		return fmt.Errorf("%w: connection %d", domain.ErrDuplicateID, c.ID)
	}
	conn := c
	m.connections.Set(c.ID, &conn)
	m.reserve(c.ID)
	return nil
}

// InsertDialogue adds a dialogue entry for a node loaded from a stream.
func (m *Model) InsertDialogue(d domain.DialogueNode) error {
	if _, ok := m.dialogue.Get(d.NodeID); ok {
		return fmt.Errorf("%w: dialogue for node %d", domain.ErrDuplicateID, d.NodeID)
	}
	entry := d.Clone()
	m.dialogue.Set(d.NodeID, &entry)
	return nil
}

// Validate checks referential closure: every plug points back at its owner, every
// connection endpoint exists, nodes and dialogue entries pair up 1:1, and at most one
// entry is flagged as start.
func (m *Model) Validate() error {
	var errs []error

	for pair := m.nodes.Oldest(); pair != nil; pair = pair.Next() {
		node := pair.Value
		if node.Input.NodeID != node.ID {
			errs = append(errs, fmt.Errorf("%w: input plug %d of node %d points at node %d",
				domain.ErrDanglingReference, node.Input.ID, node.ID, node.Input.NodeID))
		}
		for _, p := range node.Outputs {
			if p.NodeID != node.ID {
				errs = append(errs, fmt.Errorf("%w: output plug %d of node %d points at node %d",
					domain.ErrDanglingReference, p.ID, node.ID, p.NodeID))
			}
		}
		if _, ok := m.dialogue.Get(node.ID); !ok {
			errs = append(errs, fmt.Errorf("%w: node %d has no dialogue entry", domain.ErrDanglingReference, node.ID))
		}
	}

	for pair := m.connections.Oldest(); pair != nil; pair = pair.Next() {
		if err := m.checkEndpoints(pair.Value); err != nil {
			errs = append(errs, err)
		}
	}

	starts := 0
	for pair := m.dialogue.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := m.nodes.Get(pair.Key); !ok {
			errs = append(errs, fmt.Errorf("%w: dialogue entry for missing node %d", domain.ErrDanglingReference, pair.Key))
		}
		if pair.Value.IsStartNode {
			starts++
		}
	}
	if starts > 1 {
		errs = append(errs, fmt.Errorf("%w: %d entries flagged", domain.ErrMultipleStartNodes, starts))
	}

	return errors.Join(errs...)
}

func (m *Model) checkEndpoints(c *domain.Connection) error {
	dest, ok := m.nodes.Get(c.InputNodeID)
	if !ok {
		return fmt.Errorf("%w: connection %d targets missing node %d", domain.ErrDanglingReference, c.ID, c.InputNodeID)
	}
	if dest.Input.ID != c.InputPlugID {
		return fmt.Errorf("%w: connection %d targets plug %d, not the input of node %d",
			domain.ErrDanglingReference, c.ID, c.InputPlugID, c.InputNodeID)
	}
	source, ok := m.nodes.Get(c.OutputNodeID)
	if !ok {
		return fmt.Errorf("%w: connection %d leaves missing node %d", domain.ErrDanglingReference, c.ID, c.OutputNodeID)
	}
	if source.OutputIndex(c.OutputPlugID) < 0 {
		return fmt.Errorf("%w: connection %d leaves plug %d, not an output of node %d",
			domain.ErrDanglingReference, c.ID, c.OutputPlugID, c.OutputNodeID)
	}
	return nil
}
