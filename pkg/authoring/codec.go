// Package authoring converts a whole dialogue graph (topology, layout and dialogue text)
// to and from the authoring token stream used to reopen a tree in the editor.
//
// Stream layout, after the format tag:
//
//	conn_count {conn_id in_node out_node in_plug out_plug}*
//	node_count {node_id pos_x pos_y dim_x dim_y in_plug_node in_plug_id out_count {out_plug_node out_plug_id}*}*
//	dialogue_count {node_id speaker body preview is_start}*
//
// Derived dialogue fields (branching flag, next nodes) are not part of this form.
package authoring

import (
	"fmt"

	"github.com/aretw0/dialoguetree/internal/tokens"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
)

// FormatTag opens every authoring stream written by Encode.
const FormatTag = "dialogue-authoring/1"

// Minimum number of tokens per record, used to bound counts read from the stream.
const (
	connectionTokens = 5
	nodeTokens       = 8
	dialogueTokens   = 5
)

// Encode writes the full model. Entities are emitted in the model's insertion order, so
// encoding the same model twice yields the same stream.
func Encode(m *graph.Model) string {
	w := tokens.NewWriter(FormatTag)

	conns := m.Connections()
	w.Int(len(conns))
	for _, c := range conns {
		w.Int(c.ID)
		w.Int(c.InputNodeID)
		w.Int(c.OutputNodeID)
		w.Int(c.InputPlugID)
		w.Int(c.OutputPlugID)
	}

	nodes := m.Nodes()
	w.Int(len(nodes))
	for _, n := range nodes {
		w.Int(n.ID)
		w.Float(n.Position.X)
		w.Float(n.Position.Y)
		w.Float(n.Dimension.X)
		w.Float(n.Dimension.Y)
		writePlug(w, n.Input)
		w.Int(len(n.Outputs))
		for _, p := range n.Outputs {
			writePlug(w, p)
		}
	}

	entries := m.DialogueNodes()
	w.Int(len(entries))
	for _, d := range entries {
		w.Int(d.NodeID)
		w.String(d.Speaker)
		w.String(d.Body)
		w.String(d.Preview)
		w.Bool(d.IsStartNode)
	}

	return w.Stream()
}

func writePlug(w *tokens.Writer, p domain.Plug) {
	w.Int(p.NodeID)
	w.Int(p.ID)
}

// Decode rebuilds a model from an authoring stream. An empty stream yields an empty model.
// Referential closure is checked once the whole stream is read, since entities may be
// listed before the nodes they point at.
func Decode(stream string, opts ...graph.Option) (*graph.Model, error) {
	r, err := tokens.NewReader(stream, FormatTag)
	if err != nil {
		return nil, err
	}

	m := graph.New(opts...)
	if r.Empty() {
		return m, nil
	}

	if err := readConnections(r, m); err != nil {
		return nil, err
	}
	if err := readNodes(r, m); err != nil {
		return nil, err
	}
	if err := readDialogue(r, m); err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}

	// Streams written by older editors may miss entries; pair them so every node keeps
	// its dialogue payload.
	for _, n := range m.Nodes() {
		if _, err := m.Dialogue(n.ID); err != nil {
			if err := m.InsertDialogue(domain.DialogueNode{NodeID: n.ID}); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrMalformedStream, err)
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func readConnections(r *tokens.Reader, m *graph.Model) error {
	count := r.Count("connection count", connectionTokens)
	for i := 0; i < count; i++ {
		var c domain.Connection
		c.ID = r.Int("connection id")
		c.InputNodeID = r.Int("connection input node")
		c.OutputNodeID = r.Int("connection output node")
		c.InputPlugID = r.Int("connection input plug")
		c.OutputPlugID = r.Int("connection output plug")
		if r.Err() != nil {
			return r.Err()
		}
		if err := m.InsertConnection(c); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrMalformedStream, err)
		}
	}
	return r.Err()
}

func readNodes(r *tokens.Reader, m *graph.Model) error {
	count := r.Count("node count", nodeTokens)
	for i := 0; i < count; i++ {
		var n domain.Node
		n.ID = r.Int("node id")
		n.Position.X = r.Float("node position x")
		n.Position.Y = r.Float("node position y")
		n.Dimension.X = r.Float("node dimension x")
		n.Dimension.Y = r.Float("node dimension y")
		n.Input = readPlug(r, domain.PlugInput)

		outputs := r.Count("output plug count", 2)
		n.Outputs = make([]domain.Plug, 0, outputs)
		for j := 0; j < outputs; j++ {
			n.Outputs = append(n.Outputs, readPlug(r, domain.PlugOutput))
		}
		if r.Err() != nil {
			return r.Err()
		}

		if want := m.Layout().Dimension(len(n.Outputs)).Y; n.Dimension.Y != want {
			return fmt.Errorf("%w: node %d has height %v, want %v for %d output plugs",
				domain.ErrMalformedStream, n.ID, n.Dimension.Y, want, len(n.Outputs))
		}
		if err := m.InsertNode(n); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrMalformedStream, err)
		}
	}
	return r.Err()
}

func readPlug(r *tokens.Reader, role domain.PlugRole) domain.Plug {
	var p domain.Plug
	p.NodeID = r.Int("plug node id")
	p.ID = r.Int("plug id")
	p.Role = role
	return p
}

func readDialogue(r *tokens.Reader, m *graph.Model) error {
	count := r.Count("dialogue count", dialogueTokens)
	for i := 0; i < count; i++ {
		var d domain.DialogueNode
		d.NodeID = r.Int("dialogue node id")
		d.Speaker = r.String("speaker")
		d.Body = r.String("body")
		d.Preview = r.String("preview")
		d.IsStartNode = r.Bool("start flag")
		if r.Err() != nil {
			return r.Err()
		}
		if err := m.InsertDialogue(d); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrMalformedStream, err)
		}
	}
	return r.Err()
}
