package session

import (
	"context"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
)

// NodePatch carries the fields of a node to change. Nil fields are left as they are.
type NodePatch struct {
	Speaker  *string         `json:"speaker,omitempty"`
	Body     *string         `json:"body,omitempty"`
	Preview  *string         `json:"preview,omitempty"`
	Start    *bool           `json:"start,omitempty"`
	Position *domain.Vector2 `json:"position,omitempty"`
}

// Sanitized returns the patch with its text fields cleaned by SanitizeText.
func (p NodePatch) Sanitized() (NodePatch, error) {
	var err error
	if p.Speaker, err = sanitizeField("speaker", p.Speaker); err != nil {
		return p, err
	}
	if p.Body, err = sanitizeField("body", p.Body); err != nil {
		return p, err
	}
	if p.Preview, err = sanitizeField("preview", p.Preview); err != nil {
		return p, err
	}
	return p, nil
}

// Apply sanitizes the patch and writes it to node nodeID of m.
func (p NodePatch) Apply(m *graph.Model, nodeID int) error {
	p, err := p.Sanitized()
	if err != nil {
		return err
	}
	d, err := m.Dialogue(nodeID)
	if err != nil {
		return err
	}
	if p.Speaker != nil {
		d.Speaker = *p.Speaker
	}
	if p.Body != nil {
		d.Body = *p.Body
	}
	if p.Preview != nil {
		d.Preview = *p.Preview
	}
	if err := m.SetDialogue(d); err != nil {
		return err
	}

	if p.Start != nil {
		switch {
		case *p.Start:
			if err := m.SetStartNode(nodeID); err != nil {
				return err
			}
		case d.IsStartNode:
			m.ClearStartNode()
		}
	}
	if p.Position != nil {
		return m.MoveNode(nodeID, *p.Position)
	}
	return nil
}

// AddNode appends an empty node at position and returns its id.
func (m *Manager) AddNode(ctx context.Context, assetID string, position domain.Vector2) (int, *domain.Asset, error) {
	var nodeID int
	asset, err := m.Edit(ctx, assetID, func(g *graph.Model) error {
		nodeID = g.AddNode(position)
		return nil
	})
	return nodeID, asset, err
}

// UpdateNode applies patch to one node.
func (m *Manager) UpdateNode(ctx context.Context, assetID string, nodeID int, patch NodePatch) (*domain.Asset, error) {
	return m.Edit(ctx, assetID, func(g *graph.Model) error {
		return patch.Apply(g, nodeID)
	})
}

// RemoveNode deletes a node together with its connections.
func (m *Manager) RemoveNode(ctx context.Context, assetID string, nodeID int) (*domain.Asset, error) {
	return m.Edit(ctx, assetID, func(g *graph.Model) error {
		return g.RemoveNode(nodeID)
	})
}

// AddOption appends a dialogue option (an output plug) to a node and, when target is
// not nil, connects it to the target node. It returns the new plug id.
func (m *Manager) AddOption(ctx context.Context, assetID string, nodeID int, target *int) (int, *domain.Asset, error) {
	var plugID int
	asset, err := m.Edit(ctx, assetID, func(g *graph.Model) error {
		var err error
		plugID, err = g.AddOutputPlug(nodeID)
		if err != nil {
			return err
		}
		if target == nil {
			return nil
		}
		_, err = g.Connect(plugID, *target)
		return err
	})
	return plugID, asset, err
}

// RemoveOption deletes an output plug of a node and the connections leaving it.
func (m *Manager) RemoveOption(ctx context.Context, assetID string, nodeID, plugID int) (*domain.Asset, error) {
	return m.Edit(ctx, assetID, func(g *graph.Model) error {
		return g.RemoveOutputPlug(plugID, nodeID)
	})
}
