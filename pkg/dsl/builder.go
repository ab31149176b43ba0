package dsl

import (
	"fmt"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
)

// ColumnWidth is the horizontal spacing used when lines do not set a position.
const ColumnWidth = 220.0

// Builder manages the tree construction.
type Builder struct {
	order []string
	lines map[string]*LineBuilder
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		lines: make(map[string]*LineBuilder),
	}
}

// Line declares a line of dialogue.
// If the label already exists, it returns the existing builder.
func (b *Builder) Line(label string) *LineBuilder {
	if lb, ok := b.lines[label]; ok {
		return lb
	}
	lb := &LineBuilder{
		label:    label,
		position: domain.Vector2{X: float64(len(b.order)) * ColumnWidth},
	}
	b.lines[label] = lb
	b.order = append(b.order, label)
	return lb
}

// Tree is a built dialogue graph together with the ids assigned to each label.
type Tree struct {
	*graph.Model
	IDs map[string]int
}

// ID returns the node id assigned to a label.
func (t *Tree) ID(label string) int {
	return t.IDs[label]
}

// Build creates the graph. Lines are added in declaration order.
func (b *Builder) Build(opts ...graph.Option) (*Tree, error) {
	m := graph.New(opts...)
	ids := make(map[string]int, len(b.order))

	start := ""
	for _, label := range b.order {
		lb := b.lines[label]
		if lb.start {
			if start != "" {
				return nil, fmt.Errorf("%w: %q and %q", domain.ErrMultipleStartNodes, start, label)
			}
			start = label
		}
		id := m.AddNode(lb.position)
		ids[label] = id
		if err := m.SetDialogue(domain.DialogueNode{
			NodeID:  id,
			Speaker: lb.speaker,
			Body:    lb.body,
			Preview: lb.preview,
		}); err != nil {
			return nil, err
		}
	}

	for _, label := range b.order {
		lb := b.lines[label]
		for _, target := range lb.next {
			to, ok := ids[target]
			if !ok {
				return nil, fmt.Errorf("%w: line %q leads to unknown line %q", domain.ErrDanglingReference, label, target)
			}
			plug, err := m.AddOutputPlug(ids[label])
			if err != nil {
				return nil, err
			}
			if _, err := m.Connect(plug, to); err != nil {
				return nil, err
			}
		}
	}

	if start != "" {
		if err := m.SetStartNode(ids[start]); err != nil {
			return nil, err
		}
	}

	return &Tree{Model: m, IDs: ids}, nil
}
