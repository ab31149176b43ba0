package compiler

import (
	"fmt"

	"github.com/aretw0/dialoguetree/internal/tokens"
	"github.com/aretw0/dialoguetree/pkg/domain"
)

// FormatTag opens every runtime stream written by Encode.
const FormatTag = "dialogue-runtime/1"

// node_id speaker body preview is_branching next_count
const entryTokens = 6

// Encode writes a runtime view.
func Encode(v *View) string {
	w := tokens.NewWriter(FormatTag)

	w.Int(len(v.Entries))
	for _, e := range v.Entries {
		w.Int(e.NodeID)
		w.String(e.Speaker)
		w.String(e.Body)
		w.String(e.Preview)
		w.Bool(e.IsBranching)
		w.Int(len(e.NextNodeIDs))
		for _, id := range e.NextNodeIDs {
			w.Int(id)
		}
	}
	w.Int(v.StartNodeID)

	return w.Stream()
}

// Decode reads a runtime stream straight into dialogue entries, without rebuilding a
// graph. An empty stream yields an empty view. Every next id and the start id must name
// an entry of the stream.
func Decode(stream string) (*View, error) {
	r, err := tokens.NewReader(stream, FormatTag)
	if err != nil {
		return nil, err
	}
	if r.Empty() {
		return newView([]domain.DialogueNode{}, domain.NoNode), nil
	}

	count := r.Count("entry count", entryTokens)
	entries := make([]domain.DialogueNode, 0, count)
	seen := make(map[int]bool, count)

	for i := 0; i < count; i++ {
		var e domain.DialogueNode
		e.NodeID = r.Int("node id")
		e.Speaker = r.String("speaker")
		e.Body = r.String("body")
		e.Preview = r.String("preview")
		e.IsBranching = r.Bool("branching flag")

		next := r.Count("next count", 1)
		e.NextNodeIDs = make([]int, 0, next)
		for j := 0; j < next; j++ {
			e.NextNodeIDs = append(e.NextNodeIDs, r.Int("next node id"))
		}
		if r.Err() != nil {
			return nil, r.Err()
		}

		if seen[e.NodeID] {
			return nil, fmt.Errorf("%w: %w: entry %d", domain.ErrMalformedStream, domain.ErrDuplicateID, e.NodeID)
		}
		seen[e.NodeID] = true
		entries = append(entries, e)
	}

	start := r.Int("start node id")
	if err := r.Done(); err != nil {
		return nil, err
	}

	for i := range entries {
		for _, id := range entries[i].NextNodeIDs {
			if !seen[id] {
				return nil, fmt.Errorf("%w: entry %d leads to missing node %d", domain.ErrDanglingReference, entries[i].NodeID, id)
			}
		}
		entries[i].IsStartNode = entries[i].NodeID == start
	}
	if start != domain.NoNode && !seen[start] {
		return nil, fmt.Errorf("%w: start node %d", domain.ErrDanglingReference, start)
	}

	return newView(entries, start), nil
}
