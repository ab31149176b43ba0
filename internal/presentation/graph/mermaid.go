package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/dialoguetree/pkg/compiler"
)

// maxLabel is the number of runes of body text shown inside a node.
const maxLabel = 40

// GraphOverlay marks nodes found by a reachability check.
type GraphOverlay struct {
	Unreachable []int
	DeadEnds    []int
}

// OverlayFromReport builds an overlay from a reachability report.
func OverlayFromReport(r compiler.Report) *GraphOverlay {
	return &GraphOverlay{Unreachable: r.Unreachable, DeadEnds: r.DeadEnds}
}

// GenerateMermaid produces a Mermaid flowchart from a runtime view.
// It applies semantic styling:
// - Start: ((Circle))
// - Branching: {Rhombus}
// - Default: [Rectangle]
// Edges carry the preview text of the line they lead to.
func GenerateMermaid(v *compiler.View, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, e := range v.Entries {
		opener, closer := "[", "]"
		switch {
		case e.NodeID == v.StartNodeID:
			opener, closer = "((", "))"
		case e.IsBranching:
			opener, closer = "{", "}"
		}

		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(e.NodeID), opener, nodeLabel(e.NodeID, e.Speaker, e.Body), closer)

		for _, next := range e.NextNodeIDs {
			arrow := "-->"
			if target, ok := v.Entry(next); ok && target.Preview != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", sanitizeLabel(target.Preview))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", mermaidID(e.NodeID), arrow, mermaidID(next))
		}
	}

	if overlay != nil && (len(overlay.Unreachable) > 0 || len(overlay.DeadEnds) > 0) {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the labels readable on both light and dark themes.
		sb.WriteString("    classDef unreachable fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef deadend fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		for _, id := range overlay.Unreachable {
			fmt.Fprintf(&sb, "    class %s unreachable;\n", mermaidID(id))
		}
		for _, id := range overlay.DeadEnds {
			fmt.Fprintf(&sb, "    class %s deadend;\n", mermaidID(id))
		}
	}

	return sb.String()
}

func mermaidID(nodeID int) string {
	return fmt.Sprintf("n%d", nodeID)
}

func nodeLabel(nodeID int, speaker, body string) string {
	text := body
	if r := []rune(text); len(r) > maxLabel {
		text = string(r[:maxLabel-1]) + "…"
	}
	label := fmt.Sprintf("#%d", nodeID)
	if speaker != "" {
		label += " " + speaker
	}
	if text != "" {
		label += ": " + text
	}
	return sanitizeLabel(label)
}

// sanitizeLabel keeps user text from breaking out of a quoted Mermaid label.
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\r\n", "<br/>")
	s = strings.ReplaceAll(s, "\n", "<br/>")
	return s
}
