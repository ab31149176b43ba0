package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Printer writes runtime views for humans. Output is styled only when it goes to a
// terminal; pipes and files get plain text.
type Printer struct {
	w       io.Writer
	styled  bool
	profile termenv.Profile
	render  func(string) (string, error)
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.styled = true
		p.profile = termenv.ColorProfile()
		p.render = NewRenderer()
	}
	return p
}

// Styled reports whether the printer emits colors and rendered markdown.
func (p *Printer) Styled() bool {
	return p.styled
}

func (p *Printer) color(s, hex string) string {
	if !p.styled {
		return s
	}
	return termenv.String(s).Foreground(p.profile.Color(hex)).String()
}

func (p *Printer) body(text string) string {
	if p.styled && p.render != nil {
		if out, err := p.render(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return indent(text, "    ")
}

// PrintView lists every entry with its text and options, then the reachability summary.
func (p *Printer) PrintView(v *compiler.View) {
	for _, e := range v.Entries {
		marker := "•"
		if e.NodeID == v.StartNodeID {
			marker = p.color("▶", "#22c55e")
		}

		speaker := e.Speaker
		if speaker == "" {
			speaker = "(narrator)"
		}
		fmt.Fprintf(p.w, "%s #%d %s\n", marker, e.NodeID, p.color(speaker, "#a78bfa"))

		if e.Body != "" {
			fmt.Fprintln(p.w, p.body(e.Body))
		}

		for _, next := range e.NextNodeIDs {
			fmt.Fprintf(p.w, "    → #%d %s\n", next, p.optionLabel(v, next))
		}
		fmt.Fprintln(p.w)
	}

	p.PrintReport(compiler.Reachability(v))
}

func (p *Printer) optionLabel(v *compiler.View, nodeID int) string {
	target, ok := v.Entry(nodeID)
	if !ok {
		return p.color("(missing)", "#ef4444")
	}
	return target.Preview
}

// PrintReport writes a one-paragraph reachability summary.
func (p *Printer) PrintReport(r compiler.Report) {
	if r.MissingStart {
		fmt.Fprintln(p.w, p.color("no start node", "#f59e0b"))
	}
	if len(r.Unreachable) > 0 && !r.MissingStart {
		fmt.Fprintf(p.w, "%s %v\n", p.color("unreachable:", "#f59e0b"), r.Unreachable)
	}
	if len(r.DeadEnds) > 0 {
		fmt.Fprintf(p.w, "dialogue ends at: %v\n", r.DeadEnds)
	}
	if r.OK() {
		fmt.Fprintln(p.w, p.color("✓ every line is reachable", "#22c55e"))
	}
}

// PrintModelSummary writes counts of the authoring graph.
func (p *Printer) PrintModelSummary(assetID string, nodes, connections int, start int) {
	s := "none"
	if start != domain.NoNode {
		s = fmt.Sprintf("#%d", start)
	}
	fmt.Fprintf(p.w, "%s: %d nodes, %d connections, start %s\n", p.color(assetID, "#818cf8"), nodes, connections, s)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
