package domain

// NoNode is the id used when no node is referenced (e.g. a runtime view without a start node).
const NoNode = 0

// Default node layout, in editor units.
const (
	DefaultNodeWidth  = 150.0
	DefaultNodeHeight = 45.0
	DefaultPlugHeight = 20.0
	DefaultPlugGap    = 10.0
)

// Layout describes how a node's dimension follows from its plug count.
type Layout struct {
	Base       Vector2
	PlugHeight float64
	PlugGap    float64
}

// DefaultLayout returns the layout used by the editor.
func DefaultLayout() Layout {
	return Layout{
		Base:       Vector2{X: DefaultNodeWidth, Y: DefaultNodeHeight},
		PlugHeight: DefaultPlugHeight,
		PlugGap:    DefaultPlugGap,
	}
}

// Dimension returns the node dimension for the given number of output plugs.
func (l Layout) Dimension(plugCount int) Vector2 {
	return Vector2{
		X: l.Base.X,
		Y: l.Base.Y + float64(plugCount)*(l.PlugHeight+l.PlugGap),
	}
}
