package domain

// Vector2 is a 2-D point or extent in editor space.
type Vector2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}
