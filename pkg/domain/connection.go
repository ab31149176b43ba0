package domain

// Connection is a directed edge from an output plug (the source) to an input plug
// (the destination).
type Connection struct {
	ID int `json:"id"`

	// InputNodeID and InputPlugID name the destination.
	InputNodeID int `json:"input_node_id"`
	InputPlugID int `json:"input_plug_id"`

	// OutputNodeID and OutputPlugID name the source.
	OutputNodeID int `json:"output_node_id"`
	OutputPlugID int `json:"output_plug_id"`
}

// Touches reports whether either endpoint belongs to the given node.
func (c Connection) Touches(nodeID int) bool {
	return c.InputNodeID == nodeID || c.OutputNodeID == nodeID
}
