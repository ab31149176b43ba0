package domain

import "time"

// Asset is a saved dialogue tree: the authoring stream used to reopen the editor, and the
// runtime stream consumed by playback. RuntimeData is always derived from AuthoringData.
type Asset struct {
	ID            string    `json:"id"`
	AuthoringData string    `json:"authoring_data"`
	RuntimeData   string    `json:"runtime_data"`
	UpdatedAt     time.Time `json:"updated_at"`
}
