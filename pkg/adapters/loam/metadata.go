package loam

// AssetMetadata is the front matter of a dialogue document.
// The document body holds the authoring stream.
type AssetMetadata struct {
	// ID overrides the id derived from the file name.
	ID          string `json:"id" mapstructure:"id"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
}
