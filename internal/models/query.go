package models

// DefaultSort is the catalog sort order used by the widget.
const DefaultSort = "recommend"

// Query selects one page of recommendations from the catalog.
type Query struct {
	Category  Category `json:"type"`
	Tag       string   `json:"tag"`
	Sort      string   `json:"sort"`
	PageLimit int      `json:"page_limit"`
	PageStart int      `json:"page_start"`
}
