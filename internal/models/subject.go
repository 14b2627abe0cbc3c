package models

// Subject is a single recommendation card returned by the catalog.
type Subject struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Rate         string `json:"rate"`
	Cover        string `json:"cover"`
	URL          string `json:"url"`
	CoverX       int    `json:"cover_x,omitempty"`
	CoverY       int    `json:"cover_y,omitempty"`
	IsNew        bool   `json:"is_new"`
	Playable     bool   `json:"playable"`
	EpisodesInfo string `json:"episodes_info,omitempty"`
}

// SubjectPage is the decoded search_subjects payload. An empty Subjects slice
// is a valid result, not an error.
type SubjectPage struct {
	Subjects []Subject `json:"subjects"`
}

// IsEmpty reports whether the page carries no subjects.
func (p *SubjectPage) IsEmpty() bool {
	return p == nil || len(p.Subjects) == 0
}

// TagList is the decoded search_tags payload.
type TagList struct {
	Tags []string `json:"tags"`
}
