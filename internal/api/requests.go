package api

import (
	"time"

	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/widget"
)

// CategoryRequest switches the current category.
type CategoryRequest struct {
	Category string `json:"category" validate:"required,oneof=movie tv"`
}

// TagRequest selects or adds a tag. Normalization and length checks happen
// in the editor so the rejection reasons stay consistent.
type TagRequest struct {
	Tag string `json:"tag" validate:"required,max=256"`
}

// EnabledRequest toggles the widget.
type EnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// WidgetState is the JSON form of a widget snapshot.
type WidgetState struct {
	Enabled   bool             `json:"enabled"`
	Category  models.Category  `json:"category"`
	Tag       string           `json:"tag"`
	Tags      []string         `json:"tags"`
	PageStart int              `json:"page_start"`
	PageSize  int              `json:"page_size"`
	Loading   bool             `json:"loading"`
	Subjects  []models.Subject `json:"subjects"`
	Empty     bool             `json:"empty"`
	Error     *APIError        `json:"error,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

// TagsResponse lists the tags of one category.
type TagsResponse struct {
	Category models.Category `json:"category"`
	Tags     []string        `json:"tags"`
	// Saved is false when the change was applied but could not be persisted.
	Saved   bool   `json:"saved"`
	Warning string `json:"warning,omitempty"`
}

// SuggestionsResponse lists the remote tags of one category.
type SuggestionsResponse struct {
	Category models.Category `json:"category"`
	Tags     []string        `json:"tags"`
}

// EnabledResponse reports the flag.
type EnabledResponse struct {
	Enabled bool   `json:"enabled"`
	Saved   bool   `json:"saved"`
	Warning string `json:"warning,omitempty"`
}

func newWidgetState(snap widget.Snapshot) WidgetState {
	state := WidgetState{
		Enabled:   snap.Enabled,
		Category:  snap.Category,
		Tag:       snap.Tag,
		Tags:      snap.Tags,
		PageStart: snap.PageStart,
		PageSize:  snap.PageSize,
		Loading:   snap.Loading,
		Subjects:  []models.Subject{},
	}
	if state.Tags == nil {
		state.Tags = []string{}
	}
	if snap.Page != nil {
		state.Subjects = snap.Page.Subjects
		state.Empty = snap.Page.IsEmpty()
	}
	if snap.Err != nil {
		_, state.Error = classify(snap.Err)
	}
	if !snap.UpdatedAt.IsZero() {
		updated := snap.UpdatedAt
		state.UpdatedAt = &updated
	}
	return state
}
