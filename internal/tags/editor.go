package tags

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/metrics"
	"github.com/Belphemur/DoubanRecommend/internal/models"
)

// Editor holds the in-memory tag lists and applies validated mutations,
// persisting after each one. Every completed mutation is published to the
// subscribed observers.
type Editor struct {
	mu        sync.Mutex
	lists     map[models.Category][]string
	store     *Store
	observers observers
	logger    zerolog.Logger
}

// NewEditor loads both lists from the store.
func NewEditor(ctx context.Context, store *Store) *Editor {
	movie, tv := store.Load(ctx)
	return &Editor{
		lists: map[models.Category][]string{
			models.CategoryMovie: movie,
			models.CategoryTV:    tv,
		},
		store:  store,
		logger: config.GetLogger(),
	}
}

// Subscribe registers fn for change events and returns a function removing it.
func (e *Editor) Subscribe(fn Observer) (unsubscribe func()) {
	return e.observers.subscribe(fn)
}

// Tags returns a copy of the category's list.
func (e *Editor) Tags(category models.Category) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneList(e.lists[category])
}

// Contains reports whether tag is in the category's list (exact match).
func (e *Editor) Contains(category models.Category, tag string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.lists[category] {
		if existing == tag {
			return true
		}
	}
	return false
}

// Add appends a new tag. Empty, invalid and case-insensitive duplicate tags are rejected.
func (e *Editor) Add(ctx context.Context, category models.Category, raw string) error {
	if !category.Valid() {
		return &apperrors.ErrUnknownCategory{Value: string(category)}
	}
	tag, err := Normalize(raw)
	if err != nil {
		e.reject(OpAdd, category, raw, err)
		return err
	}

	e.mu.Lock()
	list := e.lists[category]
	if i := indexFold(list, tag); i >= 0 {
		e.mu.Unlock()
		err := &apperrors.ErrDuplicateTag{Tag: tag, Existing: list[i]}
		e.reject(OpAdd, category, tag, err)
		return err
	}
	e.lists[category] = append(cloneList(list), tag)
	ev, saveErr := e.persistLocked(ctx, OpAdd, category, tag)
	e.mu.Unlock()

	return e.complete(ev, saveErr)
}

// Delete removes the first exact match of tag. The sentinel cannot be removed.
func (e *Editor) Delete(ctx context.Context, category models.Category, tag string) error {
	if !category.Valid() {
		return &apperrors.ErrUnknownCategory{Value: string(category)}
	}
	if tag == models.SentinelTag {
		err := &apperrors.ErrSentinelTag{Tag: tag}
		e.reject(OpDelete, category, tag, err)
		return err
	}

	e.mu.Lock()
	list := e.lists[category]
	index := -1
	for i, existing := range list {
		if existing == tag {
			index = i
			break
		}
	}
	if index < 0 {
		e.mu.Unlock()
		err := &apperrors.ErrTagNotFound{Tag: tag}
		e.reject(OpDelete, category, tag, err)
		return err
	}
	updated := make([]string, 0, len(list)-1)
	updated = append(updated, list[:index]...)
	updated = append(updated, list[index+1:]...)
	e.lists[category] = updated
	ev, saveErr := e.persistLocked(ctx, OpDelete, category, tag)
	e.mu.Unlock()

	return e.complete(ev, saveErr)
}

// Reset restores the category's built-in defaults.
func (e *Editor) Reset(ctx context.Context, category models.Category) error {
	if !category.Valid() {
		return &apperrors.ErrUnknownCategory{Value: string(category)}
	}

	e.mu.Lock()
	e.lists[category] = category.DefaultTags()
	ev, saveErr := e.persistLocked(ctx, OpReset, category, "")
	e.mu.Unlock()

	return e.complete(ev, saveErr)
}

// persistLocked saves both lists. Must be called with e.mu held so that saves
// land in mutation order.
func (e *Editor) persistLocked(ctx context.Context, op Op, category models.Category, tag string) (Event, error) {
	err := e.store.Save(ctx, e.lists[models.CategoryMovie], e.lists[models.CategoryTV])
	return Event{
		Op:       op,
		Category: category,
		Tag:      tag,
		Tags:     cloneList(e.lists[category]),
		Saved:    err == nil,
	}, err
}

// complete records the outcome and notifies observers. The in-memory change
// is kept even when saving failed.
func (e *Editor) complete(ev Event, saveErr error) error {
	var err error
	if saveErr != nil {
		e.logger.Error().Err(saveErr).Str("op", string(ev.Op)).Str("category", string(ev.Category)).Msg("Failed to save tags")
		metrics.TagMutationsTotal.WithLabelValues(string(ev.Op), "persist_error").Inc()
		err = &apperrors.ErrPersist{Err: saveErr}
	} else {
		e.logger.Info().Str("op", string(ev.Op)).Str("category", string(ev.Category)).Str("tag", ev.Tag).Int("count", len(ev.Tags)).Msg("Tags updated")
		metrics.TagMutationsTotal.WithLabelValues(string(ev.Op), "ok").Inc()
	}
	e.observers.notify(ev)
	return err
}

func (e *Editor) reject(op Op, category models.Category, tag string, err error) {
	e.logger.Debug().Err(err).Str("op", string(op)).Str("category", string(category)).Str("tag", tag).Msg("Tag change rejected")
	metrics.TagMutationsTotal.WithLabelValues(string(op), "rejected").Inc()
}

func cloneList(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
