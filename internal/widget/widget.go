// Package widget holds the recommendation widget state: the selected
// category, tag and page window, the feature flag, and the last fetch result.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/storage"
	"github.com/Belphemur/DoubanRecommend/internal/tags"
)

// EnabledKey is the storage key of the feature flag.
const EnabledKey = "doubanEnabled"

const (
	DefaultPageSize = 16
	DefaultMaxPages = 9
)

// Catalog fetches recommendation pages.
type Catalog interface {
	Recommend(ctx context.Context, query models.Query) (*models.SubjectPage, error)
}

// TagLister exposes the tag lists owned by the editor.
type TagLister interface {
	Tags(category models.Category) []string
	Contains(category models.Category, tag string) bool
}

// Options configures paging. Zero values select the defaults.
type Options struct {
	PageSize int
	MaxPages int
}

// Snapshot is an immutable view of the widget state.
type Snapshot struct {
	Enabled   bool
	Category  models.Category
	Tag       string
	Tags      []string
	PageStart int
	PageSize  int
	Loading   bool
	Page      *models.SubjectPage
	Err       error
	UpdatedAt time.Time
}

// Widget is the application-root state object. All methods are safe for
// concurrent use.
type Widget struct {
	catalog Catalog
	tags    TagLister
	backend storage.Store
	logger  zerolog.Logger

	pageSize int
	maxPages int

	// ctx bounds background refreshes; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	enabled   bool
	category  models.Category
	tag       string
	start     int
	page      *models.SubjectPage
	lastErr   error
	updatedAt time.Time
	inflight  int
	idle      chan struct{}
}

// New creates a widget on the movie category with the sentinel tag selected.
// The feature flag is read from backend; a missing flag means disabled.
func New(ctx context.Context, catalog Catalog, lister TagLister, backend storage.Store, opts Options) *Widget {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}

	idle := make(chan struct{})
	close(idle)

	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Widget{
		catalog:  catalog,
		tags:     lister,
		backend:  backend,
		logger:   config.GetLogger(),
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		ctx:      bg,
		cancel:   cancel,
		category: models.CategoryMovie,
		tag:      models.SentinelTag,
		idle:     idle,
	}
	w.enabled = w.loadEnabled(ctx)
	return w
}

func (w *Widget) loadEnabled(ctx context.Context) bool {
	raw, err := w.backend.Get(ctx, EnabledKey)
	if err != nil {
		if !errors.Is(err, &apperrors.ErrNotFound{}) {
			w.logger.Warn().Err(err).Msg("Failed to read feature flag, treating as disabled")
		}
		return false
	}
	return string(raw) == "true"
}

// Start triggers the initial fetch when the widget is enabled.
func (w *Widget) Start() {
	if w.Enabled() {
		w.refreshAsync()
	}
}

// Close cancels background refreshes and waits for them to return.
func (w *Widget) Close() {
	w.cancel()
	w.wg.Wait()
}

// Enabled reports the feature flag.
func (w *Widget) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// SetEnabled persists the feature flag. Enabling a widget that has nothing
// to show triggers a fetch. The in-memory flag is updated even when saving
// fails, in which case an *apperrors.ErrPersist is returned.
func (w *Widget) SetEnabled(ctx context.Context, enabled bool) error {
	w.mu.Lock()
	w.enabled = enabled
	needsFetch := enabled && w.page == nil && w.inflight == 0
	w.mu.Unlock()

	value := "false"
	if enabled {
		value = "true"
	}
	var err error
	if saveErr := w.backend.Set(ctx, EnabledKey, []byte(value)); saveErr != nil {
		w.logger.Error().Err(saveErr).Bool("enabled", enabled).Msg("Failed to save feature flag")
		err = &apperrors.ErrPersist{Err: saveErr}
	}

	w.logger.Info().Bool("enabled", enabled).Msg("Feature flag updated")
	if needsFetch {
		w.refreshAsync()
	}
	return err
}

// SwitchCategory selects another category. Switching to the current one is a
// no-op and returns false. Otherwise the selection falls back to the sentinel
// tag on the first page, and a fetch is triggered when enabled.
func (w *Widget) SwitchCategory(category models.Category) (bool, error) {
	if !category.Valid() {
		return false, &apperrors.ErrUnknownCategory{Value: string(category)}
	}

	w.mu.Lock()
	if w.category == category {
		w.mu.Unlock()
		return false, nil
	}
	w.category = category
	w.tag = models.SentinelTag
	w.start = 0
	enabled := w.enabled
	w.mu.Unlock()

	w.logger.Info().Str("category", string(category)).Msg("Category switched")
	if enabled {
		w.refreshAsync()
	}
	return true, nil
}

// SelectTag makes tag the active one. The tag must exist in the current
// category's list. Selecting the active tag is a no-op and returns false.
func (w *Widget) SelectTag(tag string) (bool, error) {
	w.mu.Lock()
	category := w.category
	if w.tag == tag {
		w.mu.Unlock()
		return false, nil
	}
	w.mu.Unlock()

	if !w.tags.Contains(category, tag) {
		return false, &apperrors.ErrTagNotFound{Tag: tag}
	}

	w.mu.Lock()
	if w.category != category {
		// The category changed while we checked the list.
		w.mu.Unlock()
		return false, &apperrors.ErrTagNotFound{Tag: tag}
	}
	w.tag = tag
	w.start = 0
	w.mu.Unlock()

	w.logger.Info().Str("category", string(category)).Str("tag", tag).Msg("Tag selected")
	w.refreshAsync()
	return true, nil
}

// NextPage advances to the next page of the rotating window and triggers a
// fetch. It returns the new page offset.
func (w *Widget) NextPage() int {
	w.mu.Lock()
	w.start = nextStart(w.start, w.pageSize, w.maxPages)
	start := w.start
	w.mu.Unlock()

	w.refreshAsync()
	return start
}

// HandleTagEvent keeps the selection consistent with the tag lists. Deleting
// the active tag or resetting the current category selects the sentinel tag on
// the first page and triggers a fetch.
func (w *Widget) HandleTagEvent(ev tags.Event) {
	w.mu.Lock()
	affected := ev.Category == w.category &&
		(ev.Op == tags.OpReset || (ev.Op == tags.OpDelete && ev.Tag == w.tag))
	if affected {
		w.tag = models.SentinelTag
		w.start = 0
	}
	w.mu.Unlock()

	if !affected {
		return
	}
	w.logger.Info().Str("category", string(ev.Category)).Str("op", string(ev.Op)).Msg("Selection reset after tag change")
	w.refreshAsync()
}

// Query returns the catalog query for the current selection.
func (w *Widget) Query() models.Query {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queryLocked()
}

func (w *Widget) queryLocked() models.Query {
	return models.Query{
		Category:  w.category,
		Tag:       w.tag,
		Sort:      models.DefaultSort,
		PageLimit: w.pageSize,
		PageStart: w.start,
	}
}

// Refresh fetches the current selection and waits for the outcome. The fetch
// runs on the widget's own context, so a caller giving up only stops waiting.
// Concurrent refreshes are not de-duplicated; whichever completes last wins.
func (w *Widget) Refresh(ctx context.Context) error {
	select {
	case err := <-w.refreshAsync():
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refreshAsync captures the query and marks the refresh in flight before
// returning, so Wait observes it. The returned channel yields the outcome.
func (w *Widget) refreshAsync() <-chan error {
	w.mu.Lock()
	query := w.queryLocked()
	w.beginLocked()
	w.mu.Unlock()

	done := make(chan error, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		done <- w.fetch(query)
	}()
	return done
}

func (w *Widget) fetch(query models.Query) error {
	page, err := w.catalog.Recommend(w.ctx, query)

	w.mu.Lock()
	defer w.mu.Unlock()
	defer w.endLocked()
	if w.ctx.Err() != nil {
		// Closing; keep the last good state.
		return w.ctx.Err()
	}
	w.updatedAt = time.Now()
	if err != nil {
		w.logger.Error().Err(err).Str("category", string(query.Category)).Str("tag", query.Tag).Int("pageStart", query.PageStart).Msg("Failed to fetch recommendations")
		w.page = nil
		w.lastErr = err
		return err
	}
	w.page = page
	w.lastErr = nil
	return nil
}

func (w *Widget) beginLocked() {
	if w.inflight == 0 {
		w.idle = make(chan struct{})
	}
	w.inflight++
}

func (w *Widget) endLocked() {
	w.inflight--
	if w.inflight == 0 {
		close(w.idle)
	}
}

// Wait blocks until no refresh is in flight or ctx is done.
func (w *Widget) Wait(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	snap := Snapshot{
		Enabled:   w.enabled,
		Category:  w.category,
		Tag:       w.tag,
		PageStart: w.start,
		PageSize:  w.pageSize,
		Loading:   w.inflight > 0,
		Err:       w.lastErr,
		UpdatedAt: w.updatedAt,
	}
	if w.page != nil {
		subjects := make([]models.Subject, len(w.page.Subjects))
		copy(subjects, w.page.Subjects)
		snap.Page = &models.SubjectPage{Subjects: subjects}
	}
	w.mu.Unlock()

	snap.Tags = w.tags.Tags(snap.Category)
	return snap
}
