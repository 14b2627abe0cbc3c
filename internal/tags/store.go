// Package tags owns the per-category tag lists: loading and saving them
// through durable storage, and the editor that mutates them.
package tags

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/storage"
)

// Store reads and writes the two tag lists as JSON arrays in a storage backend.
type Store struct {
	backend storage.Store
	logger  zerolog.Logger
}

// NewStore creates a tag store on top of the given backend.
func NewStore(backend storage.Store) *Store {
	return &Store{
		backend: backend,
		logger:  config.GetLogger(),
	}
}

// Load returns the persisted movie and TV tag lists. Each category falls back
// to its defaults independently when its entry is missing, malformed or empty.
func (s *Store) Load(ctx context.Context) (movieTags, tvTags []string) {
	return s.loadCategory(ctx, models.CategoryMovie), s.loadCategory(ctx, models.CategoryTV)
}

func (s *Store) loadCategory(ctx context.Context, category models.Category) []string {
	key := category.StorageKey()
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, &apperrors.ErrNotFound{}) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read tags, using defaults")
		}
		return category.DefaultTags()
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Malformed persisted tags, using defaults")
		return category.DefaultTags()
	}

	list := dedupe(stored)
	if len(list) == 0 {
		return category.DefaultTags()
	}
	if list[0] != models.SentinelTag {
		if i := indexFold(list, models.SentinelTag); i >= 0 {
			list = append(list[:i], list[i+1:]...)
		}
		list = append([]string{models.SentinelTag}, list...)
	}

	s.logger.Debug().Str("key", key).Int("count", len(list)).Msg("Loaded persisted tags")
	return list
}

// Save writes both lists. Failures are returned as-is and never retried.
func (s *Store) Save(ctx context.Context, movieTags, tvTags []string) error {
	if err := s.saveCategory(ctx, models.CategoryMovie, movieTags); err != nil {
		return err
	}
	return s.saveCategory(ctx, models.CategoryTV, tvTags)
}

func (s *Store) saveCategory(ctx context.Context, category models.Category, list []string) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal %s tags: %w", category, err)
	}
	if err := s.backend.Set(ctx, category.StorageKey(), data); err != nil {
		return fmt.Errorf("save %s tags: %w", category, err)
	}
	return nil
}
