package models

import (
	"strings"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

// Category partitions the catalog into movies and TV shows. Each category has
// its own tag list and maps to the remote "type" query parameter.
type Category string

const (
	CategoryMovie Category = "movie"
	CategoryTV    Category = "tv"
)

// SentinelTag is the always-present featured tag. It cannot be deleted.
const SentinelTag = "热门"

// Categories lists every category in display order.
var Categories = []Category{CategoryMovie, CategoryTV}

var (
	defaultMovieTags = []string{"热门", "最新", "经典", "豆瓣高分", "冷门佳片", "华语", "欧美", "韩国", "日本", "动作", "喜剧", "爱情", "科幻", "悬疑", "恐怖", "治愈"}
	defaultTvTags    = []string{"热门", "美剧", "英剧", "韩剧", "日剧", "国产剧", "港剧", "日本动画", "综艺", "纪录片"}
)

// ParseCategory converts a raw value ("movie", "tv", case-insensitive) into a Category.
func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryMovie:
		return CategoryMovie, nil
	case CategoryTV:
		return CategoryTV, nil
	}
	return "", &apperrors.ErrUnknownCategory{Value: raw}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryMovie || c == CategoryTV
}

// DefaultTags returns a fresh copy of the built-in tag list for c.
func (c Category) DefaultTags() []string {
	var src []string
	switch c {
	case CategoryMovie:
		src = defaultMovieTags
	case CategoryTV:
		src = defaultTvTags
	default:
		return []string{SentinelTag}
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// StorageKey is the persisted key holding the user's tag list for c.
func (c Category) StorageKey() string {
	switch c {
	case CategoryTV:
		return "userTvTags"
	default:
		return "userMovieTags"
	}
}

// DisplayName returns the human-facing label used by the widget.
func (c Category) DisplayName() string {
	if c == CategoryTV {
		return "电视剧"
	}
	return "电影"
}

func (c Category) String() string {
	return string(c)
}
