// Package render turns widget state into HTML fragments. Everything derived
// from catalog data or user input goes through html/template's contextual
// escaping; nothing is concatenated into markup by hand.
package render

import (
	"html/template"
	"io"
	"net/url"

	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/widget"
)

const (
	// MissingRate is shown for subjects without a rating.
	MissingRate = "暂无"
	// EmptyText is shown when a page has no subjects.
	EmptyText = "❌ 暂无数据，请尝试其他分类或刷新"
	// FailureText is shown when both fetch paths failed.
	FailureText = "❌ 获取豆瓣数据失败，请稍后重试"
	// SuggestionText accompanies FailureText.
	SuggestionText = "提示：使用VPN可能有助于解决此问题"
)

var templates = template.Must(template.New("render").Parse(cardsTemplate + tagsTemplate + failureTemplate + widgetTemplate))

// CardOptions configures card rendering.
type CardOptions struct {
	// ProxyPrefix is prepended to the escaped cover URL to build the fallback
	// image source, e.g. "/proxy?url=".
	ProxyPrefix string
}

type cardView struct {
	ID           string
	Title        string
	Rate         string
	Cover        string
	ProxiedCover string
	URL          string
}

type cardsView struct {
	Subjects  []cardView
	EmptyText string
}

type tagView struct {
	Name   string
	Active bool
	Locked bool
}

type tagBarView struct {
	Category models.Category
	Tags     []tagView
}

type failureView struct {
	Message    string
	Suggestion string
}

type categoryView struct {
	Value  models.Category
	Label  string
	Active bool
}

type widgetView struct {
	Enabled    bool
	PageStart  int
	Loading    bool
	Categories []categoryView
	TagBar     tagBarView
	Failed     bool
	Failure    failureView
	Cards      *cardsView
}

// Cards renders the card grid for page. A nil or empty page renders the
// empty-state message.
func Cards(w io.Writer, page *models.SubjectPage, opts CardOptions) error {
	return templates.ExecuteTemplate(w, "cards", newCardsView(page, opts))
}

// Tags renders the tag bar of category with active highlighted. The sentinel
// tag is marked as locked.
func Tags(w io.Writer, category models.Category, tags []string, active string) error {
	return templates.ExecuteTemplate(w, "tags", newTagBarView(category, tags, active))
}

// Failure renders the generic fetch failure message.
func Failure(w io.Writer) error {
	return templates.ExecuteTemplate(w, "failure", failureView{Message: FailureText, Suggestion: SuggestionText})
}

// Widget renders the whole widget area from a state snapshot.
func Widget(w io.Writer, snap widget.Snapshot, opts CardOptions) error {
	view := widgetView{
		Enabled:   snap.Enabled,
		PageStart: snap.PageStart,
		Loading:   snap.Loading,
		TagBar:    newTagBarView(snap.Category, snap.Tags, snap.Tag),
		Failure:   failureView{Message: FailureText, Suggestion: SuggestionText},
	}
	for _, c := range models.Categories {
		view.Categories = append(view.Categories, categoryView{Value: c, Label: c.DisplayName(), Active: c == snap.Category})
	}
	switch {
	case snap.Err != nil:
		view.Failed = true
	case snap.Page != nil:
		cards := newCardsView(snap.Page, opts)
		view.Cards = &cards
	}
	return templates.ExecuteTemplate(w, "widget", view)
}

func newCardsView(page *models.SubjectPage, opts CardOptions) cardsView {
	view := cardsView{EmptyText: EmptyText}
	if page.IsEmpty() {
		return view
	}
	view.Subjects = make([]cardView, 0, len(page.Subjects))
	for _, s := range page.Subjects {
		rate := s.Rate
		if rate == "" {
			rate = MissingRate
		}
		view.Subjects = append(view.Subjects, cardView{
			ID:           s.ID,
			Title:        s.Title,
			Rate:         rate,
			Cover:        s.Cover,
			ProxiedCover: opts.ProxyPrefix + url.QueryEscape(s.Cover),
			URL:          s.URL,
		})
	}
	return view
}

func newTagBarView(category models.Category, tags []string, active string) tagBarView {
	view := tagBarView{Category: category, Tags: make([]tagView, 0, len(tags))}
	for _, tag := range tags {
		view.Tags = append(view.Tags, tagView{
			Name:   tag,
			Active: tag == active,
			Locked: tag == models.SentinelTag,
		})
	}
	return view
}
