package render

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/widget"
)

func parse(t *testing.T, buf *bytes.Buffer) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(buf)
	if err != nil {
		t.Fatalf("Failed to parse rendered HTML: %v", err)
	}
	return doc
}

func TestCards_RendersSubjects(t *testing.T) {
	page := &models.SubjectPage{Subjects: []models.Subject{
		{ID: "1", Title: "霸王别姬", Rate: "9.6", Cover: "https://img1.doubanio.com/a.jpg", URL: "https://movie.douban.com/subject/1291546/"},
		{ID: "2", Title: "新片", Rate: "", Cover: "https://img2.doubanio.com/b.jpg"},
	}}

	var buf bytes.Buffer
	if err := Cards(&buf, page, CardOptions{ProxyPrefix: "/proxy?url="}); err != nil {
		t.Fatalf("Cards failed: %v", err)
	}
	doc := parse(t, &buf)

	cards := doc.Find(".douban-card")
	if cards.Length() != 2 {
		t.Fatalf("Expected 2 cards, got %d", cards.Length())
	}

	first := cards.First()
	if got := strings.TrimSpace(first.Find(".douban-title button").Text()); got != "霸王别姬" {
		t.Errorf("Expected title 霸王别姬, got %q", got)
	}
	if got := first.Find(".douban-title button").AttrOr("data-title", ""); got != "霸王别姬" {
		t.Errorf("Expected data-title for search prefill, got %q", got)
	}
	if got := first.Find("img").AttrOr("src", ""); got != "https://img1.doubanio.com/a.jpg" {
		t.Errorf("Unexpected cover src %q", got)
	}
	wantFallback := "/proxy?url=" + url.QueryEscape("https://img1.doubanio.com/a.jpg")
	if got := first.Find("img").AttrOr("data-fallback-src", ""); got != wantFallback {
		t.Errorf("Expected fallback %q, got %q", wantFallback, got)
	}
	if got := first.Find(".douban-link a").AttrOr("rel", ""); got != "noopener noreferrer" {
		t.Errorf("Expected external link rel, got %q", got)
	}

	second := cards.Eq(1)
	if !strings.Contains(second.Find(".douban-rate").Text(), MissingRate) {
		t.Errorf("Expected missing rate placeholder, got %q", second.Find(".douban-rate").Text())
	}
	if second.Find(".douban-link").Length() != 0 {
		t.Error("Expected no link for a subject without URL")
	}
}

func TestCards_EmptyState(t *testing.T) {
	for _, page := range []*models.SubjectPage{nil, {}, {Subjects: []models.Subject{}}} {
		var buf bytes.Buffer
		if err := Cards(&buf, page, CardOptions{}); err != nil {
			t.Fatalf("Cards failed: %v", err)
		}
		doc := parse(t, &buf)
		if doc.Find(".douban-card").Length() != 0 {
			t.Error("Expected no cards")
		}
		if got := strings.TrimSpace(doc.Find(".douban-empty").Text()); got != EmptyText {
			t.Errorf("Expected empty-state text, got %q", got)
		}
	}
}

func TestCards_EscapesHostileContent(t *testing.T) {
	hostile := `<script>alert("x")</script>`
	page := &models.SubjectPage{Subjects: []models.Subject{{
		ID:    `1" onmouseover="alert(1)`,
		Title: hostile,
		Rate:  `<b>9</b>`,
		Cover: `javascript:alert(1)`,
		URL:   `javascript:alert(2)`,
	}}}

	var buf bytes.Buffer
	if err := Cards(&buf, page, CardOptions{ProxyPrefix: "/proxy?url="}); err != nil {
		t.Fatalf("Cards failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") {
		t.Errorf("Expected markup to be escaped, got %s", out)
	}
	if strings.Contains(out, "javascript:") {
		t.Errorf("Expected javascript: URLs to be neutralized, got %s", out)
	}

	doc := parse(t, bytes.NewBufferString(out))
	if doc.Find("script").Length() != 0 {
		t.Error("Expected no script elements")
	}
	if got := strings.TrimSpace(doc.Find(".douban-title button").Text()); got != hostile {
		t.Errorf("Expected title to round-trip as text, got %q", got)
	}
	if _, ok := doc.Find(".douban-card").Attr("onmouseover"); ok {
		t.Error("Expected no injected attribute")
	}
}

func TestTags_MarksActiveAndSentinel(t *testing.T) {
	var buf bytes.Buffer
	if err := Tags(&buf, models.CategoryTV, []string{"热门", "美剧", "<i>x</i>"}, "美剧"); err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	doc := parse(t, &buf)

	buttons := doc.Find(".douban-tag")
	if buttons.Length() != 3 {
		t.Fatalf("Expected 3 tag buttons, got %d", buttons.Length())
	}
	if _, ok := buttons.Eq(0).Attr("data-locked"); !ok {
		t.Error("Expected sentinel to be marked locked")
	}
	if !buttons.Eq(1).HasClass("active") {
		t.Error("Expected 美剧 to be active")
	}
	if buttons.Eq(0).HasClass("active") {
		t.Error("Expected sentinel not to be active")
	}
	if doc.Find("i").Length() != 0 {
		t.Error("Expected tag markup to be escaped")
	}
	if got := doc.Find(".douban-tags").AttrOr("data-category", ""); got != "tv" {
		t.Errorf("Expected data-category tv, got %q", got)
	}
}

func TestFailure(t *testing.T) {
	var buf bytes.Buffer
	if err := Failure(&buf); err != nil {
		t.Fatalf("Failure failed: %v", err)
	}
	text := parse(t, &buf).Text()
	if !strings.Contains(text, FailureText) || !strings.Contains(text, SuggestionText) {
		t.Errorf("Expected failure and suggestion text, got %q", text)
	}
}

func TestWidget(t *testing.T) {
	base := widget.Snapshot{
		Enabled:   true,
		Category:  models.CategoryMovie,
		Tag:       models.SentinelTag,
		Tags:      []string{"热门", "经典"},
		PageStart: 32,
		PageSize:  16,
	}

	t.Run("loading", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Widget(&buf, base, CardOptions{}); err != nil {
			t.Fatalf("Widget failed: %v", err)
		}
		doc := parse(t, &buf)
		if doc.Find(".douban-loading").Length() != 1 {
			t.Error("Expected loading placeholder without result")
		}
		if got := doc.Find(".douban-category.active").AttrOr("data-category", ""); got != "movie" {
			t.Errorf("Expected movie to be the active category, got %q", got)
		}
		if got := doc.Find("#doubanArea").AttrOr("data-page-start", ""); got != "32" {
			t.Errorf("Expected page start 32, got %q", got)
		}
	})

	t.Run("failure", func(t *testing.T) {
		snap := base
		snap.Err = errors.New("both paths failed")
		var buf bytes.Buffer
		if err := Widget(&buf, snap, CardOptions{}); err != nil {
			t.Fatalf("Widget failed: %v", err)
		}
		doc := parse(t, &buf)
		if doc.Find(".douban-failure").Length() != 1 {
			t.Error("Expected failure fragment")
		}
		if strings.Contains(doc.Text(), "both paths failed") {
			t.Error("Expected internal error details not to be rendered")
		}
	})

	t.Run("cards", func(t *testing.T) {
		snap := base
		snap.Page = &models.SubjectPage{Subjects: []models.Subject{{ID: "1", Title: "A", Rate: "8.0"}}}
		var buf bytes.Buffer
		if err := Widget(&buf, snap, CardOptions{ProxyPrefix: "/proxy?url="}); err != nil {
			t.Fatalf("Widget failed: %v", err)
		}
		doc := parse(t, &buf)
		if doc.Find("#douban-results .douban-card").Length() != 1 {
			t.Error("Expected one card in results")
		}
		if doc.Find(".douban-tag.active").Text() != models.SentinelTag {
			t.Errorf("Expected sentinel active, got %q", doc.Find(".douban-tag.active").Text())
		}
	})
}
