package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/testutil"
)

func newCatalogClient(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := newTestClient("", "", time.Second)
	c.baseURL = server.URL
	return c
}

func TestRecommend_QueryParameters(t *testing.T) {
	c := newCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/j/search_subjects" {
			t.Errorf("Expected path /j/search_subjects, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		expected := url.Values{
			"type":       {"tv"},
			"tag":        {"美剧"},
			"sort":       {"recommend"},
			"page_limit": {"16"},
			"page_start": {"32"},
		}
		for key, want := range expected {
			if got := q.Get(key); got != want[0] {
				t.Errorf("Expected %s=%q, got %q", key, want[0], got)
			}
		}
		writeJSON(w, http.StatusOK, testutil.SubjectsJSON)
	})

	page, err := c.Recommend(context.Background(), models.Query{
		Category:  models.CategoryTV,
		Tag:       "美剧",
		PageLimit: 16,
		PageStart: 32,
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if len(page.Subjects) != 2 {
		t.Fatalf("Expected 2 subjects, got %d", len(page.Subjects))
	}
	first := page.Subjects[0]
	if first.ID != "26752088" || first.Title != "我不是药神" || first.Rate != "9.0" {
		t.Errorf("Unexpected first subject: %+v", first)
	}
	if !first.Playable || first.IsNew {
		t.Errorf("Unexpected flags on first subject: %+v", first)
	}
	if page.Subjects[1].Rate != "" {
		t.Errorf("Expected empty rate on unrated subject, got %q", page.Subjects[1].Rate)
	}
}

func TestRecommend_EmptySubjectsIsValid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty list", body: `{"subjects":[]}`},
		{name: "missing list", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			page, err := c.Recommend(context.Background(), models.Query{Category: models.CategoryMovie, Tag: models.SentinelTag, PageLimit: 16})
			if err != nil {
				t.Fatalf("Expected no error for empty result, got %v", err)
			}
			if page.Subjects == nil {
				t.Error("Expected a non-nil empty subjects slice")
			}
			if !page.IsEmpty() {
				t.Error("Expected page to be empty")
			}
		})
	}
}

func TestRecommend_WrongShapeIsInvalidPayload(t *testing.T) {
	c := newCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"subjects":"x"}`)
	})

	_, err := c.Recommend(context.Background(), models.Query{Category: models.CategoryMovie, Tag: models.SentinelTag, PageLimit: 16})
	if !errors.Is(err, &apperrors.ErrInvalidPayload{}) {
		t.Fatalf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestSearchTags_WrongShapeIsInvalidPayload(t *testing.T) {
	c := newCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"tags":{"a":1}}`)
	})

	if _, err := c.SearchTags(context.Background(), models.CategoryTV); !errors.Is(err, &apperrors.ErrInvalidPayload{}) {
		t.Fatalf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestSearchTags(t *testing.T) {
	c := newCatalogClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/j/search_tags" {
			t.Errorf("Expected path /j/search_tags, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("type") != "movie" {
			t.Errorf("Expected type=movie, got %q", r.URL.Query().Get("type"))
		}
		writeJSON(w, http.StatusOK, testutil.TagsJSON)
	})

	tags, err := c.SearchTags(context.Background(), models.CategoryMovie)
	if err != nil {
		t.Fatalf("SearchTags failed: %v", err)
	}
	if len(tags) != 4 || tags[0] != "热门" {
		t.Errorf("Unexpected tags: %v", tags)
	}
}

func TestFetchAsset(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != catalogReferer {
			t.Errorf("Expected Referer header on asset request, got %q", r.Header.Get("Referer"))
		}
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(image)
	}))
	defer server.Close()

	c := newTestClient("", "", time.Second)

	asset, err := c.FetchAsset(context.Background(), server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("FetchAsset failed: %v", err)
	}
	if asset.ContentType != "image/jpeg" || string(asset.Body) != string(image) {
		t.Errorf("Unexpected asset: %s %v", asset.ContentType, asset.Body)
	}

	if _, err := c.FetchAsset(context.Background(), server.URL+"/missing.jpg"); err == nil {
		t.Error("Expected an error for a missing asset")
	}
}

func TestRecommend_ThroughMirror(t *testing.T) {
	primary := newProxyServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	payload := testutil.GenerateSubjectsJSON(
		testutil.SubjectOptions{ID: "1292052", Title: "肖申克的救赎", Rate: "9.7"},
		testutil.SubjectOptions{ID: "36154853", Title: "新片", IsNew: true, Playable: testutil.BoolPtr(false)},
	)
	mirror := newProxyServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, testutil.MirrorEnvelope(payload))
	})

	c := newTestClient(primary.prefix(), mirror.prefix(), time.Second)
	page, err := c.Recommend(context.Background(), models.Query{Category: models.CategoryMovie, Tag: models.SentinelTag, PageLimit: 16})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if got := <-mirror.targets; got != <-primary.targets {
		t.Errorf("Expected the mirror to receive the primary target, got %q", got)
	}
	if len(page.Subjects) != 2 {
		t.Fatalf("Expected 2 subjects, got %d", len(page.Subjects))
	}
	if page.Subjects[0].Rate != "9.7" || !page.Subjects[0].Playable {
		t.Errorf("Unexpected first subject: %+v", page.Subjects[0])
	}
	if !page.Subjects[1].IsNew || page.Subjects[1].Playable {
		t.Errorf("Unexpected second subject: %+v", page.Subjects[1])
	}
}
