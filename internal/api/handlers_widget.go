package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/models"
	"github.com/Belphemur/DoubanRecommend/internal/render"
)

// WidgetState handles GET /api/v1/widget.
func (router *Router) WidgetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, newWidgetState(router.widget.Snapshot()))
}

// WidgetHTML handles GET /widget and renders the widget fragment.
func (router *Router) WidgetHTML(w http.ResponseWriter, r *http.Request) {
	snap := router.widget.Snapshot()
	writeHTML(w, r, func(buf io.Writer) error {
		return render.Widget(buf, snap, router.cardOptions())
	})
}

// WidgetCards handles GET /widget/cards and renders only the card grid, or the
// failure message when the last fetch failed.
func (router *Router) WidgetCards(w http.ResponseWriter, r *http.Request) {
	snap := router.widget.Snapshot()
	writeHTML(w, r, func(buf io.Writer) error {
		if snap.Err != nil {
			return render.Failure(buf)
		}
		return render.Cards(buf, snap.Page, router.cardOptions())
	})
}

// WidgetTags handles GET /widget/tags and renders the tag bar of the current
// category.
func (router *Router) WidgetTags(w http.ResponseWriter, r *http.Request) {
	snap := router.widget.Snapshot()
	writeHTML(w, r, func(buf io.Writer) error {
		return render.Tags(buf, snap.Category, snap.Tags, snap.Tag)
	})
}

func (router *Router) cardOptions() render.CardOptions {
	return render.CardOptions{ProxyPrefix: ProxyPath + "?url="}
}

func writeHTML(w http.ResponseWriter, r *http.Request, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Failed to render fragment")
		http.Error(w, "failed to render widget", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// Recommendations handles GET /api/v1/recommendations. When nothing has been
// fetched yet for an enabled widget the request waits for a first result.
func (router *Router) Recommendations(w http.ResponseWriter, r *http.Request) {
	snap := router.widget.Snapshot()
	switch {
	case snap.Loading:
		if err := router.widget.Wait(r.Context()); err != nil {
			respondCancelled(w, r, err)
			return
		}
		snap = router.widget.Snapshot()
	case snap.Enabled && snap.Page == nil && snap.Err == nil:
		// fetch errors are stored in the snapshot
		if err := router.widget.Refresh(r.Context()); err != nil && r.Context().Err() != nil {
			respondCancelled(w, r, r.Context().Err())
			return
		}
		snap = router.widget.Snapshot()
	}

	if snap.Err != nil {
		respondDomainError(w, r, snap.Err)
		return
	}
	respondJSON(w, r, http.StatusOK, newWidgetState(snap))
}

// NextPage handles POST /api/v1/recommendations/next.
func (router *Router) NextPage(w http.ResponseWriter, r *http.Request) {
	start := router.widget.NextPage()
	zerolog.Ctx(r.Context()).Debug().Int("pageStart", start).Msg("Advanced page window")
	router.respondAfterRefresh(w, r)
}

// SwitchCategory handles PUT /api/v1/category.
func (router *Router) SwitchCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if apiErr := decodeRequest(r, &req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if _, err := router.widget.SwitchCategory(category); err != nil {
		respondDomainError(w, r, err)
		return
	}
	router.respondAfterRefresh(w, r)
}

// SelectTag handles PUT /api/v1/tag.
func (router *Router) SelectTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if apiErr := decodeRequest(r, &req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	if _, err := router.widget.SelectTag(req.Tag); err != nil {
		respondDomainError(w, r, err)
		return
	}
	router.respondAfterRefresh(w, r)
}

// respondAfterRefresh waits for pending refreshes and responds with the
// resulting state. A failed fetch is reported inside the state.
func (router *Router) respondAfterRefresh(w http.ResponseWriter, r *http.Request) {
	if err := router.widget.Wait(r.Context()); err != nil {
		respondCancelled(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newWidgetState(router.widget.Snapshot()))
}

func respondCancelled(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, http.StatusServiceUnavailable, &APIError{Code: CodeInternal, Message: "request cancelled"}, err)
}
