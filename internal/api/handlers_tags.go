package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/models"
)

const persistWarning = "change applied but could not be saved"

func categoryParam(r *http.Request) (models.Category, error) {
	return models.ParseCategory(chi.URLParam(r, "category"))
}

// tagParam returns the decoded {tag} segment. chi matches against RawPath
// when the request carries one, leaving the segment escaped.
func tagParam(r *http.Request) (string, error) {
	tag := chi.URLParam(r, "tag")
	if r.URL.RawPath == "" {
		return tag, nil
	}
	return url.PathUnescape(tag)
}

// ListTags handles GET /api/v1/tags/{category}.
func (router *Router) ListTags(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, TagsResponse{Category: category, Tags: router.editor.Tags(category), Saved: true})
}

// AddTag handles POST /api/v1/tags/{category}.
func (router *Router) AddTag(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	var req TagRequest
	if apiErr := decodeRequest(r, &req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	err = router.editor.Add(r.Context(), category, req.Tag)
	router.respondTagMutation(w, r, http.StatusCreated, category, err)
}

// DeleteTag handles DELETE /api/v1/tags/{category}/{tag}.
func (router *Router) DeleteTag(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	tag, err := tagParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, &APIError{Code: CodeInvalidRequest, Message: "malformed tag"}, err)
		return
	}
	err = router.editor.Delete(r.Context(), category, tag)
	router.respondTagMutation(w, r, http.StatusOK, category, err)
}

// ResetTags handles POST /api/v1/tags/{category}/reset.
func (router *Router) ResetTags(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	err = router.editor.Reset(r.Context(), category)
	router.respondTagMutation(w, r, http.StatusOK, category, err)
}

// TagSuggestions handles GET /api/v1/tags/{category}/suggestions.
func (router *Router) TagSuggestions(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	tags, err := router.catalog.SearchTags(r.Context(), category)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, SuggestionsResponse{Category: category, Tags: tags})
}

// respondTagMutation answers a tag edit. Persist failures keep the in-memory
// change and are reported as a warning. Mutations can reset the selection, so
// pending refreshes are awaited first.
func (router *Router) respondTagMutation(w http.ResponseWriter, r *http.Request, status int, category models.Category, err error) {
	saved := true
	if err != nil {
		if !errors.Is(err, &apperrors.ErrPersist{}) {
			respondDomainError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("category", string(category)).Msg("Tag change not persisted")
		saved = false
	}
	if err := router.widget.Wait(r.Context()); err != nil {
		respondCancelled(w, r, err)
		return
	}
	resp := TagsResponse{Category: category, Tags: router.editor.Tags(category), Saved: saved}
	if !saved {
		resp.Warning = persistWarning
	}
	respondJSON(w, r, status, resp)
}
