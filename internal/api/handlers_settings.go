package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

// GetEnabled handles GET /api/v1/settings/enabled.
func (router *Router) GetEnabled(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, EnabledResponse{Enabled: router.widget.Enabled(), Saved: true})
}

// SetEnabled handles PUT /api/v1/settings/enabled. Enabling may start the
// first fetch, which is awaited.
func (router *Router) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req EnabledRequest
	if apiErr := decodeRequest(r, &req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	resp := EnabledResponse{Saved: true}
	if err := router.widget.SetEnabled(r.Context(), *req.Enabled); err != nil {
		if !errors.Is(err, &apperrors.ErrPersist{}) {
			respondDomainError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Enabled flag not persisted")
		resp.Saved = false
		resp.Warning = persistWarning
	}
	if err := router.widget.Wait(r.Context()); err != nil {
		respondCancelled(w, r, err)
		return
	}
	resp.Enabled = router.widget.Enabled()
	respondJSON(w, r, http.StatusOK, resp)
}

// Health handles GET /healthz.
func (router *Router) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
