package api

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/cache"
	"github.com/Belphemur/DoubanRecommend/internal/client"
	"github.com/Belphemur/DoubanRecommend/internal/metrics"
)

const (
	proxyHit      = "hit"
	proxyMiss     = "miss"
	proxyRejected = "rejected"
	proxyError    = "error"

	coverMaxAge = "public, max-age=86400"
)

// Proxy handles GET /proxy?url=. It forwards image requests to allow-listed
// hosts and caches successful responses.
func (router *Router) Proxy(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	target, err := router.proxyTarget(r.URL.Query().Get("url"))
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues(proxyRejected).Inc()
		respondError(w, r, http.StatusForbidden, &APIError{Code: CodeForbiddenHost, Message: err.Error()}, nil)
		return
	}
	key := target.String()

	if router.covers != nil {
		if entry, ok := router.covers.Get(r.Context(), key); ok {
			metrics.ProxyRequestsTotal.WithLabelValues(proxyHit).Inc()
			writeAsset(w, entry.ContentType, entry.Body, "HIT")
			return
		}
	}

	asset, err := router.catalog.FetchAsset(r.Context(), key)
	if err != nil {
		router.respondProxyFailure(w, r, key, err)
		return
	}
	if !isImage(asset.ContentType) {
		metrics.ProxyRequestsTotal.WithLabelValues(proxyRejected).Inc()
		logger.Warn().Str("url", key).Str("contentType", asset.ContentType).Msg("Proxy target is not an image")
		respondError(w, r, http.StatusUnsupportedMediaType, &APIError{Code: CodeFetchFailed, Message: "resource is not an image"}, nil)
		return
	}

	metrics.ProxyRequestsTotal.WithLabelValues(proxyMiss).Inc()
	if router.covers != nil {
		router.covers.Set(r.Context(), key, cache.Entry{ContentType: asset.ContentType, Body: asset.Body, StoredAt: time.Now()})
	}
	writeAsset(w, asset.ContentType, asset.Body, "MISS")
}

func (router *Router) respondProxyFailure(w http.ResponseWriter, r *http.Request, key string, err error) {
	logger := zerolog.Ctx(r.Context())
	if errors.Is(err, &apperrors.ErrRedirectNotAllowed{}) {
		metrics.ProxyRequestsTotal.WithLabelValues(proxyRejected).Inc()
		logger.Warn().Err(err).Str("url", key).Msg("Proxy redirect rejected")
		respondError(w, r, http.StatusForbidden, &APIError{Code: CodeForbiddenHost, Message: "redirect target not allowed"}, nil)
		return
	}

	metrics.ProxyRequestsTotal.WithLabelValues(proxyError).Inc()
	logger.Warn().Err(err).Str("url", key).Msg("Proxy fetch failed")
	status, message := http.StatusBadGateway, "failed to fetch resource"
	var upstream *apperrors.ErrUnexpectedStatus
	switch {
	case errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound:
		status = http.StatusNotFound
	case errors.Is(err, &apperrors.ErrAssetTooLarge{}):
		message = "resource too large"
	}
	respondError(w, r, status, &APIError{Code: CodeFetchFailed, Message: message}, nil)
}

func writeAsset(w http.ResponseWriter, contentType string, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", coverMaxAge)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// proxyTarget validates the requested URL against the allow list.
func (router *Router) proxyTarget(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("missing url parameter")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("malformed url")
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, errors.New("unsupported scheme")
	}
	if target.User != nil {
		return nil, errors.New("credentials are not allowed")
	}
	if !client.HostAllowed(target.Hostname(), router.allowedHosts) {
		return nil, errors.New("host not allowed")
	}
	target.Fragment = ""
	return target, nil
}

func isImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, "image/")
}
