package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/fallback"
	"github.com/failsafe-go/failsafe-go/timeout"
	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/metrics"
)

const (
	pathPrimary = "primary"
	pathMirror  = "mirror"

	// maxPayloadBytes bounds catalog and mirror bodies.
	maxPayloadBytes = 8 << 20
)

// Fetch retrieves target through the primary path. On a timeout, transport
// error, non-2xx status or invalid JSON it makes exactly one request through
// the mirror and unwraps the envelope. When both fail the mirror error is
// surfaced inside an *apperrors.ErrFetchFailed.
func (c *client) Fetch(ctx context.Context, target string) ([]byte, error) {
	logger := config.GetLogger()
	start := time.Now()
	var fellBack atomic.Bool

	mirror := fallback.NewWithFunc(func(exec failsafe.Execution[[]byte]) ([]byte, error) {
		fellBack.Store(true)
		primaryErr := exec.LastError()
		observeFetch(pathPrimary, start, primaryErr)
		// Skip the mirror once the caller is gone.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.Warn().Err(primaryErr).Str("target", target).Msg("Primary catalog request failed, trying mirror")

		payload, mirrorErr := c.fetchMirror(ctx, target)
		if mirrorErr != nil {
			return nil, &apperrors.ErrFetchFailed{URL: target, PrimaryErr: primaryErr, MirrorErr: mirrorErr}
		}
		return payload, nil
	})

	payload, err := failsafe.With[[]byte](mirror, timeout.New[[]byte](c.primaryTimeout)).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[[]byte]) ([]byte, error) {
			return c.fetchPrimary(exec.Context(), target)
		})
	if !fellBack.Load() {
		observeFetch(pathPrimary, start, err)
	}
	if err != nil {
		var fetchErr *apperrors.ErrFetchFailed
		if errors.As(err, &fetchErr) {
			logger.Error().
				Err(fetchErr.MirrorErr).
				AnErr("primaryErr", fetchErr.PrimaryErr).
				Str("target", target).
				Msg("Catalog request failed on both paths")
			reportFetchFailure(ctx, fetchErr)
		}
		return nil, err
	}
	return payload, nil
}

func (c *client) fetchPrimary(ctx context.Context, target string) ([]byte, error) {
	body, err := c.get(ctx, viaPrefix(c.proxyURL, target))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("primary response is not valid JSON")
	}
	return body, nil
}

// fetchMirror requests target through the mirror, bounded by its own timeout,
// and returns the JSON document carried in the envelope's payload field.
func (c *client) fetchMirror(ctx context.Context, target string) ([]byte, error) {
	start := time.Now()
	payload, err := failsafe.With[[]byte](timeout.New[[]byte](c.mirrorTimeout)).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[[]byte]) ([]byte, error) {
			body, err := c.get(exec.Context(), viaPrefix(c.mirrorURL, target))
			if err != nil {
				return nil, err
			}
			return unwrapEnvelope(body, c.mirrorField)
		})
	observeFetch(pathMirror, start, err)
	return payload, err
}

// unwrapEnvelope extracts the JSON document stored as a string in field.
func unwrapEnvelope(body []byte, field string) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &apperrors.ErrInvalidEnvelope{Field: field, Err: err}
	}

	raw, ok := envelope[field]
	if !ok {
		return nil, &apperrors.ErrInvalidEnvelope{Field: field}
	}

	var contents string
	if err := json.Unmarshal(raw, &contents); err != nil {
		return nil, &apperrors.ErrInvalidEnvelope{Field: field, Err: err}
	}
	if contents == "" {
		return nil, &apperrors.ErrInvalidEnvelope{Field: field}
	}
	if !json.Valid([]byte(contents)) {
		return nil, &apperrors.ErrInvalidEnvelope{Field: field, Err: errors.New("payload is not valid JSON")}
	}
	return []byte(contents), nil
}

func (c *client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", catalogReferer)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.ErrUnexpectedStatus{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func observeFetch(path string, start time.Time, err error) {
	metrics.CatalogFetchDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	metrics.CatalogFetchTotal.WithLabelValues(path, fetchOutcome(err)).Inc()
}

func fetchOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, timeout.ErrExceeded), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// reportFetchFailure sends the failure to Sentry. It is a no-op when Sentry
// has not been initialized.
func reportFetchFailure(ctx context.Context, err *apperrors.ErrFetchFailed) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("catalog.url", err.URL)
			hub.CaptureException(err)
		})
		return
	}
	sentry.CaptureException(err)
}
