package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
)

const (
	// defaultMaxAssetBytes bounds proxied images.
	defaultMaxAssetBytes = 4 << 20
	maxAssetRedirects    = 10
)

// FetchAsset retrieves target directly with the catalog headers. Covers are
// served by the catalog CDN, which checks the Referer. Redirects are followed
// only to the original host or an allow-listed one.
func (c *client) FetchAsset(ctx context.Context, target string) (*Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, c.primaryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", catalogReferer)

	resp, err := c.assetClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ErrUnexpectedStatus{StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > c.maxAssetBytes {
		return nil, &apperrors.ErrAssetTooLarge{Limit: c.maxAssetBytes}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset body: %w", err)
	}
	if int64(len(body)) > c.maxAssetBytes {
		return nil, &apperrors.ErrAssetTooLarge{Limit: c.maxAssetBytes}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return &Asset{ContentType: contentType, Body: body}, nil
}

// assetRedirectPolicy re-validates every hop: the scheme must be http(s), no
// credentials, and the host must be the original one or allow-listed.
func assetRedirectPolicy(domains []string) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxAssetRedirects {
			return errors.New("stopped after too many redirects")
		}
		next := req.URL
		allowed := (next.Scheme == "http" || next.Scheme == "https") &&
			next.User == nil &&
			(strings.EqualFold(next.Host, via[0].URL.Host) || HostAllowed(next.Hostname(), domains))
		if !allowed {
			return &apperrors.ErrRedirectNotAllowed{URL: next.Redacted()}
		}
		return nil
	}
}

// HostAllowed matches host against each domain exactly or as a subdomain.
func HostAllowed(host string, domains []string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, domain := range domains {
		domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
