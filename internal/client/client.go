package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Belphemur/DoubanRecommend/internal/config"
	"github.com/Belphemur/DoubanRecommend/internal/models"
)

const (
	defaultPrimaryTimeout = 10 * time.Second
	defaultMirrorTimeout  = 15 * time.Second
	defaultMirrorField    = "contents"

	// catalogReferer is sent with every catalog request; the catalog rejects
	// requests that do not look like they come from its own pages.
	catalogReferer = "https://movie.douban.com/"
)

// Client defines the interface for querying the Douban catalog.
type Client interface {
	// Fetch retrieves a JSON document, falling back to the mirror proxy when the
	// primary path fails. The returned bytes are always valid JSON.
	Fetch(ctx context.Context, target string) ([]byte, error)

	Recommend(ctx context.Context, query models.Query) (*models.SubjectPage, error)
	SearchTags(ctx context.Context, category models.Category) ([]string, error)

	// FetchAsset retrieves a binary resource such as a cover image directly,
	// without the mirror fallback.
	FetchAsset(ctx context.Context, target string) (*Asset, error)

	// Close releases idle connections held by the client.
	Close() error
}

// Asset is a fetched binary resource.
type Asset struct {
	ContentType string
	Body        []byte
}

type client struct {
	httpClient     *http.Client
	assetClient    *http.Client
	maxAssetBytes  int64
	baseURL        string
	proxyURL       string
	mirrorURL      string
	mirrorField    string
	primaryTimeout time.Duration
	mirrorTimeout  time.Duration
	userAgent      string
}

// NewClient creates a new client instance with proxy configuration if provided
func NewClient(cfg *config.Config) Client {
	logger := config.GetLogger()
	timeout := config.Duration("client_timeout", cfg.ClientTimeout, 30*time.Second)

	// Clone DefaultTransport to preserve its pooling and HTTP/2 settings
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	mirrorField := cfg.Catalog.MirrorField
	if mirrorField == "" {
		mirrorField = defaultMirrorField
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.GetUserAgent()
	}

	transport := newDecodingTransport(baseTransport)
	return &client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		assetClient: &http.Client{
			Timeout:       timeout,
			Transport:     transport,
			CheckRedirect: assetRedirectPolicy(cfg.Proxy.AllowedHosts),
		},
		maxAssetBytes:  defaultMaxAssetBytes,
		baseURL:        strings.TrimRight(cfg.Catalog.BaseURL, "/"),
		proxyURL:       cfg.Catalog.ProxyURL,
		mirrorURL:      cfg.Catalog.MirrorURL,
		mirrorField:    mirrorField,
		primaryTimeout: config.Duration("catalog.primary_timeout", cfg.Catalog.PrimaryTimeout, defaultPrimaryTimeout),
		mirrorTimeout:  config.Duration("catalog.mirror_timeout", cfg.Catalog.MirrorTimeout, defaultMirrorTimeout),
		userAgent:      userAgent,
	}
}

// Close releases idle connections held by the underlying transport.
func (c *client) Close() error {
	c.httpClient.CloseIdleConnections()
	c.assetClient.CloseIdleConnections()
	return nil
}

// viaPrefix appends the escaped target to a proxy prefix. An empty prefix
// means the target is requested directly.
func viaPrefix(prefix, target string) string {
	if prefix == "" {
		return target
	}
	return prefix + url.QueryEscape(target)
}
