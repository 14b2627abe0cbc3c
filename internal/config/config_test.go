package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Catalog.BaseURL != "https://movie.douban.com" {
		t.Errorf("Unexpected base URL %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.MirrorField != "contents" {
		t.Errorf("Expected mirror field contents, got %q", cfg.Catalog.MirrorField)
	}
	if cfg.Catalog.PageSize != 16 || cfg.Catalog.MaxPages != 9 {
		t.Errorf("Expected paging 16x9, got %dx%d", cfg.Catalog.PageSize, cfg.Catalog.MaxPages)
	}
	if cfg.Storage.Provider != "badger" || cfg.Cache.Provider != "memory" {
		t.Errorf("Unexpected providers: storage=%q cache=%q", cfg.Storage.Provider, cfg.Cache.Provider)
	}
	if len(cfg.Proxy.AllowedHosts) != 2 {
		t.Errorf("Expected two allowed proxy hosts, got %v", cfg.Proxy.AllowedHosts)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got %q", cfg.UserAgent)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("APP_CATALOG_MIRROR_FIELD", "body")
	t.Setenv("APP_STORAGE_PROVIDER", "memory")
	t.Setenv("APP_STORAGE_QUOTA_BYTES", "5242880")
	t.Setenv("APP_STORAGE_KEY_PREFIX", "widget:")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Catalog.MirrorField != "body" {
		t.Errorf("Expected env override of mirror field, got %q", cfg.Catalog.MirrorField)
	}
	if cfg.Storage.Provider != "memory" {
		t.Errorf("Expected env override of storage provider, got %q", cfg.Storage.Provider)
	}
	if cfg.Storage.QuotaBytes != 5242880 || cfg.Storage.KeyPrefix != "widget:" {
		t.Errorf("Expected env override of storage quota and prefix, got %d %q", cfg.Storage.QuotaBytes, cfg.Storage.KeyPrefix)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 10 * time.Second},
		{"valid", "250ms", 250 * time.Millisecond},
		{"invalid", "soon", 10 * time.Second},
		{"negative", "-5s", 10 * time.Second},
		{"zero", "0s", 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration("test", tt.value, 10*time.Second); got != tt.want {
				t.Errorf("Duration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
