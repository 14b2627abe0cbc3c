package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all catalog requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

type CatalogConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	ProxyURL       string `mapstructure:"proxy_url"`  // prefix the escaped target is appended to; empty means direct
	MirrorURL      string `mapstructure:"mirror_url"` // envelope-returning mirror, same prefix convention
	MirrorField    string `mapstructure:"mirror_field"`
	PrimaryTimeout string `mapstructure:"primary_timeout"` // Go duration string like "10s"
	MirrorTimeout  string `mapstructure:"mirror_timeout"`
	PageSize       int    `mapstructure:"page_size"`
	MaxPages       int    `mapstructure:"max_pages"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Config struct {
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string `mapstructure:"user_agent"`
	Server                struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	GRPC struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"grpc"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	LogLevel string        `mapstructure:"log_level"`
	Catalog  CatalogConfig `mapstructure:"catalog"`
	Storage  struct {
		Provider   string      `mapstructure:"provider"`    // "memory", "badger" or "redis"
		Path       string      `mapstructure:"path"`        // badger directory
		QuotaBytes int         `mapstructure:"quota_bytes"` // memory provider only; 0 is unlimited
		KeyPrefix  string      `mapstructure:"key_prefix"`  // namespaces keys on badger and redis
		Redis      RedisConfig `mapstructure:"redis"`
	} `mapstructure:"storage"`
	Cache struct {
		Provider string      `mapstructure:"provider"`
		Size     int         `mapstructure:"size"` // Maximum number of entries in the LRU cache
		TTL      string      `mapstructure:"ttl"`  // Go duration string like "1h", "24h", etc.
		Redis    RedisConfig `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
	Proxy struct {
		AllowedHosts []string `mapstructure:"allowed_hosts"`
	} `mapstructure:"proxy"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
	logger.Info().Msg("Configuration loaded successfully")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("grpc.port", 9091)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("client_timeout", "30s")

	v.SetDefault("catalog.base_url", "https://movie.douban.com")
	v.SetDefault("catalog.proxy_url", "")
	v.SetDefault("catalog.mirror_url", "https://api.allorigins.win/get?url=")
	v.SetDefault("catalog.mirror_field", "contents")
	v.SetDefault("catalog.primary_timeout", "10s")
	v.SetDefault("catalog.mirror_timeout", "15s")
	v.SetDefault("catalog.page_size", 16)
	v.SetDefault("catalog.max_pages", 9)

	v.SetDefault("storage.provider", "badger")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.quota_bytes", 0)
	v.SetDefault("storage.key_prefix", "")

	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.size", 512)
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("proxy.allowed_hosts", []string{"douban.com", "doubanio.com"})
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

// Duration parses a Go duration string, falling back to def when the value is
// empty or invalid. Invalid values are logged.
func Duration(name, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logger.Warn().Err(err).Str("setting", name).Str("value", value).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return parsed
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}
