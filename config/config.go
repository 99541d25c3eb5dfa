package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is prepended (with an underscore) to every configuration key,
// e.g. the `upstream_host` key is read from SYMPROXY_UPSTREAM_HOST.
const envPrefix = "SYMPROXY"

var defaultConfig = Config{
	ListenPort: 8080,
	Upstream: Upstream{
		Scheme: "https",
	},
	Cache: Cache{
		Dir:      "symproxy-cache",
		MaxItems: 100000,
		HitTTL:   24 * time.Hour,
		MissTTL:  10 * time.Minute,
	},
	Aliases: []Alias{
		{From: "slack", To: "electron"},
	},
}

// Config describes the full proxy configuration. All values are sourced
// from the environment; see Load.
type Config struct {
	// TCP port to listen on for http.
	// Default is 8080.
	ListenPort int

	// Whether to print debug logs.
	LogDebug bool

	Upstream Upstream

	Cache Cache

	// Aliases maps alternative application names embedded in symbol paths
	// to their canonical form, e.g. slack -> electron.
	Aliases []Alias
}

// Upstream describes the remote symbol store the proxy sits in front of.
type Upstream struct {
	// Scheme used for upstream requests - `http` or `https`.
	Scheme string

	// Host (or bucket endpoint) of the symbol store. Required.
	Host string

	// PathPrefix is prepended to every normalized path before it is used
	// for upstream addressing and cache-key derivation. Optional.
	PathPrefix string
}

// Cache describes the local disk cache.
type Cache struct {
	// Dir is the cache root directory. It is wiped on startup.
	Dir string

	// MaxItems caps the number of live cache entries. Once reached, new
	// responses are still served but no longer persisted until entries
	// expire and free capacity.
	MaxItems int

	// HitTTL is the freshness window for cached 200 responses.
	HitTTL time.Duration

	// MissTTL is the freshness window for cached non-200 responses,
	// so transient failures are retried sooner than confirmed content.
	MissTTL time.Duration
}

// Alias is a single application-name substitution rule.
type Alias struct {
	From string
	To   string
}

// Load reads the configuration from SYMPROXY_* environment variables,
// applies defaults and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("listen_port", defaultConfig.ListenPort)
	v.SetDefault("log_debug", defaultConfig.LogDebug)
	v.SetDefault("upstream_scheme", defaultConfig.Upstream.Scheme)
	v.SetDefault("upstream_host", "")
	v.SetDefault("path_prefix", "")
	v.SetDefault("cache_dir", defaultConfig.Cache.Dir)
	v.SetDefault("cache_max_items", defaultConfig.Cache.MaxItems)
	v.SetDefault("cache_hit_ttl", defaultConfig.Cache.HitTTL)
	v.SetDefault("cache_miss_ttl", defaultConfig.Cache.MissTTL)
	v.SetDefault("aliases", formatAliases(defaultConfig.Aliases))

	aliases, err := parseAliases(v.GetString("aliases"))
	if err != nil {
		return nil, err
	}

	c := &Config{
		ListenPort: v.GetInt("listen_port"),
		LogDebug:   v.GetBool("log_debug"),
		Upstream: Upstream{
			Scheme:     v.GetString("upstream_scheme"),
			Host:       v.GetString("upstream_host"),
			PathPrefix: v.GetString("path_prefix"),
		},
		Cache: Cache{
			Dir:      v.GetString("cache_dir"),
			MaxItems: v.GetInt("cache_max_items"),
			HitTTL:   v.GetDuration("cache_hit_ttl"),
			MissTTL:  v.GetDuration("cache_miss_ttl"),
		},
		Aliases: aliases,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for values the proxy cannot start
// without.
func (c *Config) Validate() error {
	if c.Upstream.Host == "" {
		return fmt.Errorf("`%s_UPSTREAM_HOST` must be set", envPrefix)
	}
	if c.Upstream.Scheme != "http" && c.Upstream.Scheme != "https" {
		return fmt.Errorf("`%s_UPSTREAM_SCHEME` must be `http` or `https`; got %q", envPrefix, c.Upstream.Scheme)
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("`%s_LISTEN_PORT` must be a valid port; got %d", envPrefix, c.ListenPort)
	}
	if len(c.Upstream.PathPrefix) > 0 && !strings.HasPrefix(c.Upstream.PathPrefix, "/") {
		return fmt.Errorf("`%s_PATH_PREFIX` must start with `/`; got %q", envPrefix, c.Upstream.PathPrefix)
	}
	return c.Cache.Validate()
}

func (c *Cache) Validate() error {
	if len(c.Dir) == 0 {
		return fmt.Errorf("`%s_CACHE_DIR` cannot be empty", envPrefix)
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("`%s_CACHE_MAX_ITEMS` must be positive; got %d", envPrefix, c.MaxItems)
	}
	if c.HitTTL <= 0 {
		return fmt.Errorf("`%s_CACHE_HIT_TTL` must be positive; got %s", envPrefix, c.HitTTL)
	}
	if c.MissTTL <= 0 {
		return fmt.Errorf("`%s_CACHE_MISS_TTL` must be positive; got %s", envPrefix, c.MissTTL)
	}
	return nil
}
