package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYMPROXY_UPSTREAM_HOST", "symbols.example.com")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, c.ListenPort)
	assert.Equal(t, "https", c.Upstream.Scheme)
	assert.Equal(t, "symbols.example.com", c.Upstream.Host)
	assert.Equal(t, "", c.Upstream.PathPrefix)
	assert.Equal(t, "symproxy-cache", c.Cache.Dir)
	assert.Equal(t, 100000, c.Cache.MaxItems)
	assert.Equal(t, 24*time.Hour, c.Cache.HitTTL)
	assert.Equal(t, 10*time.Minute, c.Cache.MissTTL)
	assert.Equal(t, []Alias{{From: "slack", To: "electron"}}, c.Aliases)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYMPROXY_UPSTREAM_HOST", "bucket.s3.amazonaws.com")
	t.Setenv("SYMPROXY_UPSTREAM_SCHEME", "http")
	t.Setenv("SYMPROXY_PATH_PREFIX", "/prefix")
	t.Setenv("SYMPROXY_LISTEN_PORT", "9090")
	t.Setenv("SYMPROXY_CACHE_MAX_ITEMS", "42")
	t.Setenv("SYMPROXY_CACHE_HIT_TTL", "1h")
	t.Setenv("SYMPROXY_CACHE_MISS_TTL", "30s")
	t.Setenv("SYMPROXY_ALIASES", "slack=electron, teams = electron")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, c.ListenPort)
	assert.Equal(t, "http", c.Upstream.Scheme)
	assert.Equal(t, "/prefix", c.Upstream.PathPrefix)
	assert.Equal(t, 42, c.Cache.MaxItems)
	assert.Equal(t, time.Hour, c.Cache.HitTTL)
	assert.Equal(t, 30*time.Second, c.Cache.MissTTL)
	assert.Equal(t, []Alias{
		{From: "slack", To: "electron"},
		{From: "teams", To: "electron"},
	}, c.Aliases)
}

func TestLoadMissingUpstreamHost(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYMPROXY_UPSTREAM_HOST")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Upstream.Scheme = "ftp" },
			wantErr: "SYMPROXY_UPSTREAM_SCHEME",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.ListenPort = -1 },
			wantErr: "SYMPROXY_LISTEN_PORT",
		},
		{
			name:    "prefix without slash",
			mutate:  func(c *Config) { c.Upstream.PathPrefix = "prefix" },
			wantErr: "SYMPROXY_PATH_PREFIX",
		},
		{
			name:    "empty cache dir",
			mutate:  func(c *Config) { c.Cache.Dir = "" },
			wantErr: "SYMPROXY_CACHE_DIR",
		},
		{
			name:    "zero max items",
			mutate:  func(c *Config) { c.Cache.MaxItems = 0 },
			wantErr: "SYMPROXY_CACHE_MAX_ITEMS",
		},
		{
			name:    "zero hit ttl",
			mutate:  func(c *Config) { c.Cache.HitTTL = 0 },
			wantErr: "SYMPROXY_CACHE_HIT_TTL",
		},
		{
			name:    "zero miss ttl",
			mutate:  func(c *Config) { c.Cache.MissTTL = 0 },
			wantErr: "SYMPROXY_CACHE_MISS_TTL",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := defaultConfig
			c.Upstream.Host = "symbols.example.com"
			tc.mutate(&c)

			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseAliases(t *testing.T) {
	aliases, err := parseAliases("Slack=Electron,teams=electron")
	require.NoError(t, err)
	assert.Equal(t, []Alias{
		{From: "slack", To: "electron"},
		{From: "teams", To: "electron"},
	}, aliases)

	aliases, err = parseAliases("")
	require.NoError(t, err)
	assert.Empty(t, aliases)

	_, err = parseAliases("slack")
	assert.Error(t, err)

	_, err = parseAliases("=electron")
	assert.Error(t, err)
}
