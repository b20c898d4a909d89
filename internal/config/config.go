// Package config loads recursord's optional YAML configuration file.
// Every field has a zero-value-safe default so the server runs with no
// config file at all — the CLI's positional bind address always wins
// over whatever ClientAddr a config file supplies.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Backend selects which cache.Cache implementation the resolver uses.
type Backend string

const (
	BackendMap     Backend = "map"
	BackendSharded Backend = "sharded"
)

// Config is the YAML-shaped configuration structure, grounded on the
// teacher's cmd/dnsscience-grpc ConfigFile.
type Config struct {
	ClientAddr   string `yaml:"client_addr"`
	UpstreamAddr string `yaml:"upstream_addr"`
	MetricsAddr  string `yaml:"metrics_addr"`

	CacheBackend Backend `yaml:"cache_backend"`
	ShardCount   int     `yaml:"shard_count"`

	QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
	MaxDepth            int `yaml:"max_depth"`

	UpstreamRPS   float64 `yaml:"upstream_rps"`
	UpstreamBurst int     `yaml:"upstream_burst"`
}

// Default returns the server's built-in defaults, matching spec.md §4.5
// and §4.4's recommendations.
func Default() Config {
	return Config{
		ClientAddr:          "127.0.0.1:2053",
		UpstreamAddr:        "0.0.0.0:3267",
		MetricsAddr:         "",
		CacheBackend:        BackendMap,
		ShardCount:          256,
		QueryTimeoutSeconds: 1,
		MaxDepth:            16,
		UpstreamRPS:         50,
		UpstreamBurst:       10,
	}
}

// Load reads path, if non-empty, over top of Default — fields absent
// from the file keep their default value. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
