// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Notico CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - DatabaseDSN: path of the local SQLite replica.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - SyncDebounce: quiet window before a mutation-triggered sync runs; a
//     burst of edits inside the window collapses into one cycle.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerEndpointAddr  string
	DatabaseDSN         string
	OnlineCheckInterval time.Duration
	SyncDebounce        time.Duration
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "notico.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncDebounce = 1 * time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
