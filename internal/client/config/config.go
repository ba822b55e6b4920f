package config

import "time"

// Config holds runtime settings for the daybook client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - DatabasePath: SQLite DSN for the local store.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DrainInterval: cadence of the background sync loop.
//   - MaxRetries: automatic delivery retries per entry before it is parked.
//   - BackoffBase / BackoffMax: retry delay schedule bounds.
//
// Units: intervals are time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	DrainInterval       time.Duration
	MaxRetries          int
	BackoffBase         time.Duration
	BackoffMax          time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "daybook.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.DrainInterval = time.Second
	c.MaxRetries = 5
	c.BackoffBase = 2 * time.Second
	c.BackoffMax = 5 * time.Minute
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
