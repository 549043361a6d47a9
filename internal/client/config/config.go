package config

import "time"

// Config holds runtime settings of the POS client.
//
// Units: intervals and timeouts are time.Duration values.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	LogFile             string
	LogLevel            string
	RPCTimeout          time.Duration
	RetryAttempts       uint64
	OfflineSessionTTL   time.Duration
	SnapshotOnBackup    bool
	SnapshotTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "data/possync.db"
	c.LogFile = "data/possync.log"
	c.LogLevel = "info"
	c.RPCTimeout = 10 * time.Second
	c.RetryAttempts = 3
	c.OfflineSessionTTL = 72 * time.Hour
	c.SnapshotOnBackup = false
	c.SnapshotTimeout = 2 * time.Minute
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
