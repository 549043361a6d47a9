package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/possync/internal/flagx"
	"github.com/dmitrijs2005/possync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from the zero value so a partial file only
// overrides what it names.
type JsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DatabasePath        *string         `json:"database_path"`
	LogFile             *string         `json:"log_file"`
	LogLevel            *string         `json:"log_level"`
	RPCTimeout          *timex.Duration `json:"rpc_timeout"`
	RetryAttempts       *uint64         `json:"retry_attempts"`
	OfflineSessionTTL   *timex.Duration `json:"offline_session_ttl"`
	SnapshotOnBackup    *bool           `json:"snapshot_on_backup"`
	SnapshotTimeout     *timex.Duration `json:"snapshot_timeout"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without such a flag nothing happens. Read and unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.LogFile != nil {
		cfg.LogFile = *jc.LogFile
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.RPCTimeout != nil {
		cfg.RPCTimeout = jc.RPCTimeout.Duration
	}
	if jc.RetryAttempts != nil {
		cfg.RetryAttempts = *jc.RetryAttempts
	}
	if jc.OfflineSessionTTL != nil {
		cfg.OfflineSessionTTL = jc.OfflineSessionTTL.Duration
	}
	if jc.SnapshotOnBackup != nil {
		cfg.SnapshotOnBackup = *jc.SnapshotOnBackup
	}
	if jc.SnapshotTimeout != nil {
		cfg.SnapshotTimeout = jc.SnapshotTimeout.Duration
	}
}
