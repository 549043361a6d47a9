// Package config loads runtime configuration for the POS client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "data/possync.db",
//	  "log_file": "data/possync.log",
//	  "log_level": "info",
//	  "rpc_timeout": "10s",
//	  "retry_attempts": 3,
//	  "offline_session_ttl": "72h",
//	  "snapshot_on_backup": false
//	}
//
// The client does not read environment variables.
package config
