package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-d", "-l", "-level", "-t", "-r"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   address and port of the sync server
//	-i int      online check interval in seconds
//	-d string   path of the local database file
//	-l string   log file; empty logs to stderr
//	-level      log level (debug|info|warn|error)
//	-t int      per-call RPC timeout in seconds
//	-r int      RPC attempts when the server is unavailable
//
// os.Args is filtered with flagx.FilterArgs so that flags owned by other
// components do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	fs.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "log level")
	rpcTimeout := fs.Int("t", int(cfg.RPCTimeout.Seconds()), "rpc timeout (in seconds)")
	fs.Uint64Var(&cfg.RetryAttempts, "r", cfg.RetryAttempts, "rpc attempts")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RPCTimeout = time.Duration(*rpcTimeout) * time.Second
}
