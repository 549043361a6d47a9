// Package config loads runtime configuration for the sync server.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment: a dotenv file (-env, or ./.env when present) and POSSYNC_*
//     variables such as POSSYNC_DATABASE_DSN or POSSYNC_ACCESS_TOKEN_TTL.
//  4. Command-line flags, which override everything else.
package config
