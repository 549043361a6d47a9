package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "POSSYNC_"

// parseEnv overlays Config with POSSYNC_* environment variables. The dotenv
// file named by -env is loaded first and must exist; without the flag a .env
// in the working directory is used when present. Variables already set in the
// environment win over the file. Unparsable durations are ignored.
func parseEnv(cfg *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg.EndpointAddrGRPC = getEnv("GRPC_ADDR", cfg.EndpointAddrGRPC)
	cfg.EndpointAddrHTTP = getEnv("HTTP_ADDR", cfg.EndpointAddrHTTP)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.AccessTokenValidityDuration = getEnvAsDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenValidityDuration)
	cfg.RefreshTokenValidityDuration = getEnvAsDuration("REFRESH_TOKEN_TTL", cfg.RefreshTokenValidityDuration)
	cfg.S3RootUser = getEnv("S3_ROOT_USER", cfg.S3RootUser)
	cfg.S3RootPassword = getEnv("S3_ROOT_PASSWORD", cfg.S3RootPassword)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", cfg.S3BaseEndpoint)
	cfg.CatalogSeedFile = getEnv("CATALOG_SEED_FILE", cfg.CatalogSeedFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
