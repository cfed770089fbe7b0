package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "WISHKEEPER_"

// dotEnvFiles are tried in order; a missing file is not an error.
var dotEnvFiles = []string{".env"}

// parseEnv loads .env files into the process environment (without
// overriding variables that are already set) and copies every
// WISHKEEPER_* variable it knows about into config.
//
// Malformed values panic, the same as a malformed JSON file.
func parseEnv(config *Config) {
	for _, f := range dotEnvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}
	applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_ADDR", &config.GRPCAddr)
	str("STORAGE_DRIVER", &config.StorageDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("TOKEN_VALIDITY", &config.TokenValidity)
	str("PASSWORD_HASHER", &config.PasswordHasher)
	str("LOG_LEVEL", &config.LogLevel)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_PUBLIC_BASE_URL", &config.S3PublicBaseURL)
	dur("HEALTH_INTERVAL", &config.HealthInterval)
	dur("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)

	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(envPrefix + "AUTH_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.AuthRateLimit = f
	}
	if v, ok := lookup(envPrefix + "AUTH_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.AuthRateBurst = n
	}
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
