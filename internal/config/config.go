// Package config resolves server settings from an optional .env file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	DatabaseURL   string
	Addr          string
	JWTSecret     string
	AdminEmail    string
	LogFile       string
	RedisURL      string
	AuthRateLimit int
	CORSOrigins   []string
	OpenAdmin     bool
	SeedSamples   bool
}

const usage = `Usage: najdeno [flags]

Flags:
  -d, -db <url>            SQLite path or mongodb:// URL (env DATABASE_URL, default: najdeno.sqlite3)
  -a, -addr <host:port>    listen address (env HTTP_ADDR, default: :8080)
  -jwt-secret <secret>     token signing secret (env JWT_SECRET, default: generated and stored)
  -u, -admin-email <email> admin account created on first run (env ADMIN_EMAIL, default: admin@example.com)
  -l, -log <path>          log file path (env LOG_FILE, default: stdout/stderr only)
  -redis <url>             Redis URL for shared rate limiting (env REDIS_URL, default: in-memory)
  -rate-limit <n>          auth requests per client per minute (env AUTH_RATE_LIMIT_PER_MIN, default: 30)
  -cors <origins>          comma-separated allowed origins (env CORS_ALLOWED_ORIGINS)
  -open-admin              let anonymous callers use admin endpoints (env OPEN_ADMIN)
  -seed                    add sample items to an empty store (env SEED_SAMPLES)
  -h, -help                show this help and exit
`

// Load reads .env (if present) and the environment, then applies flags
// from args. It returns flag.ErrHelp when help was requested.
func Load(args []string, out io.Writer) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", "najdeno.sqlite3"),
		Addr:          getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		LogFile:       getEnv("LOG_FILE", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		AuthRateLimit: getIntEnv("AUTH_RATE_LIMIT_PER_MIN", 30),
		OpenAdmin:     getBoolEnv("OPEN_ADMIN", false),
		SeedSamples:   getBoolEnv("SEED_SAMPLES", false),
	}
	cors := getEnv("CORS_ALLOWED_ORIGINS", "")

	fs := flag.NewFlagSet("najdeno", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "")
	fs.StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "")
	fs.StringVar(&cfg.AdminEmail, "u", cfg.AdminEmail, "")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "")
	fs.IntVar(&cfg.AuthRateLimit, "rate-limit", cfg.AuthRateLimit, "")
	fs.StringVar(&cors, "cors", cors, "")
	fs.BoolVar(&cfg.OpenAdmin, "open-admin", cfg.OpenAdmin, "")
	fs.BoolVar(&cfg.SeedSamples, "seed", cfg.SeedSamples, "")

	fs.Usage = func() { fmt.Fprint(out, usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg.CORSOrigins = splitCSV(cors)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", cfg.AuthRateLimit)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
