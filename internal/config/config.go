package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend kinds selectable through BOOKSHELF_BACKEND.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Backend    string // "redis" | "sqlite" | "file"
	SQLitePath string // path to the sqlite database file
	FileDir    string // directory for the file backend, one JSON doc per owner

	SeedFile        string            // path to a YAML seed file (optional, empty = no import)
	DefaultOwner    string            // owner used when no API token is presented
	APITokens       map[string]string // bearer token -> owner id
	MetadataTimeout time.Duration     // timeout for fetching page metadata (default: 5s)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKSHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKSHELF_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BOOKSHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKSHELF_PRETTY_LOG", true),

		// Storage
		Backend:    getenv("BOOKSHELF_BACKEND", BackendFile),
		SQLitePath: getenv("BOOKSHELF_SQLITE_PATH", "/data/bookshelf.db"),
		FileDir:    getenv("BOOKSHELF_FILE_DIR", "/data/collections"),

		// Collection
		SeedFile:        getenv("BOOKSHELF_SEED_FILE", ""), // Optional, empty = no seed import
		DefaultOwner:    getenv("BOOKSHELF_DEFAULT_OWNER", ""),
		APITokens:       parseTokenMap(getenv("BOOKSHELF_API_TOKENS", "")),
		MetadataTimeout: mustDuration("BOOKSHELF_METADATA_TIMEOUT", 5*time.Second),

		// Redis settings
		RedisAddr:             getenv("BOOKSHELF_REDIS_ADDR", ""),
		RedisUser:             getenv("BOOKSHELF_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("BOOKSHELF_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("BOOKSHELF_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("BOOKSHELF_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BOOKSHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("BOOKSHELF_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKSHELF_TRUST_PROXY", true),
	}

	switch cfg.Backend {
	case BackendRedis:
		if cfg.RedisAddr == "" {
			panic("❌ FATAL: BOOKSHELF_REDIS_ADDR is required when BOOKSHELF_BACKEND=redis")
		}
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: BOOKSHELF_REDIS_PASSWORD is required when BOOKSHELF_REDIS_PASSWORD_REQUIRED=true")
		}
	case BackendSQLite, BackendFile:
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown BOOKSHELF_BACKEND value: %s", cfg.Backend))
	}

	if len(cfg.APITokens) == 0 && cfg.DefaultOwner == "" {
		panic("❌ FATAL: Set BOOKSHELF_API_TOKENS or BOOKSHELF_DEFAULT_OWNER, otherwise every request is anonymous")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if len(cfg.APITokens) > 0 {
			cfgCopy.APITokens = map[string]string{"***REDACTED***": "***REDACTED***"}
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parseTokenMap parses "token1:alice,token2:bob" into a token -> owner map.
// Malformed pairs are skipped.
func parseTokenMap(s string) map[string]string {
	pairs := splitAndTrim(s)
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		token, owner, ok := strings.Cut(pair, ":")
		if !ok || token == "" || owner == "" {
			continue
		}
		m[token] = owner
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
