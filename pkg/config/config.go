// pkg/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env           string
	EdgeAddr      string // edge-router
	DirectoryAddr string // directory-service

	// Tenant routing
	PlatformDomains []string // root domains operated by the platform (platform.app, ...)
	CacheTTL        time.Duration
	LookupURL       string // tenant-directory resolve endpoint
	LookupTimeout   time.Duration
	UpstreamURL     string // storefront application the edge proxies to
	LoginPath       string
	NotFoundPath    string
	RulesFile       string // optional YAML route-rules override

	// Session validation
	SessionCookie  string
	SessionJWKSURL string
	SessionSecret  string // HS256 dev fallback when no JWKS URL
	SessionIssuer  string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:             env("STOREGATE_ENV", "dev"),
		EdgeAddr:        env("STOREGATE_HTTP_ADDR", ":8080"),
		DirectoryAddr:   env("DIRECTORY_HTTP_ADDR", ":8081"),
		PlatformDomains: envList("PLATFORM_DOMAINS", "platform.app"),
		CacheTTL:        envDur("TENANT_CACHE_TTL_SEC", 600) * time.Second,
		LookupURL:       env("LOOKUP_URL", ""),
		LookupTimeout:   envDur("LOOKUP_TIMEOUT_MS", 1500) * time.Millisecond,
		UpstreamURL:     env("UPSTREAM_URL", ""),
		LoginPath:       env("LOGIN_PATH", "/login"),
		NotFoundPath:    env("NOT_FOUND_PATH", "/store-not-found"),
		RulesFile:       env("ROUTING_RULES_FILE", ""),
		SessionCookie:   env("SESSION_COOKIE", "session"),
		SessionJWKSURL:  env("SESSION_JWKS_URL", ""),
		SessionSecret:   env("SESSION_SECRET", ""),
		SessionIssuer:   env("SESSION_ISSUER", ""),
		RedisURL:        env("REDIS_URL", ""),
		DatabaseURL:     env("DATABASE_URL", ""),
	}
}

// EdgeErrors reports fatal misconfiguration for the edge-router. The edge sits
// in front of every request, so silently falling back to wrong defaults would
// misroute every tenant; callers are expected to Fatalw on a non-empty result.
func (c Config) EdgeErrors() []string {
	var errs []string
	if len(c.PlatformDomains) == 0 {
		errs = append(errs, "PLATFORM_DOMAINS must name at least one platform root domain")
	}
	if c.LookupURL == "" {
		errs = append(errs, "LOOKUP_URL is required")
	}
	if c.UpstreamURL == "" {
		errs = append(errs, "UPSTREAM_URL is required")
	}
	return errs
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envList(k, def string) []string {
	raw := env(k, def)
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
