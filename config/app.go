package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// App holds the settings that are not tied to one backing service.
type App struct {
	Port    string
	SiteURL string

	SupabaseURL        string
	SupabaseAnonKey    string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CookieSecure       bool
	CookieDomain       string
	CORSOrigins        []string
	CacheTTL           time.Duration
	GCSBucket          string
	GCSCredentialsFile string
}

func LoadApp() (*App, error) {
	a := &App{
		Port:               envOr("PORT", "8080"),
		SiteURL:            strings.TrimRight(envOr("SITE_URL", "http://localhost:8080"), "/"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		JWTSecret:          os.Getenv("SUPABASE_JWT_SECRET"),
		JWTIssuer:          os.Getenv("SUPABASE_JWT_ISSUER"),
		JWTAudience:        os.Getenv("SUPABASE_JWT_AUDIENCE"),
		CookieSecure:       os.Getenv("COOKIE_SECURE") == "true",
		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),
		CacheTTL:           time.Duration(envInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
	}

	if a.SupabaseURL == "" || a.SupabaseAnonKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY environment variables must be set")
	}
	if a.JWTSecret == "" {
		return nil, errors.New("SUPABASE_JWT_SECRET environment variable is not set")
	}
	return a, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
