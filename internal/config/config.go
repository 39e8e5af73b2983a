package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	ShutdownTimeout         time.Duration

	BackendURL       string
	BackendAPIPrefix string
	BackendTimeout   time.Duration

	PaymentPublicKey string

	MediaHosts    []string
	MediaCacheDir string
	MediaCacheMB  int
	MediaMaxWidth int

	TokenCookieName string
	TokenTTL        time.Duration
	CookieSecure    bool
	SessionSecret   string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:         getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		BackendURL:              strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:1337"), "/"),
		BackendAPIPrefix:        getEnv("BACKEND_API_PREFIX", "/api"),
		BackendTimeout:          getDuration("BACKEND_TIMEOUT", 15*time.Second),
		PaymentPublicKey:        getEnv("MP_PUBLIC_KEY", "TEST-00000000-0000-0000-0000-000000000000"),
		MediaHosts:              splitCSV(getEnv("MEDIA_HOSTS", "*.strapi.app,res.cloudinary.com,img.youtube.com")),
		MediaCacheDir:           getEnv("MEDIA_CACHE_DIR", "./state/media"),
		MediaCacheMB:            getInt("MEDIA_CACHE_MAX_MB", 512),
		MediaMaxWidth:           getInt("MEDIA_MAX_WIDTH", 1920),
		TokenCookieName:         getEnv("TOKEN_COOKIE_NAME", "token"),
		TokenTTL:                getDuration("TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:            getBool("COOKIE_SECURE", false),
		SessionSecret:           strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 5)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "pretty"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	parsed, err := url.Parse(c.BackendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL")
	}

	if c.BackendAPIPrefix != "" && !strings.HasPrefix(c.BackendAPIPrefix, "/") {
		return fmt.Errorf("BACKEND_API_PREFIX must start with /")
	}

	if strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 bytes")
	}

	if strings.TrimSpace(c.TokenCookieName) == "" {
		return fmt.Errorf("TOKEN_COOKIE_NAME cannot be empty")
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.MediaMaxWidth <= 0 {
		return fmt.Errorf("MEDIA_MAX_WIDTH must be positive")
	}

	if strings.TrimSpace(c.MediaCacheDir) == "" {
		return fmt.Errorf("MEDIA_CACHE_DIR cannot be empty")
	}

	switch strings.ToLower(c.LogFormat) {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// BackendHost is the host name of BACKEND_URL without its port; media served
// by the backend itself is always allowed.
func (c *Config) BackendHost() string {
	parsed, err := url.Parse(c.BackendURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
