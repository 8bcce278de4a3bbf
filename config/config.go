package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DBUrl          string
	AllowedOrigins string
	DataAPIKey     string
	SessionTTL     time.Duration
	ResendAPIKey   string
	FromEmail      string
	AdminEmail     string
	AdminPassword  string
	Debug          bool
}

// ParseFlags reads configuration from command line flags, with defaults
// taken from the environment (a .env file is honored when present).
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUintOr("PORT", 8080), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("DATABASE_URL", "survey.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.AllowedOrigins, "allowed-origins", os.Getenv("ALLOWED_ORIGINS"), "comma-separated CORS origin allowlist, * wildcards allowed")
	flag.StringVar(&cfg.DataAPIKey, "data-api-key", os.Getenv("SURVEY_API_KEY"), "API key expected from data API clients")
	var ttl uint
	flag.UintVar(&ttl, "session-ttl", envUintOr("SESSION_TTL", 60*60*24*7), "admin session TTL in seconds")
	flag.StringVar(&cfg.ResendAPIKey, "resend-api-key", os.Getenv("RESEND_API_KEY"), "Resend API key for response copy emails")
	flag.StringVar(&cfg.FromEmail, "from-email", os.Getenv("RESEND_FROM_EMAIL"), "sender address for response copy emails")
	flag.StringVar(&cfg.AdminEmail, "admin-email", os.Getenv("ADMIN_EMAIL"), "admin user to create or update at startup")
	flag.StringVar(&cfg.AdminPassword, "admin-password", os.Getenv("ADMIN_PASSWORD"), "password for the bootstrap admin user")
	flag.BoolVar(&cfg.Debug, "debug", os.Getenv("DEBUG") == "true", "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.SessionTTL = time.Duration(ttl) * time.Second

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}
