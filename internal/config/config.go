package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type OAuthClient struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type Config struct {
	Port         string `yaml:"port"`
	DBDSN        string `yaml:"db_dsn"`
	UploadPath   string `yaml:"upload_path"`
	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
	DefaultLang  string `yaml:"default_lang"`

	RateLimit      int `yaml:"rate_limit"`       // requests per minute per client
	LoginRateLimit int `yaml:"login_rate_limit"` // POST /login attempts per 10 minutes

	SessionStore  string `yaml:"session_store"` // memory | redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	StateSecret       string      `yaml:"state_secret"`
	CookieSecure      bool        `yaml:"cookie_secure"`
	DisableCSRF       bool        `yaml:"-"`
	OAuthRedirectBase string      `yaml:"oauth_redirect_base"`
	GitHub            OAuthClient `yaml:"github"`
	Google            OAuthClient `yaml:"google"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		DBDSN:             "ticketlogger.db", // sqlite file in project root
		UploadPath:        "./uploads",
		TemplatesDir:      "./web/templates",
		StaticDir:         "./web/static",
		LogLevel:          "info",
		DefaultLang:       "en",
		RateLimit:         120,
		LoginRateLimit:    5,
		SessionStore:      "memory",
		RedisAddr:         "localhost:6379",
		StateSecret:       "change-me",
		OAuthRedirectBase: "http://localhost:8080",
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then environment overrides.
// A CONFIG_FILE that cannot be read is reported, but the returned Config is still
// usable: defaults and environment values apply.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	var fileErr error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			fileErr = fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, fileErr
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data = envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DB_DSN", &cfg.DBDSN)
	str("UPLOAD_PATH", &cfg.UploadPath)
	str("TEMPLATES_DIR", &cfg.TemplatesDir)
	str("STATIC_DIR", &cfg.StaticDir)
	str("LOG_FILE", &cfg.LogFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOCALES_DEFAULT", &cfg.DefaultLang)
	str("SESSION_STORE", &cfg.SessionStore)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("STATE_SECRET", &cfg.StateSecret)
	str("OAUTH_REDIRECT_BASE", &cfg.OAuthRedirectBase)
	str("GITHUB_CLIENT_ID", &cfg.GitHub.ClientID)
	str("GITHUB_CLIENT_SECRET", &cfg.GitHub.ClientSecret)
	str("GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)

	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	num("REDIS_DB", &cfg.RedisDB)
	num("RATE_LIMIT", &cfg.RateLimit)
	num("LOGIN_RATE_LIMIT", &cfg.LoginRateLimit)
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = strings.EqualFold(v, "true") || v == "1"
	}
	cfg.OAuthRedirectBase = strings.TrimRight(cfg.OAuthRedirectBase, "/")
}
