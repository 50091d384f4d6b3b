package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthModeRemote = "remote"
	AuthModeLocal  = "local"

	SessionStorageCookie = "cookie"
	SessionStorageRedis  = "redis"
)

// Config holds every setting the server needs at startup.
type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string

	JWTSecret    string
	CookieSecure bool
	BCryptCost   int
	AuthMode     string
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxy bool

	RecruitAPIURL           string
	RecruitAPIToken         string
	RecruitAPISessionCookie string
	RecruitAPITimeout       time.Duration

	SessionStorage string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	ResumeMaxBytes int64
}

// fileConfig mirrors Config for the optional YAML file. Durations are
// written as Go duration strings ("30s", "24h").
type fileConfig struct {
	Port         string `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	LogLevel     string `yaml:"log_level"`
	CookieSecure *bool  `yaml:"cookie_secure"`
	TrustProxy   *bool  `yaml:"trust_proxy"`
	BCryptCost   int    `yaml:"bcrypt_cost"`
	AuthMode     string `yaml:"auth_mode"`

	RecruitAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"recruit_api"`

	Session struct {
		Storage string `yaml:"storage"`
		TTL     string `yaml:"ttl"`
	} `yaml:"session"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	ResumeMaxBytes int64 `yaml:"resume_max_bytes"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		DatabasePath:      "recruit.db",
		LogLevel:          "info",
		CookieSecure:      true,
		BCryptCost:        12,
		AuthMode:          AuthModeRemote,
		RecruitAPITimeout: 30 * time.Second,
		SessionStorage:    SessionStorageCookie,
		SessionTTL:        24 * time.Hour,
		RedisAddr:         "127.0.0.1:6379",
		ResumeMaxBytes:    5 * 1024 * 1024,
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables that are already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty) and the process environment, in that order.
func Load(path string) (Config, error) {
	cfg := defaults()
	var invalid []string

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		invalid = append(invalid, applyFile(&cfg, fc)...)
	}

	invalid = append(invalid, applyEnv(&cfg)...)

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	} else if len(cfg.JWTSecret) < 32 {
		invalid = append(invalid, "JWT_SECRET (must be at least 32 characters)")
	}
	if cfg.AuthMode != AuthModeRemote && cfg.AuthMode != AuthModeLocal {
		invalid = append(invalid, "AUTH_MODE")
	}
	if cfg.SessionStorage != SessionStorageCookie && cfg.SessionStorage != SessionStorageRedis {
		invalid = append(invalid, "SESSION_STORAGE")
	}
	if cfg.RecruitAPIURL == "" {
		missing = append(missing, "RECRUIT_API_URL")
	}
	if cfg.BCryptCost < 4 || cfg.BCryptCost > 14 {
		invalid = append(invalid, "BCRYPT_COST (must be between 4 and 14)")
	}
	if cfg.SessionStorage == SessionStorageRedis && cfg.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) []string {
	var invalid []string
	setString(&cfg.Port, fc.Port)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.AuthMode, fc.AuthMode)
	setString(&cfg.RecruitAPIURL, fc.RecruitAPI.URL)
	setString(&cfg.SessionStorage, fc.Session.Storage)
	setString(&cfg.RedisAddr, fc.Redis.Addr)
	if fc.CookieSecure != nil {
		cfg.CookieSecure = *fc.CookieSecure
	}
	if fc.TrustProxy != nil {
		cfg.TrustProxy = *fc.TrustProxy
	}
	if fc.BCryptCost != 0 {
		cfg.BCryptCost = fc.BCryptCost
	}
	if fc.Redis.DB != 0 {
		cfg.RedisDB = fc.Redis.DB
	}
	if fc.ResumeMaxBytes > 0 {
		cfg.ResumeMaxBytes = fc.ResumeMaxBytes
	}
	if fc.RecruitAPI.Timeout != "" {
		if d, err := time.ParseDuration(fc.RecruitAPI.Timeout); err == nil && d > 0 {
			cfg.RecruitAPITimeout = d
		} else {
			invalid = append(invalid, "recruit_api.timeout")
		}
	}
	if fc.Session.TTL != "" {
		if d, err := time.ParseDuration(fc.Session.TTL); err == nil && d > 0 {
			cfg.SessionTTL = d
		} else {
			invalid = append(invalid, "session.ttl")
		}
	}
	return invalid
}

func applyEnv(cfg *Config) []string {
	var invalid []string
	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.DatabasePath, getenv("DATABASE_PATH"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	setString(&cfg.JWTSecret, getenv("JWT_SECRET"))
	setString(&cfg.AuthMode, getenv("AUTH_MODE"))
	setString(&cfg.RecruitAPIURL, getenv("RECRUIT_API_URL"))
	setString(&cfg.RecruitAPIToken, getenv("RECRUIT_API_TOKEN"))
	setString(&cfg.RecruitAPISessionCookie, getenv("RECRUIT_API_SESSION_COOKIE"))
	setString(&cfg.SessionStorage, getenv("SESSION_STORAGE"))
	setString(&cfg.RedisAddr, getenv("REDIS_ADDR"))
	setString(&cfg.RedisPassword, getenv("REDIS_PASSWORD"))

	// Secure cookies stay on unless explicitly disabled for local development.
	if v := getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v != "false"
	}
	if v := getenv("TRUST_PROXY"); v != "" {
		cfg.TrustProxy = v == "true"
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BCryptCost = n
		} else {
			invalid = append(invalid, "BCRYPT_COST")
		}
	}
	if v := getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		} else {
			invalid = append(invalid, "REDIS_DB")
		}
	}
	if v := getenv("RESUME_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.ResumeMaxBytes = n
		} else {
			invalid = append(invalid, "RESUME_MAX_BYTES")
		}
	}
	if d, ok, err := getenvDuration("RECRUIT_API_TIMEOUT"); err != nil {
		invalid = append(invalid, "RECRUIT_API_TIMEOUT")
	} else if ok {
		cfg.RecruitAPITimeout = d
	}
	if d, ok, err := getenvDuration("SESSION_TTL"); err != nil {
		invalid = append(invalid, "SESSION_TTL")
	} else if ok {
		cfg.SessionTTL = d
	}
	return invalid
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getenvDuration(key string) (time.Duration, bool, error) {
	v := getenv(key)
	if v == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false, err
	}
	if d <= 0 {
		return 0, false, fmt.Errorf("%s must be positive", key)
	}
	return d, true, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
