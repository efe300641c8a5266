package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		SessionTTL string `yaml:"session_ttl"`
		CacheTTL   string `yaml:"cache_ttl"`
	} `yaml:"redis"`
	Gemini struct {
		APIKey  string `yaml:"api_key"`
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"gemini"`
	Quiz struct {
		RetentionDays int    `yaml:"retention_days"`
		DailyHour     int    `yaml:"daily_hour"`
		StartupDelay  string `yaml:"startup_delay"`
	} `yaml:"quiz"`
	Users struct {
		BaseURL string       `yaml:"base_url"`
		Static  []StaticUser `yaml:"static"`
	} `yaml:"users"`
}

// StaticUser seeds the in-process user directory when no user service is
// configured.
type StaticUser struct {
	ID       int64  `yaml:"id"`
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Admin    bool   `yaml:"admin"`
}

// Load reads YAML config from path and applies environment fallbacks for
// secrets and defaults for the quiz schedule.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Gemini.URL == "" {
		cfg.Gemini.URL = os.Getenv("GEMINI_API_URL")
	}
	if cfg.Gemini.URL == "" {
		cfg.Gemini.URL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	}
	if cfg.Quiz.RetentionDays <= 0 {
		cfg.Quiz.RetentionDays = 7
	}
	if cfg.Quiz.DailyHour <= 0 || cfg.Quiz.DailyHour > 23 {
		cfg.Quiz.DailyHour = 3
	}
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
