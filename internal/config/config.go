package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		Token      string `yaml:"token"` // falls back to TELEGRAM_BOT_TOKEN
		WebhookURL string `yaml:"webhook_url"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"telegram"`
	Ops struct {
		Port string `yaml:"port"`
	} `yaml:"ops"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		RoundSize       int    `yaml:"round_size"`
		LeaderboardSize int    `yaml:"leaderboard_size"`
		QuestionsPath   string `yaml:"questions_path"`
		StateFile       string `yaml:"state_file"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path and applies defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Telegram.ListenAddr == "" {
		c.Telegram.ListenAddr = ":8443"
	}
	if c.Ops.Port == "" {
		c.Ops.Port = "8080"
	}
	if c.Quiz.RoundSize == 0 {
		c.Quiz.RoundSize = 5
	}
	if c.Quiz.LeaderboardSize == 0 {
		c.Quiz.LeaderboardSize = 10
	}
	if c.Quiz.QuestionsPath == "" {
		c.Quiz.QuestionsPath = "config/questions.yaml"
	}
	if c.Quiz.StateFile == "" {
		c.Quiz.StateFile = "data/sessions.json"
	}
}

// TelegramToken resolves the bot token from config or the environment.
func (c Config) TelegramToken() string {
	if c.Telegram.Token != "" {
		return c.Telegram.Token
	}
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
