package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type PairingConfig struct {
	// How long a pairing code stays redeemable.
	CodeTTL time.Duration `yaml:"code_ttl"`
}

type ChallengeConfig struct {
	// How long a device challenge stays answerable.
	TTL time.Duration `yaml:"ttl"`
}

type LockoutConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BlockDuration time.Duration `yaml:"block_duration"`
}

type StatusConfig struct {
	URL      string        `yaml:"url"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	Pairing   PairingConfig   `yaml:"pairing"`
	Challenge ChallengeConfig `yaml:"challenge"`
	Lockout   LockoutConfig   `yaml:"lockout"`
	Status    StatusConfig    `yaml:"status"`
}

// Load reads the YAML config at path, then applies environment-variable
// overrides and defaults. The returned struct is built once at process
// start and passed explicitly to every component that needs it.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("EMAIL_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("EMAIL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = n
		}
	}
	if v := os.Getenv("EMAIL_USER"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := os.Getenv("EMAIL_PASS"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("EMAIL_FROM"); v != "" {
		cfg.Email.FromEmail = v
	}
	if v := os.Getenv("STATUS_URL"); v != "" {
		cfg.Status.URL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Pairing.CodeTTL == 0 {
		cfg.Pairing.CodeTTL = 10 * time.Minute
	}
	if cfg.Challenge.TTL == 0 {
		cfg.Challenge.TTL = 2 * time.Minute
	}
	if cfg.Lockout.MaxAttempts == 0 {
		cfg.Lockout.MaxAttempts = 3
	}
	if cfg.Lockout.BlockDuration == 0 {
		cfg.Lockout.BlockDuration = time.Hour
	}
	if cfg.Status.Interval == 0 {
		cfg.Status.Interval = 24 * time.Hour
	}
}
