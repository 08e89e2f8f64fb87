package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"life-os/internal/logging"
	"life-os/internal/utils"
)

// DefaultFile is read when no --config flag is given and the file exists.
const DefaultFile = "lifeos.yaml"

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		Secret   string        `yaml:"secret"`
		TokenTTL time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Schedule struct {
		Timezone      string `yaml:"timezone"`
		Digest        string `yaml:"digest"`
		Summary       string `yaml:"summary"`
		StreakRefresh string `yaml:"streak_refresh"`
	} `yaml:"schedule"`
	Health struct {
		WaterGlasses int     `yaml:"water_glasses"`
		SleepHours   float64 `yaml:"sleep_hours"`
		Steps        int     `yaml:"steps"`
	} `yaml:"health"`
	Log logging.Options `yaml:"log"`

	location *time.Location
}

func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Database.Path = "lifeos.db"
	cfg.Auth.TokenTTL = 720 * time.Hour
	cfg.Schedule.Timezone = "UTC"
	cfg.Schedule.Digest = "0 7 * * *"
	cfg.Schedule.Summary = "55 21 * * *"
	cfg.Schedule.StreakRefresh = "5 0 * * *"
	cfg.Health.WaterGlasses = 8
	cfg.Health.SleepHours = 8
	cfg.Health.Steps = 10000
	cfg.Log.Level = "info"
	cfg.location = time.UTC
	return cfg
}

// Load layers defaults, the YAML file at path, .env and the process
// environment, in that order. An empty path reads DefaultFile if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()

	loc, err := utils.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	cfg.location = loc

	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := getEnv("PORT", ""); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	c.Server.Addr = getEnv("LIFEOS_ADDR", c.Server.Addr)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Auth.Secret = getEnv("LIFEOS_SECRET", c.Auth.Secret)
	c.Telegram.Token = getEnv("TG_TOKEN", c.Telegram.Token)
	c.Schedule.Timezone = getEnv("LIFEOS_TZ", c.Schedule.Timezone)
	c.Log.Level = getEnv("LIFEOS_LOG_LEVEL", c.Log.Level)
}

// Validate checks what the server needs to run.
func (c *Config) Validate() error {
	if len(c.Auth.Secret) < 16 {
		return errors.New("auth secret must be at least 16 characters (set LIFEOS_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	return nil
}

// Location is the time zone that defines "today" for bucketing and cron.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
