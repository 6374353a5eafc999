package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env     string `yaml:"env"`
	Port    string `yaml:"port"`
	CronKey string `yaml:"cron_key"`

	Funding       FundingConfig      `yaml:"funding"`
	Redis         RedisConfig        `yaml:"redis"`
	Notifications NotificationConfig `yaml:"notifications"`
}

type FundingConfig struct {
	Stages        []string          `yaml:"stages"`
	Timezone      string            `yaml:"timezone"`
	SweepSchedule string            `yaml:"sweep_schedule"`
	SweepEnabled  bool              `yaml:"sweep_enabled"`
	Thresholds    []ThresholdConfig `yaml:"thresholds"`
}

// ThresholdConfig describes one deadline reminder. Message may contain %s,
// replaced with the round stage.
type ThresholdConfig struct {
	Tag     string        `yaml:"tag"`
	Before  time.Duration `yaml:"before"`
	Message string        `yaml:"message"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NotificationConfig struct {
	QueueSize    int    `yaml:"queue_size"`
	RedisChannel string `yaml:"redis_channel"`
}

func Default() Config {
	return Config{
		Env:  "development",
		Port: "8080",
		Funding: FundingConfig{
			Stages:        []string{"SEED", "SERIES_A", "SERIES_B", "SERIES_C", "SERIES_D"},
			Timezone:      "UTC",
			SweepSchedule: "0 0 * * *",
			SweepEnabled:  true,
			Thresholds: []ThresholdConfig{
				{Tag: "SEVEN_DAY", Before: 7 * 24 * time.Hour, Message: "7 days left until the end of the %s round"},
				{Tag: "THREE_DAY", Before: 3 * 24 * time.Hour, Message: "3 days left until the end of the %s round"},
				{Tag: "ONE_DAY", Before: 24 * time.Hour, Message: "1 day left until the end of the %s round"},
			},
		},
		Notifications: NotificationConfig{
			QueueSize:    256,
			RedisChannel: "fundlink:notifications",
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		c.Env = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		c.Port = v
	}
	if v := os.Getenv("CRON_KEY"); v != "" {
		c.CronKey = v
	}
	if v := strings.TrimSpace(os.Getenv("FUNDING_TIMEZONE")); v != "" {
		c.Funding.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("FUNDING_SWEEP_SCHEDULE")); v != "" {
		c.Funding.SweepSchedule = v
	}
	if v := strings.TrimSpace(os.Getenv("FUNDING_SWEEP_ENABLED")); v != "" {
		c.Funding.SweepEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		c.Redis.Addr = strings.ReplaceAll(v, " ", "")
	}
	if v := os.Getenv("REDIS_PASS"); v != "" {
		c.Redis.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
}

// Location resolves the timezone used for calendar-day comparisons.
func (c Config) Location() (*time.Location, error) {
	if c.Funding.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Funding.Timezone)
}
