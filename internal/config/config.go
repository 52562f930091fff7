package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	Workflow struct {
		CrisisWebhookURL string `yaml:"crisis_webhook_url"`
	} `yaml:"workflow"`
	Scheduler struct {
		TickSeconds     int64  `yaml:"tick_seconds"`
		DefaultTimezone string `yaml:"default_timezone"`
	} `yaml:"scheduler"`
	Dispatch struct {
		MaxRetries uint64 `yaml:"max_retries"`
		Workers    int    `yaml:"workers"`
		QueueSize  int    `yaml:"queue_size"`
	} `yaml:"dispatch"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate fills defaults and rejects values that would break the engine at
// runtime. A missing bot token or webhook URL is not an error: it only
// disables the corresponding channel.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	if c.Telegram.BotToken == "" {
		c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}

	if c.Scheduler.TickSeconds <= 0 {
		c.Scheduler.TickSeconds = 60
	}
	if c.Scheduler.DefaultTimezone == "" {
		c.Scheduler.DefaultTimezone = "America/Mexico_City"
	}
	if _, err := time.LoadLocation(c.Scheduler.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid scheduler.default_timezone %q: %w", c.Scheduler.DefaultTimezone, err)
	}

	if c.Dispatch.MaxRetries == 0 {
		c.Dispatch.MaxRetries = 3
	}
	if c.Dispatch.Workers <= 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.QueueSize <= 0 {
		c.Dispatch.QueueSize = 64
	}

	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}

	return nil
}

// TickInterval returns the scheduler tick as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Scheduler.TickSeconds) * time.Second
}
