package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Timezone string `yaml:"timezone" default:"Asia/Kolkata"`
	Schedule struct {
		Hour        int `yaml:"hour" default:"19" validate:"min=0,max=23"`
		Minute      int `yaml:"minute" validate:"min=0,max=59"`
		PollSeconds int `yaml:"poll_seconds" default:"30" validate:"min=1"`
	} `yaml:"schedule"`
	Broker struct {
		Provider       string `yaml:"provider" default:"GROWW" validate:"oneof=GROWW ZERODHA"`
		BaseURL        string `yaml:"base_url" default:"https://api.groww.in"`
		TimeoutSeconds int    `yaml:"timeout_seconds" default:"12" validate:"min=1"`
	} `yaml:"broker"`
	Insight struct {
		Provider string `yaml:"provider" default:"PERPLEXITY" validate:"oneof=PERPLEXITY GEMINI NONE"`
		// Model and BaseURL get provider-specific defaults in LoadConfig
		Model               string  `yaml:"model"`
		BaseURL             string  `yaml:"base_url"`
		MaxTokens           int     `yaml:"max_tokens" default:"160" validate:"min=1"`
		Temperature         float32 `yaml:"temperature" default:"0.2" validate:"min=0,max=2"`
		TimeoutSeconds      int     `yaml:"timeout_seconds" default:"18" validate:"min=1"`
		MaxWords            int     `yaml:"max_words" default:"40" validate:"min=1"`
		Workers             int     `yaml:"workers" default:"5" validate:"min=1,max=8"`
		RetryBackoffSeconds int     `yaml:"retry_backoff_seconds" default:"2" validate:"min=0"`
		Headlines           bool    `yaml:"headlines"`
	} `yaml:"insight"`
	Notify struct {
		Channel string `yaml:"channel" default:"terminal" validate:"oneof=terminal whatsapp"`
	} `yaml:"notify"`
	Health struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port" default:"8090" validate:"min=1,max=65535"`
	} `yaml:"health"`
}

var validate = validator.New()

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return validate.Struct(c)
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, err
	}
	applyEnvOverrides(&c)

	// Provider-specific defaults for fields whose value depends on the
	// chosen insight provider
	switch c.Insight.Provider {
	case "PERPLEXITY":
		if c.Insight.Model == "" {
			c.Insight.Model = "sonar-pro"
		}
		if c.Insight.BaseURL == "" {
			c.Insight.BaseURL = "https://api.perplexity.ai"
		}
	case "GEMINI":
		if c.Insight.Model == "" {
			c.Insight.Model = "gemini-2.5-flash"
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// applyEnvOverrides lets deployment environments switch providers and
// channels without editing the config file
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("BROKER_PROVIDER"); v != "" {
		c.Broker.Provider = strings.ToUpper(v)
	}
	if v := os.Getenv("INSIGHT_PROVIDER"); v != "" {
		c.Insight.Provider = strings.ToUpper(v)
	}
	if v := os.Getenv("NOTIFY_CHANNEL"); v != "" {
		c.Notify.Channel = strings.ToLower(v)
	}
}
