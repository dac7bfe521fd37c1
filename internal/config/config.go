package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL   string `env:"DATABASE_URL,required"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`

	// Command/event surface
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8790"`

	// Capture
	CropHelper string `env:"CROP_HELPER" envDefault:"magick"`

	// Notifications (optional; disabled when token is empty)
	TelegramToken  string `env:"NOTIFY_TELEGRAM_TOKEN"`
	TelegramChatID int64  `env:"NOTIFY_TELEGRAM_CHAT_ID"`

	// Logging
	Debug bool `env:"DEBUG" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
