package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the service configuration, populated from the environment.
type Config struct {
	// SupabaseURL is the base URL of the Supabase project hosting the
	// incoming-messages table.
	SupabaseURL string `envconfig:"SUPABASE_URL" required:"true"`

	// SupabaseServiceRoleKey authenticates message-store queries and updates.
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY" required:"true"`

	// ActualBridgeURL is the base URL of the Actual Budget HTTP bridge.
	ActualBridgeURL string `envconfig:"ACTUAL_BRIDGE_URL" default:"http://actual-bridge:3000"`

	// GeminiAPIKey authenticates calls to the Gemini API.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`

	// GeminiModel is the model used for transaction extraction.
	GeminiModel string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	// TelegramBotToken authenticates digest sends to the Telegram Bot API.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// TelegramChatID is the chat that receives sync digests.
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID" required:"true"`

	// SyncInterval is the period between scheduled sync cycles.
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"5m"`

	// Port is the HTTP port for the health and trigger endpoints.
	Port string `envconfig:"PORT" default:"8080"`

	// RequestTimeout is the hard timeout applied to every outbound call
	// (message store, ledger bridge, extraction).
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	// NotifyTimeout is the hard timeout for the Telegram send.
	NotifyTimeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval)
	}
	// A hung collaborator must not stall the schedule.
	if c.RequestTimeout <= 0 || c.RequestTimeout >= c.SyncInterval {
		return fmt.Errorf("request timeout %s must be positive and shorter than the sync interval %s", c.RequestTimeout, c.SyncInterval)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify timeout must be positive, got %s", c.NotifyTimeout)
	}
	return nil
}
