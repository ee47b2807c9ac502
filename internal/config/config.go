package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.msgdeck/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`

	// GatewayURL is the ws:// endpoint that streams inbound message events.
	GatewayURL string `toml:"gateway_url"`

	// APIBaseURL is the REST endpoint of the messaging backend
	// (chat list, transcripts, send, notification persistence).
	APIBaseURL string `toml:"api_base_url"`

	// UserID keys the local user for notification targeting and
	// persistence. The mention tag is derived as "U" + UserID.
	UserID string `toml:"user_id"`

	// AccountIDs are the local account's full sender ids; group messages
	// originating from any of them are suppressed from the inbox.
	AccountIDs []string `toml:"account_ids"`
}

// Validate checks the fields the daemon cannot run without.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("config: gateway_url is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("config: user_id is required")
	}
	return nil
}

// MentionTag returns the mention token addressing the local user.
func (c *Config) MentionTag() string {
	return "U" + c.UserID
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
