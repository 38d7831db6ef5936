// Package config builds the immutable process configuration for Picklebot.
//
// Configuration is read once at startup from environment variables, with an
// optional YAML file overlay (PICKLEBOT_CONFIG_FILE). The resulting Config is
// passed explicitly into each component and never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/genechuang/picklebot/common/environment"
)

// Defaults mirroring the deployed bot.
const (
	defaultListenAddr    = ":8080"
	defaultGreenAPIBase  = "https://api.green-api.com"
	defaultAnthropicBase = "https://api.anthropic.com"
	defaultSheetsBase    = "https://sheets.googleapis.com"
	defaultModel         = "claude-3-haiku-20240307"
	defaultSheetName     = "2026 Pickleball"
	defaultTimeout       = 30 * time.Second
	defaultPendingTTL    = 15 * time.Minute
)

// GreenAPI configures the outbound WhatsApp message sender.
type GreenAPI struct {
	InstanceID string        `yaml:"instance_id"`
	APIToken   string        `yaml:"api_token"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Configured reports whether credentials are present. Used by the status
// handler; this is a configuration check, not a live health check.
func (g GreenAPI) Configured() bool {
	return g.InstanceID != "" && g.APIToken != ""
}

// Anthropic configures the LLM-backed intent classifier.
type Anthropic struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether an API key is present.
func (a Anthropic) Configured() bool { return a.APIKey != "" }

// Sheets configures the read-only Google Sheets roster source.
type Sheets struct {
	SpreadsheetID string        `yaml:"spreadsheet_id"`
	SheetName     string        `yaml:"sheet_name"`
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Configured reports whether a spreadsheet is configured.
func (s Sheets) Configured() bool { return s.SpreadsheetID != "" }

// Pending configures the pending-action store used to issue confirmation
// tokens for gated commands.
type Pending struct {
	DatabasePath  string        `yaml:"database_path"`
	SigningSecret string        `yaml:"signing_secret"`
	TTL           time.Duration `yaml:"ttl"`
}

// Config is the process-wide immutable configuration.
type Config struct {
	ListenAddr   string    `yaml:"listen_addr"`
	LogLevel     string    `yaml:"log_level"`
	LogFormat    string    `yaml:"log_format"`
	AdminGroupID string    `yaml:"admin_group_id"`
	GreenAPI     GreenAPI  `yaml:"greenapi"`
	Anthropic    Anthropic `yaml:"anthropic"`
	Sheets       Sheets    `yaml:"sheets"`
	Pending      Pending   `yaml:"pending"`
}

// Load builds a Config from environment variables, then applies the optional
// YAML overlay named by PICKLEBOT_CONFIG_FILE. Unset overlay fields leave the
// environment-derived values untouched.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   environment.StringOr("PICKLEBOT_LISTEN_ADDR", defaultListenAddr),
		LogLevel:     environment.StringOr("PICKLEBOT_LOG_LEVEL", "info"),
		LogFormat:    environment.StringOr("PICKLEBOT_LOG_FORMAT", "text"),
		AdminGroupID: environment.StringOr("ADMIN_DINKERS_WHATSAPP_GROUP_ID", ""),
		GreenAPI: GreenAPI{
			InstanceID: environment.StringOr("GREENAPI_INSTANCE_ID", ""),
			APIToken:   environment.StringOr("GREENAPI_API_TOKEN", ""),
			BaseURL:    environment.StringOr("GREENAPI_BASE_URL", defaultGreenAPIBase),
			Timeout:    environment.DurationOr("GREENAPI_TIMEOUT", defaultTimeout),
		},
		Anthropic: Anthropic{
			APIKey:  environment.StringOr("ANTHROPIC_API_KEY", ""),
			BaseURL: environment.StringOr("ANTHROPIC_BASE_URL", defaultAnthropicBase),
			Model:   environment.StringOr("ANTHROPIC_MODEL", defaultModel),
			Timeout: environment.DurationOr("ANTHROPIC_TIMEOUT", defaultTimeout),
		},
		Sheets: Sheets{
			SpreadsheetID: environment.StringOr("SMAD_SPREADSHEET_ID", ""),
			SheetName:     environment.StringOr("SMAD_SHEET_NAME", defaultSheetName),
			APIKey:        environment.StringOr("SHEETS_API_KEY", ""),
			BaseURL:       environment.StringOr("SHEETS_BASE_URL", defaultSheetsBase),
			Timeout:       environment.DurationOr("SHEETS_TIMEOUT", defaultTimeout),
		},
		Pending: Pending{
			DatabasePath:  environment.StringOr("PICKLEBOT_DB_PATH", ""),
			SigningSecret: environment.StringOr("PICKLEBOT_SIGNING_SECRET", ""),
			TTL:           environment.DurationOr("PICKLEBOT_PENDING_TTL", defaultPendingTTL),
		},
	}

	if path := os.Getenv("PICKLEBOT_CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile overlays cfg with values from a YAML file. Zero-valued fields in
// the file are treated as unset.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	overrideString(&cfg.ListenAddr, overlay.ListenAddr)
	overrideString(&cfg.LogLevel, overlay.LogLevel)
	overrideString(&cfg.LogFormat, overlay.LogFormat)
	overrideString(&cfg.AdminGroupID, overlay.AdminGroupID)

	overrideString(&cfg.GreenAPI.InstanceID, overlay.GreenAPI.InstanceID)
	overrideString(&cfg.GreenAPI.APIToken, overlay.GreenAPI.APIToken)
	overrideString(&cfg.GreenAPI.BaseURL, overlay.GreenAPI.BaseURL)
	overrideDuration(&cfg.GreenAPI.Timeout, overlay.GreenAPI.Timeout)

	overrideString(&cfg.Anthropic.APIKey, overlay.Anthropic.APIKey)
	overrideString(&cfg.Anthropic.BaseURL, overlay.Anthropic.BaseURL)
	overrideString(&cfg.Anthropic.Model, overlay.Anthropic.Model)
	overrideDuration(&cfg.Anthropic.Timeout, overlay.Anthropic.Timeout)

	overrideString(&cfg.Sheets.SpreadsheetID, overlay.Sheets.SpreadsheetID)
	overrideString(&cfg.Sheets.SheetName, overlay.Sheets.SheetName)
	overrideString(&cfg.Sheets.APIKey, overlay.Sheets.APIKey)
	overrideString(&cfg.Sheets.BaseURL, overlay.Sheets.BaseURL)
	overrideDuration(&cfg.Sheets.Timeout, overlay.Sheets.Timeout)

	overrideString(&cfg.Pending.DatabasePath, overlay.Pending.DatabasePath)
	overrideString(&cfg.Pending.SigningSecret, overlay.Pending.SigningSecret)
	overrideDuration(&cfg.Pending.TTL, overlay.Pending.TTL)

	return nil
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
