package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// Environment variables that override the config file
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvStatusBaseURL = "ROSTER_STATUS_BASE_URL"
	EnvServerAddr    = "ROSTER_SERVER_ADDR"
)

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// DatabaseConfig selects the roster store
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite memory"`
	// URL is a postgres connection string or a sqlite file path
	URL string `yaml:"url,omitempty" validate:"required_unless=Driver memory"`
}

// StatusConfig controls automatic status updates
type StatusConfig struct {
	// UpdateSchedule is an RFC 5545 RRULE; empty disables scheduled updates
	UpdateSchedule string `yaml:"updateSchedule,omitempty"`
	Concurrency    int    `yaml:"concurrency" validate:"min=1"`
	GatewayMode    string `yaml:"gatewayMode" validate:"required,oneof=direct remote"`
	RemoteBaseURL  string `yaml:"remoteBaseURL,omitempty" validate:"required_if=GatewayMode remote"`
}

// PublishConfig holds Google Sheets publishing settings
type PublishConfig struct {
	RosterSheetID string `yaml:"rosterSheetID,omitempty"`
}

// SamplerConfig is one entry of the sampler registry used for roster generation
type SamplerConfig struct {
	ID             string `yaml:"id" validate:"required"`
	Name           string `yaml:"name" validate:"required"`
	Email          string `yaml:"email,omitempty" validate:"omitempty,email"`
	Phone          string `yaml:"phone,omitempty"`
	WeeklyLimit24h bool   `yaml:"weeklyLimit24h,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Status   StatusConfig    `yaml:"status"`
	Publish  PublishConfig   `yaml:"publish,omitempty"`
	Samplers []SamplerConfig `yaml:"samplers,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads roster_config.<env>.yaml from the current or home directory.
// A .env file, if present, is loaded first so its variables can override the file.
func LoadWithEnv(env string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads, defaults, overrides and validates the configuration at path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if cfg.Status.Concurrency == 0 {
		cfg.Status.Concurrency = 1
	}
	if cfg.Status.GatewayMode == "" {
		cfg.Status.GatewayMode = "direct"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(EnvStatusBaseURL); v != "" {
		cfg.Status.RemoteBaseURL = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Status.UpdateSchedule != "" {
		if _, err := rrule.StrToRRule(cfg.Status.UpdateSchedule); err != nil {
			return fmt.Errorf("invalid rrule in status.updateSchedule: %w", err)
		}
	}

	seen := make(map[string]bool, len(cfg.Samplers))
	for i, s := range cfg.Samplers {
		if seen[s.ID] {
			return fmt.Errorf("duplicate sampler id %q at samplers[%d]", s.ID, i)
		}
		seen[s.ID] = true
	}

	return nil
}

// SamplerRegistry converts the configured samplers to model values, in file order
func (c *Config) SamplerRegistry() []model.Sampler {
	samplers := make([]model.Sampler, 0, len(c.Samplers))
	for _, s := range c.Samplers {
		samplers = append(samplers, model.Sampler{
			ID:             s.ID,
			Name:           s.Name,
			Email:          s.Email,
			Phone:          s.Phone,
			WeeklyLimit24h: s.WeeklyLimit24h,
		})
	}
	return samplers
}

// findConfigFile searches for roster_config.<env>.yaml in the current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "roster_config.yaml"
	if env != "" {
		configFileName = "roster_config." + env + ".yaml"
	}

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
