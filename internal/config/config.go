package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config represents the main configuration for sip.
type Config struct {
	InstanceID  string           `toml:"instance_id"`
	UserID      string           `toml:"user_id"`
	BaseDir     string           `toml:"base_dir"`
	LogDir      string           `toml:"log_dir"`
	LogLevel    string           `toml:"log_level"`
	DefaultGoal int64            `toml:"default_goal"`
	Vaults      []VaultConfig    `toml:"vaults"`
	Encryption  EncryptionConfig `toml:"encryption"`
	Database    DatabaseConfig   `toml:"database"`
	Feedback    FeedbackConfig   `toml:"feedback"`
	Server      ServerConfig     `toml:"server"`
	Importer    ImporterConfig   `toml:"importer"`
}

// EncryptionConfig holds paths to the age key pair used for archive encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig represents configuration for an archive vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
	// Optional: an S3-compatible endpoint (MinIO, R2) and static credentials.
	// Without them the default AWS credential chain is used.
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the ledger database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// FeedbackConfig selects the hydration coach.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type FeedbackConfig struct {
	Type string `toml:"type"` // "openai", "static", or "none"

	// OpenAI-compatible fields (only used when Type == "openai")
	Model       string  `toml:"model,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	APIKey      string  `toml:"api_key,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
	MaxTokens   int     `toml:"max_tokens,omitempty"`
}

// ServerConfig holds settings for `sip serve`.
type ServerConfig struct {
	Addr          string   `toml:"addr"`
	CORSOrigins   []string `toml:"cors_origins"`
	SweepSchedule string   `toml:"sweep_schedule"` // cron spec; empty disables the nightly sweep
}

// ImporterConfig holds settings for CSV intake imports.
type ImporterConfig struct {
	WatchDir string `toml:"watch_dir,omitempty"`
}

// envOverrides are deployment knobs and secrets that may come from the environment
// instead of the config file.
type envOverrides struct {
	UserID         string   `env:"SIP_USER_ID"`
	LogLevel       string   `env:"SIP_LOG_LEVEL"`
	FeedbackAPIKey string   `env:"SIP_FEEDBACK_API_KEY"`
	ServerAddr     string   `env:"SIP_SERVER_ADDR"`
	CORSOrigins    []string `env:"SIP_CORS_ORIGINS" envSeparator:","`
	WatchDir       string   `env:"SIP_WATCH_DIR"`
}

// NewConfig creates a new Config with the provided values and defaults derived from baseDir.
func NewConfig(instanceID, userID, baseDir string) *Config {
	return &Config{
		InstanceID:  instanceID,
		UserID:      userID,
		BaseDir:     baseDir,
		LogDir:      filepath.Join(baseDir, "log"),
		LogLevel:    "info",
		DefaultGoal: 2500,
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "sip.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "sip.key"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Feedback: FeedbackConfig{
			Type: "static",
		},
		Server: ServerConfig{
			Addr:          ":8000",
			CORSOrigins:   []string{"*"},
			SweepSchedule: "5 0 * * *",
		},
	}
}

// ApplyEnv overrides config values with any SIP_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.UserID != "" {
		cfg.UserID = o.UserID
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.FeedbackAPIKey != "" {
		cfg.Feedback.APIKey = o.FeedbackAPIKey
	}
	if o.ServerAddr != "" {
		cfg.Server.Addr = o.ServerAddr
	}
	if len(o.CORSOrigins) > 0 {
		cfg.Server.CORSOrigins = o.CORSOrigins
	}
	if o.WatchDir != "" {
		cfg.Importer.WatchDir = o.WatchDir
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path and applies
// environment overrides.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("applying environment to %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path, creating its directory.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
// It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
