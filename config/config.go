// Package config loads the service configuration from defaults, an optional
// YAML file and AFFIDAVIT_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate for any rejected setting.
var ErrInvalidConfig = errors.New("invalid config")

// OCR backends.
const (
	OCRBackendAzure     = "azure"
	OCRBackendTesseract = "tesseract"
)

// Semantic backends.
const (
	SemanticBackendExec     = "exec"
	SemanticBackendOllama   = "ollama"
	SemanticBackendDisabled = "disabled"
)

// Store backends.
const (
	StoreBackendMongo  = "mongo"
	StoreBackendSQLite = "sqlite"
	StoreBackendNone   = "none"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	OCR       OCRConfig       `koanf:"ocr"`
	Semantic  SemanticConfig  `koanf:"semantic"`
	Store     StoreConfig     `koanf:"store"`
	Log       LogConfig       `koanf:"log"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	MaxFileSize     int64         `koanf:"max_file_size"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type OCRConfig struct {
	Backend        string        `koanf:"backend"`
	AzureEndpoint  string        `koanf:"azure_endpoint"`
	AzureKey       Secret        `koanf:"azure_key"`
	AzureModel     string        `koanf:"azure_model"`
	PollInterval   time.Duration `koanf:"poll_interval"`
	Timeout        time.Duration `koanf:"timeout"`
	TessdataPrefix string        `koanf:"tessdata_prefix"`
	Languages      string        `koanf:"languages"`
}

// SemanticConfig controls the language-model corroboration step.
// RatePerMinute of zero disables the limiter.
type SemanticConfig struct {
	Backend       string        `koanf:"backend"`
	Model         string        `koanf:"model"`
	Binary        string        `koanf:"binary"`
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerMinute float64       `koanf:"rate_per_minute"`
	Burst         int           `koanf:"burst"`
}

type StoreConfig struct {
	Backend    string `koanf:"backend"`
	URI        Secret `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
	SQLitePath string `koanf:"sqlite_path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ArtifactsConfig enables writing the OCR hand-off files for every run.
type ArtifactsConfig struct {
	Dir     string `koanf:"dir"`
	Enabled bool   `koanf:"enabled"`
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.MaxFileSize == 0 {
		cfg.Server.MaxFileSize = 10 * 1024 * 1024 // 10 MB
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.OCR.Backend == "" {
		cfg.OCR.Backend = OCRBackendAzure
	}
	if cfg.OCR.AzureModel == "" {
		cfg.OCR.AzureModel = "prebuilt-document"
	}
	if cfg.OCR.PollInterval == 0 {
		cfg.OCR.PollInterval = time.Second
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = 2 * time.Minute
	}
	if cfg.OCR.TessdataPrefix == "" {
		cfg.OCR.TessdataPrefix = "/usr/share/tesseract-ocr/5/tessdata/"
	}
	if cfg.OCR.Languages == "" {
		cfg.OCR.Languages = "hin+eng"
	}

	if cfg.Semantic.Backend == "" {
		cfg.Semantic.Backend = SemanticBackendExec
	}
	if cfg.Semantic.Model == "" {
		cfg.Semantic.Model = "llama3:8b"
	}
	if cfg.Semantic.Binary == "" {
		cfg.Semantic.Binary = "ollama"
	}
	if cfg.Semantic.URL == "" {
		cfg.Semantic.URL = "http://localhost:11434"
	}
	if cfg.Semantic.Timeout == 0 {
		cfg.Semantic.Timeout = 120 * time.Second
	}
	if cfg.Semantic.Burst == 0 {
		cfg.Semantic.Burst = 1
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendMongo
	}
	if cfg.Store.URI == "" {
		cfg.Store.URI = "mongodb://localhost:27017"
	}
	if cfg.Store.Database == "" {
		cfg.Store.Database = "affidavit_db"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "affidavits"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "affidavits.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "artifacts"
	}
}

// Validate checks backend selections and numeric limits.
func (c *Config) Validate() error {
	switch c.OCR.Backend {
	case OCRBackendAzure, OCRBackendTesseract:
	default:
		return fmt.Errorf("%w: unknown ocr backend %q", ErrInvalidConfig, c.OCR.Backend)
	}

	if c.OCR.Timeout <= 0 {
		return fmt.Errorf("%w: ocr.timeout must be positive", ErrInvalidConfig)
	}

	switch c.Semantic.Backend {
	case SemanticBackendExec, SemanticBackendOllama, SemanticBackendDisabled:
	default:
		return fmt.Errorf("%w: unknown semantic backend %q", ErrInvalidConfig, c.Semantic.Backend)
	}
	if c.Semantic.Timeout <= 0 {
		return fmt.Errorf("%w: semantic.timeout must be positive", ErrInvalidConfig)
	}
	if c.Semantic.RatePerMinute < 0 {
		return fmt.Errorf("%w: semantic.rate_per_minute must not be negative", ErrInvalidConfig)
	}

	switch c.Store.Backend {
	case StoreBackendMongo, StoreBackendSQLite, StoreBackendNone:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Server.MaxFileSize <= 0 {
		return fmt.Errorf("%w: server.max_file_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateOCR checks the credentials of the selected OCR backend. It is
// separate from Validate so commands that never call OCR can run without them.
func (c *Config) ValidateOCR() error {
	if c.OCR.Backend != OCRBackendAzure {
		return nil
	}
	if c.OCR.AzureEndpoint == "" {
		return fmt.Errorf("%w: ocr.azure_endpoint is required for the azure backend", ErrInvalidConfig)
	}
	if !c.OCR.AzureKey.IsSet() {
		return fmt.Errorf("%w: ocr.azure_key is required for the azure backend", ErrInvalidConfig)
	}
	return nil
}

// Secret wraps strings that should be redacted in logs and serialization.
type Secret string

// String implements fmt.Stringer. Always returns redacted value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// Value returns the actual secret value.
func (s Secret) Value() string {
	return string(s)
}

// IsSet returns true if the secret has a non-empty value.
func (s Secret) IsSet() bool {
	return s != ""
}

// MarshalJSON implements json.Marshaler. Always returns redacted value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
