// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by FromEnv.
const (
	EnvAPIBase         = "JOBAI_API_BASE"
	EnvAnalyzePath     = "JOBAI_ANALYZE_PATH"
	EnvDocumentPath    = "JOBAI_DOCUMENT_PATH"
	EnvSecondaryPolicy = "JOBAI_SECONDARY_POLICY"
	EnvRequestTimeout  = "JOBAI_REQUEST_TIMEOUT"
	EnvBridgeTimeout   = "JOBAI_BRIDGE_TIMEOUT"
	EnvUserAgent       = "JOBAI_USER_AGENT"
)

// Config represents the CLI configuration. It can be loaded from a JSON file and from the
// environment; missing values use defaults.
type Config struct {
	// Backend
	APIBase      string `json:"api_base,omitempty" validate:"required,url"`
	AnalyzePath  string `json:"analyze_path,omitempty" validate:"required,startswith=/"`
	DocumentPath string `json:"document_path,omitempty" validate:"required,startswith=/"` // Fetched after an acknowledgment reply
	UserAgent    string `json:"user_agent,omitempty"`

	// What a failed document fetch does to a report reply: "degrade" keeps the report, "strict" fails
	SecondaryPolicy string `json:"secondary_policy,omitempty" validate:"required,oneof=degrade strict"`

	// Timeouts, as Go durations ("90s", "2m")
	RequestTimeout string `json:"request_timeout,omitempty" validate:"omitempty,duration"`
	BridgeTimeout  string `json:"bridge_timeout,omitempty" validate:"omitempty,duration"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Use headless browser for SPA sites
}

// Defaults returns the configuration used when nothing else is supplied.
func Defaults() Config {
	return Config{
		APIBase:         "http://127.0.0.1:8000",
		AnalyzePath:     "/analyze-full",
		DocumentPath:    "/download/report.pdf",
		SecondaryPolicy: "degrade",
		RequestTimeout:  "5m",
		BridgeTimeout:   "3s",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave fields empty.
func FromEnv(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	return Config{
		APIBase:         get(EnvAPIBase),
		AnalyzePath:     get(EnvAnalyzePath),
		DocumentPath:    get(EnvDocumentPath),
		SecondaryPolicy: strings.ToLower(get(EnvSecondaryPolicy)),
		RequestTimeout:  get(EnvRequestTimeout),
		BridgeTimeout:   get(EnvBridgeTimeout),
		UserAgent:       get(EnvUserAgent),
	}
}

// Load resolves the effective configuration: environment over file over defaults. An empty path
// skips the file. The result is validated.
func Load(path string) (*Config, error) {
	merged := Defaults()

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = fileCfg.MergeWithDefaults(merged)
	}

	env := FromEnv(os.LookupEnv)
	merged = env.MergeWithDefaults(merged)

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config error: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("'%s' failed '%s' (got %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// RequestTimeoutDuration returns the analyze request timeout. Zero means the caller's default.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// BridgeTimeoutDuration returns the bridge round-trip timeout. Zero means the caller's default.
func (c *Config) BridgeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BridgeTimeout)
	return d
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIBase == "" {
		result.APIBase = defaults.APIBase
	}
	if result.AnalyzePath == "" {
		result.AnalyzePath = defaults.AnalyzePath
	}
	if result.DocumentPath == "" {
		result.DocumentPath = defaults.DocumentPath
	}
	if result.SecondaryPolicy == "" {
		result.SecondaryPolicy = defaults.SecondaryPolicy
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.RequestTimeout == "" {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.BridgeTimeout == "" {
		result.BridgeTimeout = defaults.BridgeTimeout
	}

	// Bool fields: cannot distinguish unset from false, so true on either side wins
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser

	return result
}
