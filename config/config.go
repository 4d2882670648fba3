// Package config loads the settings of the mediaupload command.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// MEDIAUPLOAD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-mediaupload/mediaupload"
	"github.com/bitrise-io/go-utils/v2/env"
	"gopkg.in/yaml.v3"
)

const (
	UploadURLKey          = "MEDIAUPLOAD_UPLOAD_URL"
	StatusUpdateURLKey    = "MEDIAUPLOAD_STATUS_UPDATE_URL"
	PhaseTimeoutKey       = "MEDIAUPLOAD_PHASE_TIMEOUT"
	WaitForProcessingKey  = "MEDIAUPLOAD_WAIT_FOR_PROCESSING"
	MaxProcessingWaitKey  = "MEDIAUPLOAD_MAX_PROCESSING_WAIT"
	VerboseKey            = "MEDIAUPLOAD_VERBOSE"
	AccountsFileKey       = "MEDIAUPLOAD_ACCOUNTS_FILE"
	AccountKey            = "MEDIAUPLOAD_ACCOUNT"
	AWSRegionKey          = "MEDIAUPLOAD_AWS_REGION"
	AWSAccessKeyIDKey     = "MEDIAUPLOAD_AWS_ACCESS_KEY_ID"
	AWSSecretAccessKeyKey = "MEDIAUPLOAD_AWS_SECRET_ACCESS_KEY"
	EnableAnalyticsKey    = "MEDIAUPLOAD_ENABLE_ANALYTICS"
)

// Config ...
type Config struct {
	UploadURL         string        `yaml:"upload_url"`
	StatusUpdateURL   string        `yaml:"status_update_url"`
	PhaseTimeout      time.Duration `yaml:"phase_timeout"`
	WaitForProcessing bool          `yaml:"wait_for_processing"`
	MaxProcessingWait time.Duration `yaml:"max_processing_wait"`
	Verbose           bool          `yaml:"verbose"`

	AccountsFile string `yaml:"accounts_file"`
	Account      string `yaml:"account"`

	AWSRegion          string            `yaml:"aws_region"`
	AWSAccessKeyID     string            `yaml:"aws_access_key_id"`
	AWSSecretAccessKey credential.Secret `yaml:"aws_secret_access_key"`

	EnableAnalytics bool `yaml:"enable_analytics"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	defaults := mediaupload.DefaultConfig()
	return Config{
		UploadURL:         defaults.Endpoints.UploadURL,
		StatusUpdateURL:   defaults.Endpoints.StatusUpdateURL,
		PhaseTimeout:      defaults.PhaseTimeout,
		WaitForProcessing: defaults.WaitForProcessing,
		MaxProcessingWait: defaults.MaxProcessingWait,
	}
}

// Load builds the configuration. `path` is optional; an empty path skips the YAML file.
func Load(envRepo env.Repository, path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(envRepo); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(envRepo env.Repository) error {
	setString := func(key string, dst *string) {
		if value := envRepo.Get(key); value != "" {
			*dst = value
		}
	}
	setBool := func(key string, dst *bool) error {
		value := envRepo.Get(key)
		if value == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = parsed
		return nil
	}
	setDuration := func(key string, dst *time.Duration) error {
		value := envRepo.Get(key)
		if value == "" {
			return nil
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = parsed
		return nil
	}

	setString(UploadURLKey, &c.UploadURL)
	setString(StatusUpdateURLKey, &c.StatusUpdateURL)
	setString(AccountsFileKey, &c.AccountsFile)
	setString(AccountKey, &c.Account)
	setString(AWSRegionKey, &c.AWSRegion)
	setString(AWSAccessKeyIDKey, &c.AWSAccessKeyID)
	if value := envRepo.Get(AWSSecretAccessKeyKey); value != "" {
		c.AWSSecretAccessKey = credential.Secret(value)
	}

	var errs []string
	for _, err := range []error{
		setDuration(PhaseTimeoutKey, &c.PhaseTimeout),
		setDuration(MaxProcessingWaitKey, &c.MaxProcessingWait),
		setBool(WaitForProcessingKey, &c.WaitForProcessing),
		setBool(VerboseKey, &c.Verbose),
		setBool(EnableAnalyticsKey, &c.EnableAnalytics),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate ...
func (c Config) Validate() error {
	for name, value := range map[string]string{"upload_url": c.UploadURL, "status_update_url": c.StatusUpdateURL} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%s: %q is not an http(s) URL", name, value)
		}
	}
	if c.PhaseTimeout < 0 {
		return errors.New("phase_timeout must not be negative")
	}
	if c.MaxProcessingWait < 0 {
		return errors.New("max_processing_wait must not be negative")
	}
	if c.AWSAccessKeyID != "" && c.AWSSecretAccessKey == "" {
		return errors.New("aws_secret_access_key is required when aws_access_key_id is set")
	}
	return nil
}

// UploaderConfig converts the settings into the uploader's configuration.
func (c Config) UploaderConfig() mediaupload.Config {
	return mediaupload.Config{
		Endpoints: mediaupload.Endpoints{
			UploadURL:       c.UploadURL,
			StatusUpdateURL: c.StatusUpdateURL,
		},
		PhaseTimeout:      c.PhaseTimeout,
		WaitForProcessing: c.WaitForProcessing,
		MaxProcessingWait: c.MaxProcessingWait,
	}
}
