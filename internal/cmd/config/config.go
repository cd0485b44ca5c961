// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package config parses the HCL configuration shared by the accessgrants
// commands and overlays it with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-accessgrants/internal/event"
	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/hashicorp/hcl"
	"github.com/kelseyhightower/envconfig"
)

var (
	supportedLogLevels  = []string{"trace", "debug", "info", "warn", "err", "error"}
	supportedLogFormats = []string{"standard", "json"}
)

// Config is the configuration for the accessgrants commands.
type Config struct {
	// AccountId is the id of the account that owns the Access Grants
	// instance. Supports file:// and env:// indirection.
	AccountId string `hcl:"account_id"`

	// Region hosting the Access Grants instance. When empty, the region is
	// discovered from the process environment.
	Region string `hcl:"region"`

	// ExpiryMargin is how long before their expiration cached credentials
	// stop being handed out.
	ExpiryMargin    time.Duration `hcl:"-"`
	ExpiryMarginRaw any           `hcl:"expiry_margin"`

	// RefreshInterval is how often a background refresher reloads the grant
	// directory.
	RefreshInterval    time.Duration `hcl:"-"`
	RefreshIntervalRaw any           `hcl:"refresh_interval"`

	// CredentialsDuration is the session duration requested for issued
	// credentials.
	CredentialsDuration    time.Duration `hcl:"-"`
	CredentialsDurationRaw any           `hcl:"credentials_duration"`

	// MaxResults caps the page size used when listing grants.
	MaxResults int `hcl:"max_results"`

	LogLevel  string `hcl:"log_level"`
	LogFormat string `hcl:"log_format"`

	// Eventing holds the events stanza. When nil, events go to a default
	// stderr sink.
	Eventing *event.EventerConfig `hcl:"events"`
}

func New() *Config {
	return &Config{}
}

// Load builds the effective configuration: the file at path (when path is
// not empty), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	var c *Config
	var err error
	switch path {
	case "":
		c = New()
	default:
		if c, err = LoadFile(path); err != nil {
			return nil, fmt.Errorf("error loading configuration file: %w", err)
		}
	}
	if err := c.OverlayEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile loads the configuration from the given file.
func LoadFile(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(d))
}

func Parse(d string) (*Config, error) {
	obj, err := hcl.Parse(d)
	if err != nil {
		return nil, err
	}

	result := New()
	if err := hcl.DecodeObject(result, obj); err != nil {
		return nil, err
	}

	if result.AccountId != "" {
		account, err := parseutil.ParsePath(result.AccountId)
		if err != nil && !errors.Is(err, parseutil.ErrNotAUrl) {
			return nil, fmt.Errorf("error parsing account id: %w", err)
		}
		result.AccountId = account
	}

	if result.ExpiryMarginRaw != nil {
		if result.ExpiryMargin, err = parseutil.ParseDurationSecond(result.ExpiryMarginRaw); err != nil {
			return nil, fmt.Errorf("error parsing expiry_margin: %w", err)
		}
	}
	if result.RefreshIntervalRaw != nil {
		if result.RefreshInterval, err = parseutil.ParseDurationSecond(result.RefreshIntervalRaw); err != nil {
			return nil, fmt.Errorf("error parsing refresh_interval: %w", err)
		}
	}
	if result.CredentialsDurationRaw != nil {
		if result.CredentialsDuration, err = parseutil.ParseDurationSecond(result.CredentialsDurationRaw); err != nil {
			return nil, fmt.Errorf("error parsing credentials_duration: %w", err)
		}
	}

	// Sinks may repeat event types; collapse them so a sink doesn't see the
	// same event twice.
	if result.Eventing != nil {
		for _, sink := range result.Eventing.Sinks {
			if sink == nil || len(sink.EventTypes) == 0 {
				continue
			}
			types := make([]string, 0, len(sink.EventTypes))
			for _, t := range sink.EventTypes {
				types = append(types, string(t))
			}
			sink.EventTypes = sink.EventTypes[:0]
			for _, t := range strutil.RemoveDuplicatesStable(types, false) {
				sink.EventTypes = append(sink.EventTypes, event.Type(t))
			}
		}
	}

	return result, nil
}

// envOverrides are the environment variables applied on top of the file
// values.
type envOverrides struct {
	AccountId           string `envconfig:"ACCESSGRANTS_ACCOUNT_ID"`
	Region              string `envconfig:"ACCESSGRANTS_REGION"`
	ExpiryMargin        string `envconfig:"ACCESSGRANTS_EXPIRY_MARGIN"`
	RefreshInterval     string `envconfig:"ACCESSGRANTS_REFRESH_INTERVAL"`
	CredentialsDuration string `envconfig:"ACCESSGRANTS_CREDENTIALS_DURATION"`
	MaxResults          int    `envconfig:"ACCESSGRANTS_MAX_RESULTS"`
	LogLevel            string `envconfig:"ACCESSGRANTS_LOG_LEVEL"`
	LogFormat           string `envconfig:"ACCESSGRANTS_LOG_FORMAT"`
}

// OverlayEnv applies ACCESSGRANTS_* environment variables on top of the
// config. Duration variables accept the same forms as the file fields.
func (c *Config) OverlayEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("error reading environment: %w", err)
	}
	if env.AccountId != "" {
		c.AccountId = env.AccountId
	}
	if env.Region != "" {
		c.Region = env.Region
	}
	if env.ExpiryMargin != "" {
		d, err := parseutil.ParseDurationSecond(env.ExpiryMargin)
		if err != nil {
			return fmt.Errorf("error parsing ACCESSGRANTS_EXPIRY_MARGIN: %w", err)
		}
		c.ExpiryMargin = d
	}
	if env.RefreshInterval != "" {
		d, err := parseutil.ParseDurationSecond(env.RefreshInterval)
		if err != nil {
			return fmt.Errorf("error parsing ACCESSGRANTS_REFRESH_INTERVAL: %w", err)
		}
		c.RefreshInterval = d
	}
	if env.CredentialsDuration != "" {
		d, err := parseutil.ParseDurationSecond(env.CredentialsDuration)
		if err != nil {
			return fmt.Errorf("error parsing ACCESSGRANTS_CREDENTIALS_DURATION: %w", err)
		}
		c.CredentialsDuration = d
	}
	if env.MaxResults != 0 {
		c.MaxResults = env.MaxResults
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.LogFormat != "" {
		c.LogFormat = env.LogFormat
	}
	return nil
}

// Validate checks the config for values no command could work with.
func (c *Config) Validate() error {
	if c.ExpiryMargin < 0 {
		return fmt.Errorf("expiry_margin must not be negative")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must not be negative")
	}
	if c.CredentialsDuration < 0 {
		return fmt.Errorf("credentials_duration must not be negative")
	}
	if c.MaxResults < 0 || c.MaxResults > 1000 {
		return fmt.Errorf("max_results must be between 0 and 1000")
	}
	if c.LogLevel != "" && !strutil.StrListContains(supportedLogLevels, strings.ToLower(strings.TrimSpace(c.LogLevel))) {
		return fmt.Errorf("unsupported log_level %q", c.LogLevel)
	}
	if c.LogFormat != "" && !strutil.StrListContains(supportedLogFormats, strings.ToLower(strings.TrimSpace(c.LogFormat))) {
		return fmt.Errorf("unsupported log_format %q", c.LogFormat)
	}
	if c.Eventing != nil {
		if err := c.Eventing.Validate(); err != nil {
			return fmt.Errorf("invalid events stanza: %w", err)
		}
	}
	return nil
}
