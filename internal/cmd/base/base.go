// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hashicorp/go-accessgrants/credential"
	"github.com/hashicorp/go-accessgrants/internal/cmd/base/logging"
	"github.com/hashicorp/go-accessgrants/internal/cmd/config"
	"github.com/hashicorp/go-accessgrants/internal/event"
	"github.com/hashicorp/go-accessgrants/s3control"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

const (
	// CommandSuccess is the error code for when a command runs successfully.
	CommandSuccess int = iota
	// CommandApiError is the error code for when a command fails while
	// talking to the backing service.
	CommandApiError
	// CommandCliError is the error code for when a command fails for an
	// internal reason.
	CommandCliError
	// CommandUserError is the error code for when a command fails due to bad
	// user input.
	CommandUserError
)

type Command struct {
	Context    context.Context
	UI         cli.Ui
	ShutdownCh chan struct{}

	flags     *FlagSets
	flagsOnce sync.Once

	FlagConfig    string
	FlagAccountId string
	FlagRegion    string
	FlagLogLevel  string
	FlagLogFormat string

	flagFormat string

	eventerSerializationLock *sync.Mutex
}

// NewCommand returns a new instance of a base.Command type. The command's
// context is canceled on the first SIGINT or SIGTERM the process receives.
func NewCommand(ui cli.Ui) *Command {
	ctx, cancel := context.WithCancel(context.Background())
	ret := &Command{
		UI:                       ui,
		ShutdownCh:               MakeShutdownCh(),
		Context:                  ctx,
		eventerSerializationLock: new(sync.Mutex),
	}

	go func() {
		<-ret.ShutdownCh
		cancel()
	}()

	return ret
}

// MakeShutdownCh returns a channel that can be used for shutdown
// notifications for commands. This channel will send a message for every
// SIGINT or SIGTERM received.
func MakeShutdownCh() chan struct{} {
	resultCh := make(chan struct{})

	shutdownCh := make(chan os.Signal, 4)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdownCh
		close(resultCh)
	}()
	return resultCh
}

// Config builds the command's effective configuration: the configuration
// file when one was given, then environment overrides, then any flag values
// set on the command.
func (c *Command) Config() (*config.Config, error) {
	cfg, err := config.Load(c.FlagConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if c.FlagAccountId != "" {
		cfg.AccountId = c.FlagAccountId
	}
	if c.FlagRegion != "" {
		cfg.Region = c.FlagRegion
	}
	return cfg, nil
}

// Logger builds the hclog logger described by the command's log flags,
// falling back to the given config's log_level and log_format values.
func (c *Command) Logger(cfg *config.Config) (hclog.Logger, error) {
	level, format, err := ProcessLogLevelAndFormat(c.FlagLogLevel, c.FlagLogFormat, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "accessgrants",
		Level:      level,
		Output:     os.Stderr,
		JSONFormat: format == logging.JSONFormat,
	}), nil
}

// SetupEventing initializes the process eventer from the config's events
// stanza, defaulting to a stderr sink when the stanza is absent. Commands
// call this once, before using packages that emit events.
func (c *Command) SetupEventing(cfg *config.Config) error {
	logger, err := c.Logger(cfg)
	if err != nil {
		return fmt.Errorf("error building logger: %w", err)
	}
	eventerConfig := cfg.Eventing
	if eventerConfig == nil {
		eventerConfig = event.DefaultEventerConfig()
	}
	if err := event.InitSysEventer(logger, c.eventerSerializationLock, "accessgrants", event.WithEventerConfig(eventerConfig)); err != nil {
		return fmt.Errorf("error initializing eventing: %w", err)
	}
	return nil
}

// Store assembles a credential store over the configured account's Access
// Grants instance. The caller owns the returned store and is responsible for
// destroying it.
func (c *Command) Store(ctx context.Context, cfg *config.Config) (*credential.Store, error) {
	if cfg.AccountId == "" {
		return nil, fmt.Errorf("missing account id: set account_id in the configuration file, the %s environment variable, or -account-id", EnvAccessGrantsAccountId)
	}

	clientOpts := make([]s3control.Option, 0, 3)
	if cfg.Region != "" {
		clientOpts = append(clientOpts, s3control.WithRegion(ctx, cfg.Region))
	}
	if cfg.CredentialsDuration > 0 {
		clientOpts = append(clientOpts, s3control.WithCredentialsDuration(ctx, cfg.CredentialsDuration))
	}
	if cfg.MaxResults > 0 {
		clientOpts = append(clientOpts, s3control.WithMaxResults(ctx, cfg.MaxResults))
	}
	client, err := s3control.New(ctx, cfg.AccountId, clientOpts...)
	if err != nil {
		return nil, err
	}

	storeOpts := make([]credential.Option, 0, 1)
	if cfg.ExpiryMargin > 0 {
		storeOpts = append(storeOpts, credential.WithExpiryMargin(ctx, cfg.ExpiryMargin))
	}
	return credential.NewStore(ctx, client, client, storeOpts...)
}

type FlagSetBit uint

const (
	FlagSetNone FlagSetBit = 1 << iota
	FlagSetClient
	FlagSetOutputFormat
)

// FlagSet creates the flags for this command. The result is cached on the
// command to save performance on future calls.
func (c *Command) FlagSet(bit FlagSetBit) *FlagSets {
	c.flagsOnce.Do(func() {
		set := NewFlagSets(c.UI)

		if bit&FlagSetClient != 0 {
			f := set.NewFlagSet("Client Options")

			f.StringVar(&StringVar{
				Name:       FlagNameConfig,
				Target:     &c.FlagConfig,
				EnvVar:     EnvAccessGrantsConfig,
				Completion: complete.PredictFiles("*.hcl"),
				Usage:      "Path to an HCL configuration file.",
			})

			f.StringVar(&StringVar{
				Name:       FlagNameAccountId,
				Target:     &c.FlagAccountId,
				EnvVar:     EnvAccessGrantsAccountId,
				Completion: complete.PredictAnything,
				Usage:      "Id of the account that owns the Access Grants instance.",
			})

			f.StringVar(&StringVar{
				Name:       FlagNameRegion,
				Target:     &c.FlagRegion,
				EnvVar:     EnvAccessGrantsRegion,
				Completion: complete.PredictAnything,
				Usage:      "Region hosting the Access Grants instance. If not specified, the region is discovered from the environment.",
			})

			f.StringVar(&StringVar{
				Name:       "log-level",
				Target:     &c.FlagLogLevel,
				EnvVar:     "ACCESSGRANTS_LOG_LEVEL",
				Completion: complete.PredictSet("trace", "debug", "info", "warn", "err"),
				Usage: "Log verbosity level, mostly as a fallback for events. Supported values " +
					`(in order of more detail to less) are "trace", "debug", "info", "warn", and "err".`,
			})

			f.StringVar(&StringVar{
				Name:       "log-format",
				Target:     &c.FlagLogFormat,
				EnvVar:     "ACCESSGRANTS_LOG_FORMAT",
				Completion: complete.PredictSet("standard", "json"),
				Usage:      `Log format, mostly as a fallback for events. Supported values are "standard" and "json".`,
			})
		}

		if bit&FlagSetOutputFormat != 0 {
			f := set.NewFlagSet("Output Options")

			f.StringVar(&StringVar{
				Name:       "format",
				Target:     &c.flagFormat,
				Default:    "table",
				EnvVar:     EnvAccessGrantsCLIFormat,
				Completion: complete.PredictSet("table", "json"),
				Usage:      `Print the output in the given format. Valid formats are "table" or "json".`,
			})
		}

		c.flags = set
	})

	return c.flags
}
