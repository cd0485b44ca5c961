// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package credentials implements the credentials subcommands.
package credentials

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/cmd/base"
	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

var (
	_ cli.Command             = (*GetCommand)(nil)
	_ cli.CommandAutocomplete = (*GetCommand)(nil)
)

type GetCommand struct {
	*base.Command

	flagScope       string
	flagPermission  string
	flagDuration    time.Duration
	flagShowSecrets bool
}

func (c *GetCommand) Synopsis() string {
	return "Get credentials scoped to a location"
}

func (c *GetCommand) Help() string {
	helpText := `
Usage: accessgrants credentials get [options]

  Resolve the requested location against the account's access grants and get
  credentials scoped to the best matching grant:

      $ accessgrants credentials get -scope "s3://app-data/logs/2026/app.log" -permission READ

  Secret values are redacted unless -show-secrets is given.

` + c.Flags().Help()
	return strings.TrimSpace(helpText)
}

func (c *GetCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "scope",
		Target:     &c.flagScope,
		Completion: complete.PredictAnything,
		Usage:      `Location to get credentials for, as an s3 url. A trailing "/*" requests a prefix scope (s3://bucket/logs/*), otherwise the scope names a single object or bucket.`,
	})

	f.StringVar(&base.StringVar{
		Name:       "permission",
		Target:     &c.flagPermission,
		Default:    "READ",
		Completion: complete.PredictSet("READ", "WRITE", "READWRITE"),
		Usage:      `Level of access requested. One of "READ", "WRITE" or "READWRITE".`,
	})

	f.DurationVar(&base.DurationVar{
		Name:       "duration",
		Target:     &c.flagDuration,
		Completion: complete.PredictNothing,
		Usage:      "Session duration requested for the issued credentials. Overrides the credentials_duration config value.",
	})

	f.BoolVar(&base.BoolVar{
		Name:   "show-secrets",
		Target: &c.flagShowSecrets,
		Usage:  "Print the secret access key and session token instead of redacting them.",
	})

	return set
}

func (c *GetCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *GetCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *GetCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	if c.flagScope == "" {
		c.PrintCliError(fmt.Errorf("missing required flag -scope"))
		return base.CommandUserError
	}
	permission, err := grant.ParsePermission(c.Context, c.flagPermission)
	if err != nil {
		c.PrintCliError(fmt.Errorf("invalid -permission value %q", c.flagPermission))
		return base.CommandUserError
	}

	cfg, err := c.Config()
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}
	if c.flagDuration > 0 {
		cfg.CredentialsDuration = c.flagDuration
	}
	if err := c.SetupEventing(cfg); err != nil {
		c.PrintCliError(err)
		return base.CommandCliError
	}

	store, err := c.Store(c.Context, cfg)
	if err != nil {
		c.PrintCliError(err)
		return base.CommandCliError
	}
	defer func() {
		_ = store.Destroy(c.Context)
	}()

	provider, err := store.GetProvider(c.Context, c.flagScope, permission)
	if err != nil {
		c.PrintCliError(err)
		if errors.IsInvalidScopeError(err) {
			return base.CommandUserError
		}
		return base.CommandApiError
	}

	creds, err := provider.Credentials(c.Context)
	if err != nil {
		c.PrintCliError(err)
		return base.CommandApiError
	}

	matched := provider.Grant()
	secretAccessKey := creds.SecretAccessKey.String()
	sessionToken := creds.SessionToken.String()
	if c.flagShowSecrets {
		secretAccessKey = string(creds.SecretAccessKey)
		sessionToken = string(creds.SessionToken)
	}

	switch base.Format(c.UI) {
	case "json":
		item := struct {
			AccessKeyId     string `json:"access_key_id"`
			SecretAccessKey string `json:"secret_access_key"`
			SessionToken    string `json:"session_token"`
			Expiration      string `json:"expiration"`
			GrantScope      string `json:"grant_scope"`
			GrantPermission string `json:"grant_permission"`
		}{
			AccessKeyId:     creds.AccessKeyId,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
			Expiration:      creds.Expiration.Format(time.RFC3339),
			GrantScope:      matched.Scope.String(),
			GrantPermission: matched.Permission.String(),
		}
		output := struct {
			Item any `json:"item"`
		}{
			Item: item,
		}
		b, err := base.JsonFormatter{}.Format(output)
		if err != nil {
			c.PrintCliError(fmt.Errorf("Error formatting as JSON: %w", err))
			return base.CommandCliError
		}
		c.UI.Output(string(b))

	default:
		nonAttributeMap := map[string]any{
			"Access Key Id":     creds.AccessKeyId,
			"Secret Access Key": secretAccessKey,
			"Session Token":     sessionToken,
			"Expiration":        creds.Expiration.Format(time.RFC3339),
			"Grant Scope":       matched.Scope.String(),
			"Grant Permission":  matched.Permission.String(),
		}
		maxLength := base.MaxAttributesLength(nonAttributeMap, nil, nil)
		c.UI.Output(base.WrapForHelpText([]string{
			"",
			"Credentials:",
			base.WrapMap(2, maxLength+2, nonAttributeMap),
			"",
		}))
	}

	return base.CommandSuccess
}
