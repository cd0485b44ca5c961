// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package grants implements the grants subcommands.
package grants

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/cmd/base"
	"github.com/hashicorp/go-bexpr"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
)

var (
	_ cli.Command             = (*ListCommand)(nil)
	_ cli.CommandAutocomplete = (*ListCommand)(nil)
)

// listedGrant is the shape grants are filtered and printed in.
type listedGrant struct {
	Scope          string `json:"scope" bexpr:"scope"`
	Kind           string `json:"kind" bexpr:"kind"`
	Bucket         string `json:"bucket" bexpr:"bucket"`
	Permission     string `json:"permission" bexpr:"permission"`
	ApplicationArn string `json:"application_arn,omitempty" bexpr:"application_arn"`
}

type ListCommand struct {
	*base.Command

	flagFilter     string
	flagPageToken  string
	flagMaxResults int
}

func (c *ListCommand) Synopsis() string {
	return "List the grants of an Access Grants instance"
}

func (c *ListCommand) Help() string {
	helpText := `
Usage: accessgrants grants list [options]

  List the grants registered on the configured account's Access Grants
  instance, following pagination until the listing is exhausted:

      $ accessgrants grants list -account-id 123456789012

  Grants may be filtered with a boolean expression evaluated against each
  grant:

      $ accessgrants grants list -filter 'bucket == "app-data" and permission != "READ"'

` + c.Flags().Help()
	return strings.TrimSpace(helpText)
}

func (c *ListCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetClient | base.FlagSetOutputFormat)
	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       "filter",
		Target:     &c.flagFilter,
		Completion: complete.PredictAnything,
		Usage: `A boolean expression evaluated against each grant; only matching grants ` +
			`are listed. Grants expose "scope", "kind", "bucket", "permission" and ` +
			`"application_arn".`,
	})

	f.StringVar(&base.StringVar{
		Name:       "page-token",
		Target:     &c.flagPageToken,
		Completion: complete.PredictAnything,
		Usage:      "Opaque token to resume the listing from, as returned by the service.",
	})

	f.IntVar(&base.IntVar{
		Name:       "max-results",
		Target:     &c.flagMaxResults,
		Completion: complete.PredictNothing,
		Usage:      "Cap on the page size used when listing grants. Overrides the max_results config value.",
	})

	return set
}

func (c *ListCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *ListCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *ListCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	var eval *bexpr.Evaluator
	if c.flagFilter != "" {
		var err error
		if eval, err = bexpr.CreateEvaluator(c.flagFilter); err != nil {
			c.PrintCliError(fmt.Errorf("error parsing filter expression: %w", err))
			return base.CommandUserError
		}
	}

	cfg, err := c.Config()
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}
	if c.flagMaxResults > 0 {
		cfg.MaxResults = c.flagMaxResults
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

	var items []*listedGrant
	pageToken := c.flagPageToken
	for {
		page, err := store.ListGrants(c.Context, pageToken)
		if err != nil {
			c.PrintCliError(err)
			return base.CommandApiError
		}
		for _, g := range page.Grants {
			item := newListedGrant(g)
			if eval != nil {
				match, err := eval.Evaluate(item)
				if err != nil {
					c.PrintCliError(fmt.Errorf("error evaluating filter against grant %s: %w", item.Scope, err))
					return base.CommandUserError
				}
				if !match {
					continue
				}
			}
			items = append(items, item)
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	switch base.Format(c.UI) {
	case "json":
		output := struct {
			Items []*listedGrant `json:"items"`
		}{
			Items: items,
		}
		b, err := base.JsonFormatter{}.Format(output)
		if err != nil {
			c.PrintCliError(fmt.Errorf("Error formatting as JSON: %w", err))
			return base.CommandCliError
		}
		c.UI.Output(string(b))

	default:
		c.UI.Output(printListTable(items))
	}

	return base.CommandSuccess
}

func newListedGrant(g grant.Grant) *listedGrant {
	return &listedGrant{
		Scope:          g.Scope.String(),
		Kind:           g.Scope.Kind.String(),
		Bucket:         g.Scope.Bucket,
		Permission:     g.Permission.String(),
		ApplicationArn: g.ApplicationArn,
	}
}

func printListTable(items []*listedGrant) string {
	if len(items) == 0 {
		return "No grants found"
	}
	output := []string{"", "Access Grants:"}
	for i, item := range items {
		if i > 0 {
			output = append(output, "")
		}
		output = append(output,
			fmt.Sprintf("  Scope:             %s", item.Scope),
			fmt.Sprintf("    Kind:            %s", item.Kind),
			fmt.Sprintf("    Permission:      %s", item.Permission),
		)
		if item.ApplicationArn != "" {
			output = append(output,
				fmt.Sprintf("    Application ARN: %s", item.ApplicationArn),
			)
		}
	}
	return base.WrapForHelpText(output)
}
