// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cmd

import (
	"github.com/hashicorp/go-accessgrants/internal/cmd/base"
	"github.com/hashicorp/go-accessgrants/internal/cmd/commands/credentials"
	"github.com/hashicorp/go-accessgrants/internal/cmd/commands/grants"
	"github.com/hashicorp/go-accessgrants/internal/cmd/commands/version"

	"github.com/mitchellh/cli"
)

// Commands is the mapping of all the available commands.
var Commands map[string]cli.CommandFactory

func initCommands(ui cli.Ui, runOpts *RunOptions) {
	getBaseCommand := func() *base.Command {
		return base.NewCommand(ui)
	}

	Commands = map[string]cli.CommandFactory{
		"grants list": func() (cli.Command, error) {
			return &grants.ListCommand{
				Command: getBaseCommand(),
			}, nil
		},
		"credentials get": func() (cli.Command, error) {
			return &credentials.GetCommand{
				Command: getBaseCommand(),
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{
				Command: getBaseCommand(),
			}, nil
		},
	}
}
