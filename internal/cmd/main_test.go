// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SetupEnv(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		envFormat  string
		wantArgs   []string
		wantFormat string
	}{
		{
			name:       "default",
			args:       []string{"grants", "list"},
			wantArgs:   []string{"grants", "list"},
			wantFormat: "table",
		},
		{
			name:       "version-shorthand",
			args:       []string{"-v"},
			wantArgs:   []string{"version"},
			wantFormat: "table",
		},
		{
			name:       "version-longhand",
			args:       []string{"-version"},
			wantArgs:   []string{"version"},
			wantFormat: "table",
		},
		{
			name:       "format-with-equals",
			args:       []string{"grants", "list", "-format=JSON"},
			wantArgs:   []string{"grants", "list", "-format=JSON"},
			wantFormat: "json",
		},
		{
			name:       "format-separate-arg",
			args:       []string{"grants", "list", "-format", "json"},
			wantArgs:   []string{"grants", "list", "-format", "json"},
			wantFormat: "json",
		},
		{
			name:       "format-from-env",
			args:       []string{"grants", "list"},
			envFormat:  "json",
			wantArgs:   []string{"grants", "list"},
			wantFormat: "json",
		},
		{
			name:       "flag-wins-over-env",
			args:       []string{"grants", "list", "-format=table"},
			envFormat:  "json",
			wantArgs:   []string{"grants", "list", "-format=table"},
			wantFormat: "table",
		},
		{
			name:       "args-after-terminator-ignored",
			args:       []string{"credentials", "get", "--", "-format=json"},
			wantArgs:   []string{"credentials", "get", "--", "-format=json"},
			wantFormat: "table",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			t.Setenv("ACCESSGRANTS_CLI_FORMAT", tt.envFormat)
			args, format := setupEnv(tt.args)
			assert.Equal(tt.wantArgs, args)
			assert.Equal(tt.wantFormat, format)
		})
	}
}
