// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package base

const (
	// FlagNameConfig is the flag used in the base command to read in a
	// configuration file.
	FlagNameConfig = "config"
	// FlagNameAccountId is the flag used in the base command to read in the
	// id of the account owning the Access Grants instance.
	FlagNameAccountId = "account-id"
	// FlagNameRegion is the flag used in the base command to read in the
	// region hosting the Access Grants instance.
	FlagNameRegion = "region"
)

const (
	EnvAccessGrantsConfig     = `ACCESSGRANTS_CONFIG`
	EnvAccessGrantsAccountId  = `ACCESSGRANTS_ACCOUNT_ID`
	EnvAccessGrantsRegion     = `ACCESSGRANTS_REGION`
	EnvAccessGrantsCLINoColor = `ACCESSGRANTS_CLI_NO_COLOR`
	EnvAccessGrantsCLIFormat  = `ACCESSGRANTS_CLI_FORMAT`
)
