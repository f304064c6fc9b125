// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/datacat-dev/datacat/env"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the datacat environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		variables := []string{env.CollectionVar, env.TransformVar, env.CheckersVar}
		for _, variable := range variables {
			value, ok := os.LookupEnv(variable)
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", variable, shellquote.Join(value))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=<not set>\n", variable)
			}
		}
	},
}
