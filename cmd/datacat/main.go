// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

// datacat is a command line interface for dataset catalogs: select fields
// from a collection, dump it, check it against checkers, and inspect the
// datacat environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datacat-dev/datacat/logger"
)

var debugMode bool

type debugFlag struct{}

func (*debugFlag) IsDebug() bool { return debugMode }

func main() {
	rootCmd := &cobra.Command{
		Use:   "datacat",
		Short: "Query, transform, and check dataset catalogs",
		Long: `datacat manages collections of named, tagged, attributed resources.
Collections are JSON or YAML documents; expressions filter and project
them, and hook scripts transform or validate them.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.InitializeWithDebug(&debugFlag{})
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	addLoadFlags(rootCmd)

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(envCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
