// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var dumpOut string

func init() {
	dumpCmd.Flags().StringVar(&dumpOut, "out", "", "Write output to a file instead of stdout")
}

var dumpCmd = &cobra.Command{
	Use:   "dump [collection]",
	Short: "Dump a collection as JSON",
	Long: `Print the collection as a JSON document, after applying any filters and
transforms. Resource and attribute order are preserved, so an unfiltered
dump round-trips losslessly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rc, err := loadCollection(args)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(rc, "", "  ")
		if err != nil {
			return err
		}

		out, closeOut, err := openOut(dumpOut)
		if err != nil {
			return err
		}
		defer closeOut() //nolint:errcheck

		_, err = fmt.Fprintln(out, string(data))
		return err
	},
}
