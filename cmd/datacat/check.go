// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datacat-dev/datacat/env"
	"github.com/datacat-dev/datacat/hooks"
)

var (
	checkCheckers         []string
	noEnvironmentCheckers bool
	checkOut              string
	checkVerbose          bool
)

func init() {
	checkCmd.Flags().StringArrayVar(&checkCheckers, "checker", nil,
		"Checker hook script (repeatable)")
	checkCmd.Flags().BoolVar(&noEnvironmentCheckers, "no-environment-checkers", false,
		"Skip checkers configured in "+env.CheckersVar)
	checkCmd.Flags().StringVar(&checkOut, "out", "", "Write the report to a file instead of stdout")
	checkCmd.Flags().BoolVar(&checkVerbose, "verbose", false, "Show per-checker detail for passing resources too")
}

var checkCmd = &cobra.Command{
	Use:   "check [collection]",
	Short: "Check a collection against its checkers",
	Long: `Run every checker against the collection and print a per-resource
report. The exit code is non-zero when there are no checkers to run,
when any resource goes unattempted, or when any checker reports a
problem.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rc, err := loadCollection(args)
		if err != nil {
			return err
		}

		checkers := make([]hooks.Checker, len(checkCheckers))
		for i, path := range checkCheckers {
			checkers[i] = hooks.CheckerPath(path)
		}
		var opts []hooks.CheckOption
		if !noEnvironmentCheckers {
			opts = append(opts, hooks.WithEnvironmentCheckers(&env.OSReader{}))
		}

		report, err := hooks.Check(rc, checkers, opts...)
		if errors.Is(err, hooks.ErrNoCheckers) {
			return fmt.Errorf("no checkers; use the --checker argument to specify a checker")
		}
		if err != nil {
			return err
		}

		out, closeOut, err := openOut(checkOut)
		if err != nil {
			return err
		}
		defer closeOut() //nolint:errcheck

		problematic, err := writeReport(out, report, rc.Len(), checkVerbose)
		if err != nil {
			return err
		}
		if len(problematic) > 0 {
			return fmt.Errorf("%d problematic resources", len(problematic))
		}
		return nil
	},
}

// writeReport streams the report in a human-readable layout and returns
// the names of the resources that failed or went unattempted.
func writeReport(out io.Writer, report *hooks.Report, total int, verbose bool) ([]string, error) {
	fmt.Fprintln(out, "Checkers:")
	for i, label := range report.Labels() {
		fmt.Fprintf(out, "\t[%d]\t%s\n", i, label)
	}

	var problematic []string
	index := 0
	for {
		row, ok, err := report.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		index++

		attempted, problems := 0, 0
		for _, result := range row.Results {
			if result.Attempted {
				attempted++
				if result.Problem != "" {
					problems++
				}
			}
		}

		var summary string
		switch {
		case attempted == 0:
			summary = "UNMATCHED"
		case problems == 0:
			summary = fmt.Sprintf("OK (%d checked)", attempted)
		default:
			summary = fmt.Sprintf("ERROR (%d error / %d checked)", problems, attempted)
		}
		fmt.Fprintf(out, "[%3d / %3d] %-30s %s\n", index, total, row.Resource.Name(), summary)

		if verbose || attempted == 0 || problems > 0 {
			for i, result := range row.Results {
				var message string
				switch {
				case !result.Attempted:
					message = "UNMATCHED"
				case result.Problem != "":
					message = result.Problem
				default:
					message = "OK"
				}
				if verbose || (result.Attempted && result.Problem != "") {
					fmt.Fprintf(out, "\t[%d]\t%s\n", i, message)
				}
			}
		}

		if attempted == 0 || problems > 0 {
			problematic = append(problematic, row.Resource.Name())
		}
	}

	fmt.Fprintln(out)
	if len(problematic) > 0 {
		fmt.Fprintf(out, "PROBLEMATIC RESOURCES: %s\n", strings.Join(problematic, " "))
	} else {
		fmt.Fprintln(out, "ALL RESOURCES OK")
	}
	return problematic, nil
}
