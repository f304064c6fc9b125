// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/datacat-dev/datacat/catalog"
)

var (
	selectFields  []string
	selectOnError string
	selectFormat  string
	selectHeader  string
	selectOut     string
)

// argLabelPattern is the rule a field label must satisfy to be rendered
// as a command line argument name.
var argLabelPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

func init() {
	selectCmd.Flags().StringArrayVar(&selectFields, "field", nil,
		"Field to select, as an expression with an optional \"label: \" prefix (repeatable)")
	selectCmd.Flags().StringVar(&selectOnError, "on-error", "raise",
		"Evaluation failure policy: raise, skip, or none")
	selectCmd.Flags().StringVar(&selectFormat, "format", "csv",
		"Output format: csv or args")
	selectCmd.Flags().StringVar(&selectHeader, "header", "auto",
		"CSV header: on, off, or auto (on when selecting more than one field)")
	selectCmd.Flags().StringVar(&selectOut, "out", "", "Write output to a file instead of stdout")
}

var selectCmd = &cobra.Command{
	Use:   "select [collection]",
	Short: "Select fields from a collection",
	Long: `Evaluate expressions against every resource in a collection and print
the results as CSV rows or shell-quoted argument lists. With no --field,
list the attributes found in the collection and exit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := loadCollection(args)
		if err != nil {
			return err
		}

		if len(selectFields) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No fields selected. Use the --field argument to specify a field to select.")
			fmt.Fprintln(cmd.ErrOrStderr())
			fmt.Fprintf(cmd.ErrOrStderr(), "Attributes found in your collection:\n\t%s\n",
				strings.Join(attributeSummary(rc), ", "))
			return nil
		}

		onError, err := catalog.ParseOnError(selectOnError)
		if err != nil {
			return err
		}

		exprs := make([]catalog.Expr, len(selectFields))
		for i, field := range selectFields {
			exprs[i] = catalog.Q(field)
			if selectFormat == "args" {
				if _, err := argLabel(exprs[i]); err != nil {
					return err
				}
			}
		}

		table, err := rc.Select(onError, exprs...)
		if err != nil {
			return err
		}

		out, closeOut, err := openOut(selectOut)
		if err != nil {
			return err
		}
		defer closeOut() //nolint:errcheck

		switch selectFormat {
		case "csv":
			return writeCSV(out, table, selectHeader)
		case "args":
			return writeArgs(out, exprs, table)
		default:
			return fmt.Errorf("unknown format: %s (want csv or args)", selectFormat)
		}
	},
}

// attributeSummary lists the collection's attribute names with name and
// tags first and the rest sorted.
func attributeSummary(rc *catalog.Collection) []string {
	var rest []string
	for _, name := range rc.Attributes() {
		if name != "name" && name != "tags" {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append([]string{"name", "tags"}, rest...)
}

// argLabel derives the argument name for a field in args format. An
// unlabeled complex expression is an error; underscores render as
// dashes.
func argLabel(e catalog.Expr) (string, error) {
	label := e.Label()
	if !argLabelPattern.MatchString(label) {
		return "", fmt.Errorf("specify an explicit label for complex field: %q", e.Source())
	}
	return strings.ReplaceAll(label, "_", "-"), nil
}

func writeCSV(out io.Writer, table *catalog.Table, header string) error {
	w := csv.NewWriter(out)
	if header == "on" || (header == "auto" && len(table.Labels) > 1) {
		row := append([]string(nil), table.Labels...)
		row[0] = "# " + row[0]
		if err := w.Write(row); err != nil {
			return err
		}
	}
	for _, row := range table.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = renderCell(v)
		}
		if err := w.Write(cells); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeArgs(out io.Writer, exprs []catalog.Expr, table *catalog.Table) error {
	labels := make([]string, len(exprs))
	for i, e := range exprs {
		label, err := argLabel(e)
		if err != nil {
			return err
		}
		labels[i] = label
	}
	for _, row := range table.Rows() {
		parts := make([]string, 0, 2*len(row))
		for i, v := range row {
			parts = append(parts, "--"+labels[i], renderCell(v))
		}
		if _, err := fmt.Fprintln(out, shellquote.Join(parts...)); err != nil {
			return err
		}
	}
	return nil
}

// renderCell formats an evaluation result for output: strings pass
// through, null is empty, string lists join with spaces, and anything
// structured falls back to JSON.
func renderCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, " ")
	case []any:
		parts := make([]string, len(t))
		for i, elem := range t {
			s, ok := elem.(string)
			if !ok {
				return renderJSON(v)
			}
			parts[i] = s
		}
		return strings.Join(parts, " ")
	default:
		return renderJSON(v)
	}
}

func renderJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
