// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

// Table is the columnar result of Select: one column per query, keyed by
// label, with Labels preserving argument order. All columns have the same
// length (one entry per surviving row).
type Table struct {
	Labels  []string
	Columns map[string][]any
}

func newTable(labels []string) *Table {
	columns := make(map[string][]any, len(labels))
	for _, label := range labels {
		columns[label] = nil
	}
	return &Table{Labels: labels, Columns: columns}
}

func (t *Table) appendRow(row []any) {
	for i, label := range t.Labels {
		t.Columns[label] = append(t.Columns[label], row[i])
	}
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int {
	if len(t.Labels) == 0 {
		return 0
	}
	return len(t.Columns[t.Labels[0]])
}

// Column returns the values of the labeled column, or nil if no such
// column exists.
func (t *Table) Column(label string) []any {
	return t.Columns[label]
}

// Rows returns a row-major view of the table.
func (t *Table) Rows() [][]any {
	rows := make([][]any, t.RowCount())
	for i := range rows {
		row := make([]any, len(t.Labels))
		for j, label := range t.Labels {
			row[j] = t.Columns[label][i]
		}
		rows[i] = row
	}
	return rows
}
