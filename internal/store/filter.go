// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"strings"
)

// Filter assembles a parameterized WHERE clause from optional list filters.
// Values are always passed as bound arguments, never interpolated into the
// SQL text. The count query and the page query for a listing must be built
// from the same Filter so pagination totals match the returned rows.
type Filter struct {
	clauses []string
	args    []any
}

// NewFilter returns an empty filter, which renders as "WHERE 1=1".
func NewFilter() *Filter {
	return &Filter{}
}

// Equal adds a "col = ?" condition.
func (f *Filter) Equal(col string, val any) *Filter {
	f.clauses = append(f.clauses, col+" = ?")
	f.args = append(f.args, val)
	return f
}

// Search adds a case-insensitive substring match against the given columns,
// OR-joined, for a single term.
func (f *Filter) Search(term string, cols ...string) *Filter {
	if term == "" || len(cols) == 0 {
		return f
	}
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, "LOWER("+col+") LIKE ?")
		f.args = append(f.args, pattern)
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
	return f
}

// Where renders the full WHERE clause, including the WHERE keyword.
func (f *Filter) Where() string {
	var sb strings.Builder
	sb.WriteString("WHERE 1=1")
	for _, c := range f.clauses {
		sb.WriteString(" AND ")
		sb.WriteString(c)
	}
	return sb.String()
}

// Args returns the bound arguments in clause order.
func (f *Filter) Args() []any {
	return f.args
}

// ArgsWith returns the bound arguments followed by extra trailing values,
// typically LIMIT and OFFSET.
func (f *Filter) ArgsWith(extra ...any) []any {
	out := make([]any, 0, len(f.args)+len(extra))
	out = append(out, f.args...)
	out = append(out, extra...)
	return out
}

// Offset derives the SQL offset for a 1-based page number.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// setClause builds the SET fragment of a partial UPDATE from assignment
// pairs, always appending updated_at. Only fields present in the update
// payload reach this builder, which is what gives PUT its patch semantics.
type setClause struct {
	assigns []string
	args    []any
}

func (s *setClause) set(col string, val any) {
	s.assigns = append(s.assigns, col+" = ?")
	s.args = append(s.args, val)
}

func (s *setClause) empty() bool {
	return len(s.assigns) == 0
}

// build renders "SET a = ?, b = ?, updated_at = CURRENT_TIMESTAMP" and the
// argument list with id appended for the WHERE clause.
func (s *setClause) build(id int64) (string, []any) {
	assigns := append(s.assigns, "updated_at = CURRENT_TIMESTAMP")
	return "SET " + strings.Join(assigns, ", "), append(s.args, id)
}
