package autoload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pthm/autoload/pkg/sqldsl"
)

// Laterals returns the LATERAL sub-selects joined into the main statement by
// alias. It is empty for an uncapped query.
func Laterals(q *Query) map[string]sqldsl.SelectStmt {
	out := make(map[string]sqldsl.SelectStmt)
	for _, j := range q.plan.Stmt.Joins {
		if sq, ok := j.TableExpr.(sqldsl.Subquery); ok && sq.Lateral {
			out[sq.Alias] = sq.Query
		}
	}
	return out
}

// ResolveCol turns "alias.column" into a column handle usable in Where and
// OrderBy. The alias may name a lateral or a table of the main statement.
func ResolveCol(q *Query, ref string) (sqldsl.Col, error) {
	alias, column, ok := strings.Cut(ref, ".")
	if !ok || alias == "" || column == "" {
		return sqldsl.Col{}, fmt.Errorf("%w, got %q", ErrBadColumnRef, ref)
	}

	cols := visibleColumns(q)
	have, ok := cols[alias]
	if !ok {
		names := make([]string, 0, len(cols))
		for n := range cols {
			names = append(names, n)
		}
		sort.Strings(names)
		return sqldsl.Col{}, fmt.Errorf("%w: alias '%s' not found in query. Available: %s",
			ErrAliasNotFound, alias, strings.Join(names, ", "))
	}
	for _, c := range have {
		if c == column {
			return sqldsl.Col{Table: alias, Column: column}, nil
		}
	}
	return sqldsl.Col{}, fmt.Errorf("%w: column '%s' not found in alias '%s'. Available: %s",
		ErrColumnNotFound, column, alias, strings.Join(have, ", "))
}

// visibleColumns maps every alias in the main statement's FROM clause to the
// columns it exposes.
func visibleColumns(q *Query) map[string][]string {
	out := make(map[string][]string)
	add := func(t sqldsl.TableExpr) {
		switch v := t.(type) {
		case sqldsl.TableRef:
			if e, ok := q.graph.EntityByTable(v.Name); ok {
				out[v.Visible()] = e.ColumnNames()
			}
		case sqldsl.Subquery:
			out[v.Alias] = v.OutputColumns()
		}
	}
	stmt := q.plan.Stmt
	if stmt.FromExpr != nil {
		add(stmt.FromExpr)
	}
	for _, j := range stmt.Joins {
		add(j.TableExpr)
	}
	return out
}

// Describe renders the loader tree, one load per line, indented by depth:
//
//	posts  contains_eager  posts
//	  comments  contains_eager  comments
func Describe(q *Query) string {
	var sb strings.Builder
	var visit func(ls []*Load, depth int)
	visit = func(ls []*Load, depth int) {
		for _, l := range ls {
			extra := ""
			if l.Extra {
				extra = "  (extra)"
			}
			fmt.Fprintf(&sb, "%s%s  %s  %s%s\n", strings.Repeat("  ", depth), l.Rel.Key, l.Strategy, l.Alias, extra)
			visit(l.Children, depth+1)
		}
	}
	visit(q.plan.Loads, 0)
	return sb.String()
}
