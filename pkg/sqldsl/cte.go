package sqldsl

import "strings"

// CTEDef represents a single Common Table Expression definition.
type CTEDef struct {
	Name    string   // CTE name (e.g., "_sqla_rn_cte")
	Columns []string // Optional column names (e.g., ["_rn"])
	Query   SQLer    // The CTE query body
}

// SQL renders the CTE definition as "name [(columns)] AS (query)".
func (c CTEDef) SQL() string {
	var sb strings.Builder
	sb.WriteString(QuoteIdent(c.Name))
	if len(c.Columns) > 0 {
		cols := make([]string, len(c.Columns))
		for i, col := range c.Columns {
			cols[i] = QuoteIdent(col)
		}
		sb.WriteString("(")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" AS (\n")
	sb.WriteString(IndentLines(c.Query.SQL(), "    "))
	sb.WriteString("\n)")
	return sb.String()
}

// UnionAll joins queries with UNION ALL. It is the body shape of a recursive CTE:
// an anchor member followed by the recursive member.
type UnionAll []SQLer

// SQL renders the union.
func (u UnionAll) SQL() string {
	parts := make([]string, len(u))
	for i, q := range u {
		parts[i] = q.SQL()
	}
	return strings.Join(parts, "\nUNION ALL\n")
}

// WithCTE represents a WITH clause wrapping a final query.
// Supports both regular and recursive CTEs.
//
// Example:
//
//	WithCTE{
//	    Recursive: true,
//	    CTEs: []CTEDef{{Name: "_sqla_rn_cte", Columns: []string{"_rn"}, Query: counter}},
//	    Query: finalSelect,
//	}
//
// Renders:
//
//	WITH RECURSIVE _sqla_rn_cte(_rn) AS (
//	    <cte query>
//	)
//	<final query>
type WithCTE struct {
	Recursive bool     // If true, renders WITH RECURSIVE
	CTEs      []CTEDef // One or more CTE definitions
	Query     SQLer    // The final SELECT that uses the CTEs
}

// SQL renders the complete WITH clause and final query.
func (w WithCTE) SQL() string {
	if len(w.CTEs) == 0 {
		return w.Query.SQL()
	}
	return renderWith(w.Recursive, w.CTEs) + "\n" + w.Query.SQL()
}

func renderWith(recursive bool, ctes []CTEDef) string {
	var sb strings.Builder
	sb.WriteString("WITH ")
	if recursive {
		sb.WriteString("RECURSIVE ")
	}
	cteParts := make([]string, len(ctes))
	for i, cte := range ctes {
		cteParts[i] = cte.SQL()
	}
	sb.WriteString(strings.Join(cteParts, ",\n"))
	return sb.String()
}

// RecursiveCTE is a convenience constructor for a single recursive CTE.
func RecursiveCTE(name string, columns []string, cteQuery, finalQuery SQLer) WithCTE {
	return WithCTE{
		Recursive: true,
		CTEs:      []CTEDef{{Name: name, Columns: columns, Query: cteQuery}},
		Query:     finalQuery,
	}
}
