package sqldsl

// TableExpr is the interface for table expressions in FROM and JOIN clauses.
// Types that can be used as table sources implement this interface.
type TableExpr interface {
	// TableSQL returns the SQL for use in FROM/JOIN clauses.
	TableSQL() string
	// TableAlias returns the alias if any (empty string if none).
	TableAlias() string
}

// TableRef wraps a table name for use as a TableExpr.
type TableRef struct {
	Name  string
	Alias string
}

// TableSQL implements TableExpr.
func (t TableRef) TableSQL() string {
	if t.Alias != "" && t.Alias != t.Name {
		return QuoteIdent(t.Name) + " AS " + QuoteIdent(t.Alias)
	}
	return QuoteIdent(t.Name)
}

// TableAlias implements TableExpr.
func (t TableRef) TableAlias() string {
	return t.Alias
}

// Visible returns the name columns of this table are qualified with.
func (t TableRef) Visible() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// TableAs creates a table reference with an alias.
func TableAs(name, alias string) TableRef {
	return TableRef{Name: name, Alias: alias}
}

// Subquery is a derived table: (SELECT ...) AS alias. With Lateral set it may
// reference columns of tables that precede it in the FROM clause.
//
// Example: Subquery{Query: inner, Alias: "posts", Lateral: true}
// Renders: LATERAL (SELECT ...) AS posts
type Subquery struct {
	Query   SelectStmt
	Alias   string
	Lateral bool
}

// TableSQL implements TableExpr.
func (s Subquery) TableSQL() string {
	prefix := ""
	if s.Lateral {
		prefix = "LATERAL "
	}
	return prefix + "(\n" + IndentLines(s.Query.SQL(), "    ") + "\n) AS " + QuoteIdent(s.Alias)
}

// TableAlias implements TableExpr.
func (s Subquery) TableAlias() string {
	return s.Alias
}

// OutputColumns lists the column names the sub-select exposes to the outer query.
func (s Subquery) OutputColumns() []string {
	var names []string
	for _, e := range s.Query.ColumnExprs {
		if n := OutputName(e); n != "" {
			names = append(names, n)
		}
	}
	return names
}
