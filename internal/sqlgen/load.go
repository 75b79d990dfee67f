package sqlgen

import (
	"github.com/pthm/autoload/pkg/sqldsl"
	"github.com/pthm/autoload/schema"
)

// Load is one planned relationship: where its rows come from and what hangs
// below it.
type Load struct {
	Rel    *schema.Relationship
	Target *schema.Entity
	// Path is the cumulative dotted path from the root ("posts.comments").
	Path     string
	Strategy Strategy
	// Alias qualifies the target columns in the statement the rows are read from.
	Alias string
	// Criteria is the condition WHERE of a separate-query load, already part of Stmt.
	Criteria sqldsl.Expr
	Parent   *Load
	Children []*Load
	// Extra marks a SelectIn registered under the first load of the parent
	// entity in addition to the load on the requested path.
	Extra bool

	// Home is the separate-query load whose statement carries this load's
	// columns; nil means the main statement. A separate load is its own home.
	Home *Load
	// Offset is the position of the first target column in the home select list.
	Offset int

	// Separate-query loads only.

	// Stmt selects the target columns (and the columns of eager descendants)
	// filtered by Criteria. The parent key predicate is added at execution time.
	Stmt sqldsl.SelectStmt
	// LinkCols are matched against the parent's local key values.
	LinkCols []sqldsl.Col
	// Eager lists the loads whose columns are joined into Stmt, in column order.
	Eager []*Load
}

// Depth is the number of edges from the root.
func (l *Load) Depth() int {
	d := 0
	for p := l.Parent; p != nil; p = p.Parent {
		d++
	}
	return d + 1
}

// Plan is the output of Build.
type Plan struct {
	Root      *schema.Entity
	RootAlias string
	// Stmt is the main statement: root columns first, then the columns of every
	// eager load in Eager order.
	Stmt     sqldsl.SelectStmt
	Loads    []*Load
	Eager    []*Load
	Warnings []string
}

// Walk visits every load depth-first in planning order.
func (p *Plan) Walk(fn func(*Load)) {
	var visit func([]*Load)
	visit = func(ls []*Load) {
		for _, l := range ls {
			fn(l)
			visit(l.Children)
		}
	}
	visit(p.Loads)
}

// Separate returns the separate-query loads depth-first.
func (p *Plan) Separate() []*Load {
	var out []*Load
	p.Walk(func(l *Load) {
		if l.Strategy.Separate() {
			out = append(out, l)
		}
	})
	return out
}

// WithStmt returns a shallow copy of the plan with the main statement replaced.
// Load trees are shared; they are never modified after Build.
func (p *Plan) WithStmt(stmt sqldsl.SelectStmt) *Plan {
	c := *p
	c.Stmt = stmt
	return &c
}
