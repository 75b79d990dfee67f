package sqldsl

import (
	"fmt"
	"slices"
	"strings"
)

// SQLer is an interface for types that can render SQL.
type SQLer interface {
	SQL() string
}

// Join types.
const (
	JoinInner = "INNER"
	JoinLeft  = "LEFT"
)

// JoinClause represents a SQL JOIN clause.
type JoinClause struct {
	Type      string // "INNER", "LEFT"
	TableExpr TableExpr
	On        Expr // nil renders ON TRUE
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	joinKeyword := "JOIN"
	if j.Type != "" && j.Type != JoinInner {
		joinKeyword = j.Type + " JOIN"
	}
	on := Expr(Bool(true))
	if j.On != nil {
		on = j.On
	}
	return joinKeyword + " " + j.TableExpr.TableSQL() + " ON " + on.SQL()
}

// SelectStmt represents a SELECT query. Builder methods have value receivers and
// return modified copies; the receiver is never mutated.
type SelectStmt struct {
	With        []CTEDef
	Recursive   bool
	Distinct    bool
	ColumnExprs []Expr
	FromExpr    TableExpr
	Joins       []JoinClause
	Where       Expr
	Order       []OrderTerm
	Limit       *int
	Offset      *int
}

// Select starts a statement with the given select list.
func Select(cols ...Expr) SelectStmt {
	return SelectStmt{ColumnExprs: cols}
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL() string {
	var clauses []string
	if len(s.With) > 0 {
		clauses = append(clauses, renderWith(s.Recursive, s.With))
	}
	head := "SELECT "
	if s.Distinct {
		head += "DISTINCT "
	}
	clauses = append(clauses, head+s.columnsSQL())
	if s.FromExpr != nil {
		clauses = append(clauses, "FROM "+s.FromExpr.TableSQL())
	}
	for _, j := range s.Joins {
		clauses = append(clauses, j.SQL())
	}
	if s.Where != nil {
		clauses = append(clauses, "WHERE "+s.Where.SQL())
	}
	if len(s.Order) > 0 {
		terms := make([]string, len(s.Order))
		for i, o := range s.Order {
			terms[i] = o.SQL()
		}
		clauses = append(clauses, "ORDER BY "+strings.Join(terms, ", "))
	}
	if s.Limit != nil {
		clauses = append(clauses, fmt.Sprintf("LIMIT %d", *s.Limit))
	}
	if s.Offset != nil {
		clauses = append(clauses, fmt.Sprintf("OFFSET %d", *s.Offset))
	}
	return strings.Join(clauses, "\n")
}

func (s SelectStmt) columnsSQL() string {
	if len(s.ColumnExprs) == 0 {
		return "1"
	}
	return joinSQL(s.ColumnExprs, ", ")
}

// clone copies every slice so that appends on the copy never alias the original.
func (s SelectStmt) clone() SelectStmt {
	s.With = slices.Clone(s.With)
	s.ColumnExprs = slices.Clone(s.ColumnExprs)
	s.Joins = slices.Clone(s.Joins)
	s.Order = slices.Clone(s.Order)
	return s
}

// From sets the FROM table expression.
func (s SelectStmt) From(t TableExpr) SelectStmt {
	c := s.clone()
	c.FromExpr = t
	return c
}

// Columns replaces the select list.
func (s SelectStmt) Columns(cols ...Expr) SelectStmt {
	c := s.clone()
	c.ColumnExprs = slices.Clone(cols)
	return c
}

// AddColumns appends to the select list.
func (s SelectStmt) AddColumns(cols ...Expr) SelectStmt {
	c := s.clone()
	c.ColumnExprs = append(c.ColumnExprs, cols...)
	return c
}

// AndWhere adds a predicate to the WHERE clause, ANDed with any existing one.
func (s SelectStmt) AndWhere(preds ...Expr) SelectStmt {
	c := s.clone()
	all := append([]Expr{c.Where}, preds...)
	and := And(all...)
	switch len(and.Exprs) {
	case 0:
		c.Where = nil
	case 1:
		c.Where = and.Exprs[0]
	default:
		c.Where = and
	}
	return c
}

// Join appends an inner join.
func (s SelectStmt) Join(t TableExpr, on Expr) SelectStmt {
	c := s.clone()
	c.Joins = append(c.Joins, JoinClause{Type: JoinInner, TableExpr: t, On: on})
	return c
}

// LeftJoin appends a left outer join.
func (s SelectStmt) LeftJoin(t TableExpr, on Expr) SelectStmt {
	c := s.clone()
	c.Joins = append(c.Joins, JoinClause{Type: JoinLeft, TableExpr: t, On: on})
	return c
}

// OrderBy appends ORDER BY terms.
func (s SelectStmt) OrderBy(terms ...OrderTerm) SelectStmt {
	c := s.clone()
	c.Order = append(c.Order, terms...)
	return c
}

// ClearOrderBy drops every ORDER BY term.
func (s SelectStmt) ClearOrderBy() SelectStmt {
	c := s.clone()
	c.Order = nil
	return c
}

// WithLimit sets the LIMIT. Any integer is rendered as given.
func (s SelectStmt) WithLimit(n int) SelectStmt {
	c := s.clone()
	c.Limit = &n
	return c
}

// WithoutLimit removes the LIMIT.
func (s SelectStmt) WithoutLimit() SelectStmt {
	c := s.clone()
	c.Limit = nil
	return c
}

// LimitValue reports the current LIMIT, if any.
func (s SelectStmt) LimitValue() (int, bool) {
	if s.Limit == nil {
		return 0, false
	}
	return *s.Limit, true
}

// WithOffset sets the OFFSET.
func (s SelectStmt) WithOffset(n int) SelectStmt {
	c := s.clone()
	c.Offset = &n
	return c
}

// WithCTE prepends a CTE definition. Recursive is sticky: once any merged CTE is
// recursive the clause renders WITH RECURSIVE.
func (s SelectStmt) WithCTE(def CTEDef, recursive bool) SelectStmt {
	c := s.clone()
	c.With = append(c.With, def)
	c.Recursive = c.Recursive || recursive
	return c
}

// HasCTE reports whether a CTE with the given name is already attached.
func (s SelectStmt) HasCTE(name string) bool {
	for _, d := range s.With {
		if d.Name == name {
			return true
		}
	}
	return false
}

// SetDistinct toggles SELECT DISTINCT.
func (s SelectStmt) SetDistinct(on bool) SelectStmt {
	c := s.clone()
	c.Distinct = on
	return c
}

// FromAlias returns the name the FROM table's columns are qualified with.
func (s SelectStmt) FromAlias() string {
	switch t := s.FromExpr.(type) {
	case TableRef:
		return t.Visible()
	case nil:
		return ""
	default:
		return t.TableAlias()
	}
}
