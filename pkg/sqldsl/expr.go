package sqldsl

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Param is a positional bind parameter ($1, $2, ...).
type Param int

// SQL renders the placeholder.
func (p Param) SQL() string {
	return fmt.Sprintf("$%d", int(p))
}

// Col represents a table column reference (e.g., posts.author_id).
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	column := c.Column
	if column != "*" {
		column = QuoteIdent(column)
	}
	if c.Table == "" {
		return column
	}
	return QuoteIdent(c.Table) + "." + column
}

// Lit represents a literal string value (auto-quoted with single quotes).
type Lit string

// SQL renders the literal with single quotes.
func (l Lit) SQL() string {
	// Escape single quotes by doubling them
	escaped := strings.ReplaceAll(string(l), "'", "''")
	return "'" + escaped + "'"
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Int represents an integer literal.
type Int int

// SQL renders the integer.
func (i Int) SQL() string {
	return fmt.Sprintf("%d", i)
}

// Bool represents a boolean literal.
type Bool bool

// SQL renders the boolean.
func (b Bool) SQL() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Null represents SQL NULL.
type Null struct{}

// SQL renders NULL.
func (Null) SQL() string {
	return "NULL"
}

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	return f.Name + "(" + joinSQL(f.Args, ", ") + ")"
}

// Alias wraps an expression with an alias (expr AS alias).
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string {
	return a.Expr.SQL() + " AS " + QuoteIdent(a.Name)
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}

// Tuple renders a row constructor: (a, b). A single element renders bare.
type Tuple []Expr

// SQL renders the tuple.
func (t Tuple) SQL() string {
	if len(t) == 1 {
		return t[0].SQL()
	}
	return "(" + joinSQL(t, ", ") + ")"
}

// SelectAs creates an aliased column expression (expr AS alias).
// Shorthand for Alias{Expr: expr, Name: alias}.
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}

// OutputName returns the name a select-list expression is visible under from an
// enclosing query: the alias for Alias, the column for Col, "" otherwise.
func OutputName(e Expr) string {
	switch v := e.(type) {
	case Alias:
		return v.Name
	case Col:
		return v.Column
	default:
		return ""
	}
}

// QuoteIdent quotes an identifier when it is not a plain lowercase name or
// collides with a reserved word.
func QuoteIdent(name string) string {
	if name == "" || isPlainIdent(name) {
		return name
	}
	return pq.QuoteIdentifier(name)
}

var reservedWords = map[string]bool{
	"all": true, "and": true, "as": true, "asc": true, "by": true, "case": true,
	"desc": true, "distinct": true, "end": true, "from": true, "group": true,
	"having": true, "in": true, "join": true, "lateral": true, "limit": true,
	"not": true, "null": true, "offset": true, "on": true, "or": true, "order": true,
	"select": true, "table": true, "then": true, "to": true, "union": true,
	"user": true, "when": true, "where": true, "with": true,
}

func isPlainIdent(name string) bool {
	if reservedWords[name] {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// joinSQL renders expressions joined by sep.
func joinSQL(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, sep)
}

// IndentLines adds the given indent prefix to each line of input.
func IndentLines(input, indent string) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
