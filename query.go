package autoload

import (
	"log/slog"

	"github.com/pthm/autoload/internal/sqlgen"
	"github.com/pthm/autoload/pkg/sqldsl"
	"github.com/pthm/autoload/schema"
)

// Query is a built statement and its loader tree. It is immutable; every
// modifying method returns a new *Query sharing the loader tree.
type Query struct {
	graph *schema.Graph
	plan  *sqlgen.Plan
	args  []any
	log   *slog.Logger
}

func (q *Query) with(stmt sqldsl.SelectStmt) *Query {
	c := *q
	c.plan = q.plan.WithStmt(stmt)
	return &c
}

// Where ANDs predicates into the main statement's WHERE clause. Use
// sqldsl.Param placeholders together with WithArgs.
func (q *Query) Where(preds ...sqldsl.Expr) *Query {
	return q.with(q.plan.Stmt.AndWhere(preds...))
}

// Join adds an inner join to the main statement.
func (q *Query) Join(t sqldsl.TableExpr, on sqldsl.Expr) *Query {
	return q.with(q.plan.Stmt.Join(t, on))
}

// OrderBy appends ORDER BY terms to the main statement.
func (q *Query) OrderBy(terms ...sqldsl.OrderTerm) *Query {
	return q.with(q.plan.Stmt.OrderBy(terms...))
}

// Limit sets the LIMIT of the main statement. Separate-query loads that
// re-embed it see the same rows.
func (q *Query) Limit(n int) *Query {
	return q.with(q.plan.Stmt.WithLimit(n))
}

// Offset sets the OFFSET of the main statement.
func (q *Query) Offset(n int) *Query {
	return q.with(q.plan.Stmt.WithOffset(n))
}

// WithArgs replaces the bind arguments for $1, $2, ... placeholders.
func (q *Query) WithArgs(args ...any) *Query {
	c := *q
	c.args = append([]any(nil), args...)
	return &c
}

// SQL renders the main statement.
func (q *Query) SQL() string {
	return q.plan.Stmt.SQL()
}

// Args returns the bind arguments.
func (q *Query) Args() []any {
	return append([]any(nil), q.args...)
}

// Statement returns the main statement for further composition.
func (q *Query) Statement() sqldsl.SelectStmt {
	return q.plan.Stmt
}

// Root returns the root entity.
func (q *Query) Root() *schema.Entity {
	return q.plan.Root
}

// Loads returns the top-level loads. The tree must not be modified.
func (q *Query) Loads() []*Load {
	return q.plan.Loads
}

// Warnings returns non-fatal notes produced while building, such as an
// unknown many-load strategy name.
func (q *Query) Warnings() []string {
	return append([]string(nil), q.plan.Warnings...)
}
