package autoload

import (
	"github.com/pthm/autoload/internal/sqlgen"
	"github.com/pthm/autoload/pkg/sqldsl"
)

// Condition filters the rows of one relationship. It receives a SELECT over the
// relationship's target table and returns a modified copy. On a capped to-many
// relationship the whole statement is used, so a condition may also replace
// ORDER BY and LIMIT; elsewhere only its WHERE is kept.
type Condition = sqlgen.Condition

// Conditions is an immutable map from relationship key to Condition. Reuse one
// value across calls: query cache keys compare registrations, not behavior.
type Conditions = sqlgen.Conditions

// NewConditions freezes m into a Conditions value.
func NewConditions(m map[string]Condition) Conditions {
	return sqlgen.NewConditions(m)
}

// AddConditions returns a Condition that ANDs exprs into the WHERE clause.
//
//	autoload.NewConditions(map[string]autoload.Condition{
//	    "posts": autoload.AddConditions(sqldsl.Eq{Left: post.C("title"), Right: sqldsl.Lit("x")}),
//	})
func AddConditions(exprs ...sqldsl.Expr) Condition {
	return sqlgen.AddConditions(exprs...)
}

// ManyLoad selects how uncapped to-many relationships are prefetched.
type ManyLoad = sqlgen.ManyLoad

const (
	SubqueryLoad = sqlgen.SubqueryLoad
	SelectInLoad = sqlgen.SelectInLoad
)

// ParseManyLoad maps "subqueryload", "subquery_batch", "selectinload" and
// their short forms to a ManyLoad. Unknown names return SubqueryLoad and false.
func ParseManyLoad(name string) (ManyLoad, bool) {
	return sqlgen.ParseManyLoad(name)
}

// Strategy is how a loaded relationship's rows are fetched.
type Strategy = sqlgen.Strategy

const (
	ContainsEager = sqlgen.ContainsEager
	Joined        = sqlgen.Joined
	Subquery      = sqlgen.Subquery
	SelectIn      = sqlgen.SelectIn
)

// Load is one node of a query's loader tree.
type Load = sqlgen.Load
