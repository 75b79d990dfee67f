package sqlgen

import (
	"log/slog"

	"github.com/pthm/autoload/pkg/sqldsl"
)

// Options configure a single Build.
type Options struct {
	// Limit caps every to-many relationship per parent row. Nil means uncapped.
	Limit *int

	Conditions Conditions

	// SelfKey is the foreign key column of the root's self-referential edges.
	SelfKey string

	// OrderBy lists target columns capped sub-selects sort by (descending).
	// Empty means the target's primary key.
	OrderBy []string

	// Base replaces the default SELECT over the root table. Its select list is
	// replaced with the root columns; everything else is kept.
	Base *sqldsl.SelectStmt

	Distinct bool

	ManyLoad ManyLoad

	// ManyLoadName, when set, overrides ManyLoad by name. Unknown names fall back
	// to SubqueryLoad with a warning.
	ManyLoadName string

	// CheckTables renames a lateral whose name is already visible in the
	// statement.
	CheckTables bool

	// Alignment enables the shared row-number series for sibling laterals.
	Alignment bool

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
