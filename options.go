package autoload

import (
	"log/slog"

	"github.com/pthm/autoload/pkg/sqldsl"
)

// DefaultLimit caps to-many relationships when no limit option is given.
const DefaultLimit = 50

// Option configures an Autoloader.
type Option func(*Autoloader)

// WithLogger sets the logger for strategy warnings and executor tracing.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Autoloader) {
		a.log = l
	}
}

// WithCacheSize bounds the query cache and the path cache. Non-positive sizes
// use the package default.
func WithCacheSize(n int) Option {
	return func(a *Autoloader) {
		a.cacheSize = n
	}
}

// SelectOption configures a single Select.
type SelectOption func(*selectConfig)

type selectConfig struct {
	limit        *int
	conditions   Conditions
	selfKey      string
	orderBy      []string
	base         *sqldsl.SelectStmt
	distinct     bool
	manyLoad     ManyLoad
	manyLoadName string
	checkTables  bool
	alignment    bool
}

func defaultSelectConfig() selectConfig {
	limit := DefaultLimit
	return selectConfig{limit: &limit, alignment: true}
}

// WithLimit caps every to-many relationship to n rows per parent. Capped
// relationships are loaded through LATERAL sub-selects.
func WithLimit(n int) SelectOption {
	return func(c *selectConfig) {
		c.limit = &n
	}
}

// WithoutLimit loads to-many relationships in full through separate queries.
func WithoutLimit() SelectOption {
	return func(c *selectConfig) {
		c.limit = nil
	}
}

// WithConditions filters relationships by key. Keys that are not loaded are
// ignored.
func WithConditions(conds Conditions) SelectOption {
	return func(c *selectConfig) {
		c.conditions = conds
	}
}

// WithSelfKey names the foreign key column of the root's self-referential
// relationships (e.g. "parent_id").
func WithSelfKey(col string) SelectOption {
	return func(c *selectConfig) {
		c.selfKey = col
	}
}

// WithOrderBy sorts capped sub-selects by the given target columns, descending.
func WithOrderBy(cols ...string) SelectOption {
	return func(c *selectConfig) {
		c.orderBy = cols
	}
}

// WithBaseQuery starts from stmt instead of a bare SELECT over the root table.
// Its select list is replaced; FROM, joins, WHERE, CTEs and the rest are kept.
func WithBaseQuery(stmt sqldsl.SelectStmt) SelectOption {
	return func(c *selectConfig) {
		c.base = &stmt
	}
}

// WithDistinct renders SELECT DISTINCT.
func WithDistinct() SelectOption {
	return func(c *selectConfig) {
		c.distinct = true
	}
}

// WithManyLoad picks the prefetch strategy for uncapped to-many relationships.
func WithManyLoad(m ManyLoad) SelectOption {
	return func(c *selectConfig) {
		c.manyLoad = m
		c.manyLoadName = ""
	}
}

// WithManyLoadName is WithManyLoad by name. An unknown name falls back to
// SubqueryLoad and adds a warning to the query.
func WithManyLoadName(name string) SelectOption {
	return func(c *selectConfig) {
		c.manyLoadName = name
	}
}

// WithCheckTables renames a lateral whose name collides with a table already in
// the statement (useful with WithBaseQuery).
func WithCheckTables() SelectOption {
	return func(c *selectConfig) {
		c.checkTables = true
	}
}

// WithoutAlignment joins sibling capped relationships ON TRUE, producing their
// cross product per parent.
func WithoutAlignment() SelectOption {
	return func(c *selectConfig) {
		c.alignment = false
	}
}
