package sqlgen

import "strings"

// Strategy is how a relationship's rows reach the caller.
type Strategy int

const (
	// ContainsEager reads the rows from an alias joined into the main statement.
	ContainsEager Strategy = iota

	// Joined reads the rows from a LEFT JOIN inside a separate-query statement.
	Joined

	// Subquery runs a separate statement keyed by an IN sub-select that re-embeds
	// the parent statement.
	Subquery

	// SelectIn runs a separate statement keyed by collected parent key values.
	SelectIn
)

// String returns the strategy name used in explain output.
func (s Strategy) String() string {
	switch s {
	case ContainsEager:
		return "contains_eager"
	case Joined:
		return "joined"
	case Subquery:
		return "subquery"
	case SelectIn:
		return "selectin"
	default:
		return "unknown"
	}
}

// Separate reports whether the strategy runs its own statement.
func (s Strategy) Separate() bool {
	return s == Subquery || s == SelectIn
}

// ManyLoad selects the whole-set prefetch strategy for uncapped to-many edges.
type ManyLoad int

const (
	// SubqueryLoad re-embeds the parent statement (default).
	SubqueryLoad ManyLoad = iota

	// SelectInLoad batches collected parent keys.
	SelectInLoad
)

// String returns the canonical external name.
func (m ManyLoad) String() string {
	if m == SelectInLoad {
		return "selectinload"
	}
	return "subqueryload"
}

// Strategy maps the prefetch choice onto a load strategy.
func (m ManyLoad) Strategy() Strategy {
	if m == SelectInLoad {
		return SelectIn
	}
	return Subquery
}

// ParseManyLoad maps an external strategy name to a ManyLoad. Unknown names
// return SubqueryLoad and false.
func ParseManyLoad(name string) (ManyLoad, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "subqueryload", "subquery_batch", "subquery":
		return SubqueryLoad, true
	case "selectinload", "selectin":
		return SelectInLoad, true
	default:
		return SubqueryLoad, false
	}
}
