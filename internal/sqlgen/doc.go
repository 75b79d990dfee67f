// Package sqlgen plans eager-loading SELECT statements.
//
// # Overview
//
// Build takes a root entity and a list of relationship paths and produces a Plan:
// one main statement plus a tree of Loads describing where each relationship's
// rows come from.
//
// # Architecture
//
// Planning runs in four phases:
//
//  1. Resolution: every requested key is turned into an edge path (dotted paths
//     deepest-first, then plain keys); empty paths are dropped.
//  2. Reordering: a top-level to-many edge whose target table is the association
//     table of a top-level many-to-many edge is moved ahead of it, so the
//     many-to-many sub-select can correlate through the existing lateral.
//  3. Alignment: with a cap set, depths with two or more to-many paths get a
//     shared row-number series so sibling LATERAL sub-selects line up instead of
//     multiplying (see zip.go).
//  4. Folding: each path is walked edge by edge, reusing loads already planned
//     for a cumulative prefix and picking a strategy for new edges.
//
// # Strategies
//
//   - ContainsEager: the rows come from an alias joined into the main statement
//     (a LEFT JOIN or a LEFT JOIN LATERAL sub-select).
//   - Joined: the rows come from a LEFT JOIN inside a separate-query statement.
//   - Subquery: a separate statement keyed by an IN sub-select that re-embeds
//     the parent statement.
//   - SelectIn: a separate statement keyed by the parent key values collected
//     from the parent rows.
//
// Every Subquery and SelectIn load owns a statement context of its own; eager
// descendants of that load are joined into that statement.
//
// # Conditions
//
// Conditions are keyed by relationship key and written against the target's
// canonical table. Each is applied once per planned edge: to the inner select of
// a LATERAL (where it may override ORDER BY and LIMIT), as the WHERE criteria of
// a separate query, or inside the ON clause of a join. Root rows are never
// filtered by a condition.
package sqlgen
