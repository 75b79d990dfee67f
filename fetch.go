package autoload

import (
	"context"

	"github.com/pthm/autoload/internal/hydrate"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier = hydrate.Querier

// Record is a hydrated entity row with its loaded relationships.
type Record = hydrate.Record

// Result holds the root records of a fetch.
type Result = hydrate.Result

// Fetch runs q and every separate-query load it needs, and returns the root
// records with their relationships populated.
func Fetch(ctx context.Context, db Querier, q *Query) (*Result, error) {
	return hydrate.Fetch(ctx, db, q.plan, q.args, hydrate.Options{Logger: q.log})
}

// UniqueScalars returns the distinct root records of res in first-seen order.
func UniqueScalars(res *Result) []*Record {
	return hydrate.UniqueScalars(res)
}
