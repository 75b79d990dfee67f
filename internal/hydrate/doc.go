// Package hydrate executes a built plan through database/sql and turns the rows
// into an identity-mapped graph of records. Columns of eager loads are read
// positionally from the statement they were joined into; separate-query loads
// run afterwards, parents before children, and are matched back to their
// parents by key.
package hydrate
