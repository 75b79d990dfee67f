// Command autoload inspects the queries the autoload package builds.
//
// The CLI supports:
//   - sql: print the main statement and every separate-query statement
//   - explain: print the loader tree and, with a database, the PostgreSQL plan
//   - fetch: run a query and print the hydrated records as JSON or YAML
//   - validate: check one or more schema files
//   - doctor: compare the schema with a live database
//   - config: show the effective configuration
//   - version: print build information
//
// Usage:
//
//	autoload [flags] <command>
package main

func main() {
	Execute()
}
