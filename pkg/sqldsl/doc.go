// Package sqldsl provides a typed DSL for building PostgreSQL SELECT statements.
//
// # Overview
//
// Queries are values. Every node renders itself through a SQL() method and every
// builder method on SelectStmt returns a modified copy, so a statement handed out by
// a cache can be composed further without affecting other holders.
//
// # Core Interfaces
//
//   - Expr: SQL expressions (columns, literals, operators, function calls)
//   - TableExpr: things that can appear in FROM or JOIN (tables, derived tables, LATERAL sub-selects)
//   - SQLer: complete statements (SELECT, WITH ...)
//
// # Expression Types
//
//	Col{Table: "posts", Column: "id"}    // posts.id
//	Lit("alice")                         // 'alice'
//	Int(42)                              // 42
//	Bool(true)                           // TRUE
//	Null{}                               // NULL
//	Param(1)                             // $1
//	Raw("now()")                         // escape hatch
//
// Operators:
//
//	Eq{Left: a, Right: b}                // a = b
//	And(e1, e2)                          // (e1 AND e2)
//	In{Expr: col, Values: []Expr{...}}   // col IN (...)
//	InQuery{Left: []Expr{col}, Query: q} // col IN (SELECT ...)
//
// # Statements
//
//	stmt := Select(Col{Table: "posts", Column: "id"}).
//	    From(TableRef{Name: "posts"}).
//	    AndWhere(Eq{Left: Col{Table: "posts", Column: "author_id"}, Right: Int(1)}).
//	    OrderBy(Desc(Col{Table: "posts", Column: "id"})).
//	    WithLimit(5)
//
// A LATERAL sub-select is a Subquery table expression with Lateral set:
//
//	LeftJoin(Subquery{Query: inner, Alias: "posts", Lateral: true}, Bool(true))
//
// # Rewriting
//
// Retarget rewrites column references from one table name to another, which is how
// predicates written against a canonical table are pointed at an alias or a LATERAL
// sub-select. TableNames lists every table and alias visible in a statement's FROM
// clause.
package sqldsl
