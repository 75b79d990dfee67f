package sqldsl

// TableNames lists the names visible in the FROM clause of stmt: table names and
// aliases of plain tables, and the aliases of derived tables and LATERAL
// sub-selects. Order follows the clause; duplicates are dropped.
func TableNames(stmt SelectStmt) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	visit := func(t TableExpr) {
		switch v := t.(type) {
		case TableRef:
			add(v.Name)
			add(v.Alias)
		case nil:
		default:
			add(v.TableAlias())
		}
	}
	visit(stmt.FromExpr)
	for _, j := range stmt.Joins {
		visit(j.TableExpr)
	}
	return names
}

// HasTableName reports whether name is visible in the FROM clause of stmt.
func HasTableName(stmt SelectStmt, name string) bool {
	for _, n := range TableNames(stmt) {
		if n == name {
			return true
		}
	}
	return false
}
