package sqldsl

// Rewrite returns a copy of expr with every column reference passed through fn.
// Correlated sub-selects inside EXISTS and IN are rewritten too.
func Rewrite(expr Expr, fn func(Col) Col) Expr {
	if expr == nil {
		return nil
	}
	r := func(e Expr) Expr { return Rewrite(e, fn) }
	switch e := expr.(type) {
	case Col:
		return fn(e)
	case Eq:
		return Eq{Left: r(e.Left), Right: r(e.Right)}
	case Ne:
		return Ne{Left: r(e.Left), Right: r(e.Right)}
	case Lt:
		return Lt{Left: r(e.Left), Right: r(e.Right)}
	case Gt:
		return Gt{Left: r(e.Left), Right: r(e.Right)}
	case Lte:
		return Lte{Left: r(e.Left), Right: r(e.Right)}
	case Gte:
		return Gte{Left: r(e.Left), Right: r(e.Right)}
	case Add:
		return Add{Left: r(e.Left), Right: r(e.Right)}
	case Sub:
		return Sub{Left: r(e.Left), Right: r(e.Right)}
	case Like:
		return Like{Expr: r(e.Expr), Pattern: r(e.Pattern)}
	case In:
		return In{Expr: r(e.Expr), Values: rewriteAll(e.Values, fn)}
	case InQuery:
		q := e.Query
		if stmt, ok := q.(SelectStmt); ok {
			q = RewriteStmt(stmt, fn)
		}
		return InQuery{Left: rewriteAll(e.Left, fn), Query: q}
	case AndExpr:
		return AndExpr{Exprs: rewriteAll(e.Exprs, fn)}
	case OrExpr:
		return OrExpr{Exprs: rewriteAll(e.Exprs, fn)}
	case NotExpr:
		return NotExpr{Expr: r(e.Expr)}
	case Exists:
		q := e.Query
		if stmt, ok := q.(SelectStmt); ok {
			q = RewriteStmt(stmt, fn)
		}
		return Exists{Query: q}
	case IsNull:
		return IsNull{Expr: r(e.Expr)}
	case IsNotNull:
		return IsNotNull{Expr: r(e.Expr)}
	case Func:
		return Func{Name: e.Name, Args: rewriteAll(e.Args, fn)}
	case Alias:
		return Alias{Expr: r(e.Expr), Name: e.Name}
	case Paren:
		return Paren{Expr: r(e.Expr)}
	case Tuple:
		return Tuple(rewriteAll(e, fn))
	case CaseExpr:
		whens := make([]CaseWhen, len(e.Whens))
		for i, w := range e.Whens {
			whens[i] = CaseWhen{Cond: r(w.Cond), Result: r(w.Result)}
		}
		return CaseExpr{Whens: whens, Else: r(e.Else)}
	default:
		return expr
	}
}

func rewriteAll(exprs []Expr, fn func(Col) Col) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = Rewrite(e, fn)
	}
	return out
}

// RewriteStmt rewrites column references in the select list, join conditions,
// WHERE and ORDER BY of stmt. FROM sources are left alone.
func RewriteStmt(stmt SelectStmt, fn func(Col) Col) SelectStmt {
	c := stmt.clone()
	c.ColumnExprs = rewriteAll(c.ColumnExprs, fn)
	for i, j := range c.Joins {
		c.Joins[i].On = Rewrite(j.On, fn)
	}
	c.Where = Rewrite(c.Where, fn)
	for i, o := range c.Order {
		c.Order[i] = OrderTerm{Expr: Rewrite(o.Expr, fn), Desc: o.Desc}
	}
	return c
}

// Retarget points every column qualified with table from at table to.
func Retarget(expr Expr, from, to string) Expr {
	if from == to {
		return expr
	}
	return Rewrite(expr, func(c Col) Col {
		if c.Table == from {
			c.Table = to
		}
		return c
	})
}

// RetargetStmt is Retarget applied to a whole statement.
func RetargetStmt(stmt SelectStmt, from, to string) SelectStmt {
	if from == to {
		return stmt
	}
	return RewriteStmt(stmt, func(c Col) Col {
		if c.Table == from {
			c.Table = to
		}
		return c
	})
}
