package schema

// FindSelfKey returns the column of e that references e's own primary key, or ""
// when there is none. Foreign keys declared on columns are checked first, then
// the join columns of self-referential relationships.
func FindSelfKey(e *Entity) string {
	pk := e.PK()
	if pk == "" {
		return ""
	}
	for _, c := range e.Columns {
		if c.References != nil && c.References.Table == e.Table && c.References.Column == pk {
			return c.Name
		}
	}
	for _, r := range e.Relationships {
		if !r.SelfReferential() || r.Association != nil {
			continue
		}
		for _, p := range r.On {
			switch {
			case p.Local == pk && p.Remote != pk:
				return p.Remote
			case p.Remote == pk && p.Local != pk:
				return p.Local
			}
		}
	}
	return ""
}
