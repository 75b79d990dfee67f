package schema

import (
	"sort"

	"github.com/pthm/autoload/pkg/sqldsl"
)

// ColumnPair equates a column on the near side of a join with one on the far side.
type ColumnPair struct {
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// Association is the link table of a many-to-many edge. Its On pairs equate
// association columns (Local) with target columns (Remote).
type Association struct {
	Table string       `json:"table"`
	On    []ColumnPair `json:"join"`
}

// Relationship is a directed, named edge between two entities.
//
// For a direct edge On equates source columns with target columns. For an
// association edge On equates source columns with association columns and
// Association.On continues from the association to the target.
type Relationship struct {
	Key    string `json:"key"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	// Many is true when a source row relates to any number of target rows.
	Many        bool         `json:"many,omitempty"`
	On          []ColumnPair `json:"join"`
	Association *Association `json:"association,omitempty"`
	// Where holds constant discriminators on target columns, e.g. attachable_type: post.
	Where map[string]string `json:"where,omitempty"`
}

// SelfReferential reports whether the edge returns to its own entity.
func (r *Relationship) SelfReferential() bool {
	return r.Source == r.Target
}

// ManyToMany reports whether the edge goes through an association table.
func (r *Relationship) ManyToMany() bool {
	return r.Association != nil
}

// LocalColumns returns the source-side columns of the edge in pair order.
func (r *Relationship) LocalColumns() []string {
	cols := make([]string, len(r.On))
	for i, p := range r.On {
		cols[i] = p.Local
	}
	return cols
}

// RemoteColumns returns the far-side columns of the primary join: target columns
// for a direct edge, association columns otherwise.
func (r *Relationship) RemoteColumns() []string {
	cols := make([]string, len(r.On))
	for i, p := range r.On {
		cols[i] = p.Remote
	}
	return cols
}

// PrimaryJoin renders the source-to-remote join condition. For a direct edge the
// remote side is the target and the Where discriminators are included.
func (r *Relationship) PrimaryJoin(sourceAlias, remoteAlias string) sqldsl.Expr {
	preds := make([]sqldsl.Expr, 0, len(r.On)+len(r.Where))
	for _, p := range r.On {
		preds = append(preds, sqldsl.Eq{
			Left:  sqldsl.Col{Table: sourceAlias, Column: p.Local},
			Right: sqldsl.Col{Table: remoteAlias, Column: p.Remote},
		})
	}
	if r.Association == nil {
		preds = append(preds, r.discriminators(remoteAlias)...)
	}
	return collapse(preds)
}

// SecondaryJoin renders the association-to-target join condition of a
// many-to-many edge, including the Where discriminators. It returns nil for a
// direct edge.
func (r *Relationship) SecondaryJoin(assocAlias, targetAlias string) sqldsl.Expr {
	if r.Association == nil {
		return nil
	}
	preds := make([]sqldsl.Expr, 0, len(r.Association.On)+len(r.Where))
	for _, p := range r.Association.On {
		preds = append(preds, sqldsl.Eq{
			Left:  sqldsl.Col{Table: assocAlias, Column: p.Local},
			Right: sqldsl.Col{Table: targetAlias, Column: p.Remote},
		})
	}
	preds = append(preds, r.discriminators(targetAlias)...)
	return collapse(preds)
}

// TargetFilter renders the Where discriminators against targetAlias, or nil when
// the edge has none.
func (r *Relationship) TargetFilter(targetAlias string) sqldsl.Expr {
	preds := r.discriminators(targetAlias)
	if len(preds) == 0 {
		return nil
	}
	return collapse(preds)
}

func (r *Relationship) discriminators(targetAlias string) []sqldsl.Expr {
	if len(r.Where) == 0 {
		return nil
	}
	cols := make([]string, 0, len(r.Where))
	for c := range r.Where {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	preds := make([]sqldsl.Expr, len(cols))
	for i, c := range cols {
		preds[i] = sqldsl.Eq{Left: sqldsl.Col{Table: targetAlias, Column: c}, Right: sqldsl.Lit(r.Where[c])}
	}
	return preds
}

func collapse(preds []sqldsl.Expr) sqldsl.Expr {
	if len(preds) == 1 {
		return preds[0]
	}
	return sqldsl.And(preds...)
}
