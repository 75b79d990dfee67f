package sqldsl

import (
	"reflect"
	"testing"
)

func TestTableNames(t *testing.T) {
	lateral := Subquery{Query: Select().From(TableRef{Name: "posts"}), Alias: "posts", Lateral: true}
	tests := []struct {
		name string
		stmt SelectStmt
		want []string
	}{
		{
			name: "single table",
			stmt: Select().From(TableRef{Name: "users"}),
			want: []string{"users"},
		},
		{
			name: "aliased table reports both",
			stmt: Select().From(TableAs("categories", "categories_children")),
			want: []string{"categories", "categories_children"},
		},
		{
			name: "joins and laterals",
			stmt: Select().From(TableRef{Name: "users"}).
				LeftJoin(lateral, nil).
				LeftJoin(TableAs("users", "users_author"), nil),
			want: []string{"users", "posts", "users_author"},
		},
		{
			name: "no FROM",
			stmt: Select(Int(1)),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TableNames(tt.stmt); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TableNames() = %v, want %v", got, tt.want)
			}
		})
	}
}
