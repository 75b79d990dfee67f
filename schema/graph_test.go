package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/autoload/internal/testmodels"
	"github.com/pthm/autoload/schema"
)

func TestBlogGraph(t *testing.T) {
	g := testmodels.Blog()

	user, ok := g.Entity("User")
	require.True(t, ok)
	assert.Equal(t, "users", user.Table)
	assert.Equal(t, []string{"id"}, user.PrimaryKey())

	byTable, ok := g.EntityByTable("posts")
	require.True(t, ok)
	assert.Equal(t, "Post", byTable.Name)

	keys := make([]string, 0)
	for _, r := range g.Edges("User") {
		keys = append(keys, r.Key)
		assert.Equal(t, "User", r.Source, "source is set from the declaring entity")
	}
	assert.Equal(t, []string{"posts", "roles", "user_roles", "sent_messages", "received_messages", "owned_messages", "profile"}, keys)

	postTag := testmodels.MustEntity(g, "PostTag")
	assert.Equal(t, []string{"post_id", "tag_id"}, postTag.PrimaryKey())
}

func TestNewGraph_Invalid(t *testing.T) {
	col := func(name string, pk bool) schema.Column { return schema.Column{Name: name, PrimaryKey: pk} }

	tests := []struct {
		name     string
		entities []*schema.Entity
		sentinel error
	}{
		{
			name: "duplicate entity",
			entities: []*schema.Entity{
				{Name: "A", Table: "a", Columns: []schema.Column{col("id", true)}},
				{Name: "A", Table: "a2", Columns: []schema.Column{col("id", true)}},
			},
			sentinel: schema.ErrInvalidSchema,
		},
		{
			name: "duplicate relationship key",
			entities: []*schema.Entity{
				{Name: "A", Table: "a", Columns: []schema.Column{col("id", true)}, Relationships: []*schema.Relationship{
					{Key: "self", Target: "A", On: []schema.ColumnPair{{Local: "id", Remote: "id"}}},
					{Key: "self", Target: "A", On: []schema.ColumnPair{{Local: "id", Remote: "id"}}},
				}},
			},
			sentinel: schema.ErrDuplicateRelationship,
		},
		{
			name: "unknown target",
			entities: []*schema.Entity{
				{Name: "A", Table: "a", Columns: []schema.Column{col("id", true)}, Relationships: []*schema.Relationship{
					{Key: "bs", Target: "B", Many: true, On: []schema.ColumnPair{{Local: "id", Remote: "a_id"}}},
				}},
			},
			sentinel: schema.ErrUnknownTarget,
		},
		{
			name: "unknown remote column",
			entities: []*schema.Entity{
				{Name: "A", Table: "a", Columns: []schema.Column{col("id", true)}, Relationships: []*schema.Relationship{
					{Key: "bs", Target: "B", Many: true, On: []schema.ColumnPair{{Local: "id", Remote: "a_id"}}},
				}},
				{Name: "B", Table: "b", Columns: []schema.Column{col("id", true)}},
			},
			sentinel: schema.ErrUnknownColumn,
		},
		{
			name: "association without join columns",
			entities: []*schema.Entity{
				{Name: "A", Table: "a", Columns: []schema.Column{col("id", true)}, Relationships: []*schema.Relationship{
					{Key: "bs", Target: "B", Many: true, On: []schema.ColumnPair{{Local: "id", Remote: "a_id"}}, Association: &schema.Association{Table: "a_b"}},
				}},
				{Name: "B", Table: "b", Columns: []schema.Column{col("id", true)}},
			},
			sentinel: schema.ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.NewGraph(tt.entities...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, schema.IsInvalidSchemaErr(err))
		})
	}
}

func TestGraph_Reset(t *testing.T) {
	g := testmodels.Blog()
	fresh := g.Reset()

	require.NotSame(t, g, fresh)
	user, _ := g.Entity("User")
	freshUser, ok := fresh.Entity("User")
	require.True(t, ok)
	assert.Same(t, user, freshUser)
	assert.Len(t, fresh.Entities(), len(g.Entities()))
}

func TestParse_RoundTrip(t *testing.T) {
	g := testmodels.Blog()
	data, err := g.Marshal()
	require.NoError(t, err)

	again, err := schema.Parse(data)
	require.NoError(t, err)
	assert.Len(t, again.Entities(), len(g.Entities()))

	post, _ := again.Entity("Post")
	rel, ok := post.Relationship("attachments")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"attachable_type": "post"}, rel.Where)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := schema.Parse([]byte("entities:\n  - name: A\n    table: a\n    colums: []\n"))
	require.Error(t, err)
	assert.True(t, schema.IsInvalidSchemaErr(err))
}
