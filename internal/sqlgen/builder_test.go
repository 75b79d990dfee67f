package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/autoload/internal/resolve"
	"github.com/pthm/autoload/internal/testmodels"
	"github.com/pthm/autoload/pkg/sqldsl"
	"github.com/pthm/autoload/schema"
)

func limit(n int) *int { return &n }

func build(t *testing.T, root string, loads []string, opts Options) *Plan {
	t.Helper()
	g := testmodels.Blog()
	p, err := Build(resolve.New(g, 0), testmodels.MustEntity(g, root), loads, opts)
	require.NoError(t, err)
	return p
}

func buildErr(t *testing.T, root string, loads []string, opts Options) error {
	t.Helper()
	g := testmodels.Blog()
	_, err := Build(resolve.New(g, 0), testmodels.MustEntity(g, root), loads, opts)
	return err
}

func strategies(p *Plan) map[string]Strategy {
	out := make(map[string]Strategy)
	p.Walk(func(l *Load) { out[l.Path] = l.Strategy })
	return out
}

func TestBuild_CappedOneToMany(t *testing.T) {
	p := build(t, "User", []string{"posts"}, Options{Limit: limit(5), Alignment: true})

	want := strings.Join([]string{
		"SELECT users.id, users.name, users.active, posts.id, posts.title, posts.body, posts.author_id",
		"FROM users",
		"LEFT JOIN LATERAL (",
		"    SELECT posts.id, posts.title, posts.body, posts.author_id",
		"    FROM posts",
		"    WHERE users.id = posts.author_id",
		"    ORDER BY posts.id DESC",
		"    LIMIT 5",
		") AS posts ON TRUE",
	}, "\n")
	assert.Equal(t, want, p.Stmt.SQL())

	require.Len(t, p.Loads, 1)
	l := p.Loads[0]
	assert.Equal(t, ContainsEager, l.Strategy)
	assert.Equal(t, "posts", l.Alias)
	assert.Equal(t, 3, l.Offset)
	assert.Nil(t, l.Home)
	assert.Equal(t, []*Load{l}, p.Eager)
}

func TestBuild_Uncapped(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		strategy Strategy
		warning  bool
	}{
		{"default subquery", Options{}, Subquery, false},
		{"selectin", Options{ManyLoad: SelectInLoad}, SelectIn, false},
		{"by name", Options{ManyLoadName: "selectin"}, SelectIn, false},
		{"alias name", Options{ManyLoadName: "subquery_batch"}, Subquery, false},
		{"unknown name falls back", Options{ManyLoadName: "bogus"}, Subquery, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, "User", []string{"posts"}, tt.opts)

			assert.NotContains(t, p.Stmt.SQL(), "JOIN")
			require.Len(t, p.Loads, 1)
			l := p.Loads[0]
			assert.Equal(t, tt.strategy, l.Strategy)
			assert.Same(t, l, l.Home)
			assert.Equal(t, "SELECT posts.id, posts.title, posts.body, posts.author_id\nFROM posts", l.Stmt.SQL())
			assert.Equal(t, []sqldsl.Col{{Table: "posts", Column: "author_id"}}, l.LinkCols)

			if tt.warning {
				require.Len(t, p.Warnings, 1)
				assert.Contains(t, p.Warnings[0], "Unknown many_load strategy")
			} else {
				assert.Empty(t, p.Warnings)
			}
		})
	}
}

func TestBuild_UncappedManyToMany(t *testing.T) {
	p := build(t, "User", []string{"roles"}, Options{})
	l := p.Loads[0]
	assert.Equal(t, "SELECT roles.id, roles.name, roles.level\nFROM roles\nJOIN user_roles ON user_roles.role_id = roles.id", l.Stmt.SQL())
	assert.Equal(t, []sqldsl.Col{{Table: "user_roles", Column: "user_id"}}, l.LinkCols)
}

func TestBuild_UncappedCriteria(t *testing.T) {
	g := testmodels.Blog()
	post := testmodels.MustEntity(g, "Post")
	conds := NewConditions(map[string]Condition{
		"posts": AddConditions(sqldsl.Eq{Left: post.C("title"), Right: sqldsl.Lit("Alice Post 1")}),
	})
	p, err := Build(resolve.New(g, 0), testmodels.MustEntity(g, "User"), []string{"posts"}, Options{Conditions: conds})
	require.NoError(t, err)

	l := p.Loads[0]
	require.NotNil(t, l.Criteria)
	assert.Equal(t, "posts.title = 'Alice Post 1'", l.Criteria.SQL())
	assert.Contains(t, l.Stmt.SQL(), "WHERE posts.title = 'Alice Post 1'")
	assert.NotContains(t, p.Stmt.SQL(), "Alice", "root rows are never filtered")
}

func TestBuild_Alignment(t *testing.T) {
	p := build(t, "User", []string{"posts", "roles"}, Options{Limit: limit(5), Alignment: true})
	sql := p.Stmt.SQL()

	for _, want := range []string{
		"WITH RECURSIVE _sqla_rn_cte(_rn) AS (",
		"SELECT 1 AS _rn\n    UNION ALL\n    SELECT _sqla_rn_cte._rn + 1 AS _rn\n    FROM _sqla_rn_cte\n    WHERE _sqla_rn_cte._rn < 5",
		"FROM users\nLEFT JOIN (\n    SELECT _sqla_rn_cte._rn\n    FROM _sqla_rn_cte\n) AS _sqla_rn ON TRUE\nLEFT JOIN LATERAL (",
		"row_number() OVER () AS _sqla_rn",
		") AS posts ON posts._sqla_rn = _sqla_rn._rn",
		"FROM user_roles\n        JOIN roles ON user_roles.role_id = roles.id\n        WHERE users.id = user_roles.user_id",
		") AS roles ON roles._sqla_rn = _sqla_rn._rn",
	} {
		assert.Contains(t, sql, want)
	}
	assert.Equal(t, 1, strings.Count(sql, "AS _sqla_rn ON TRUE"), "series joined once")
}

func TestBuild_AlignmentDisabled(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no cap", Options{Alignment: true}},
		{"alignment off", Options{Limit: limit(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := build(t, "User", []string{"posts", "roles"}, tt.opts).Stmt.SQL()
			assert.NotContains(t, sql, "_sqla_rn")
		})
	}
}

func TestBuild_AlignmentDeeper(t *testing.T) {
	p := build(t, "User", []string{"posts.comments", "posts.tags"}, Options{Limit: limit(3), Alignment: true})
	sql := p.Stmt.SQL()

	seriesAt := strings.Index(sql, "AS _sqla_rn ON TRUE")
	postsAt := strings.Index(sql, ") AS posts ON TRUE")
	require.Positive(t, seriesAt)
	require.Positive(t, postsAt)
	assert.Less(t, postsAt, seriesAt, "series joins right before the first aligned lateral")
	assert.Contains(t, sql, ") AS comments ON comments._sqla_rn = _sqla_rn._rn")
	assert.Contains(t, sql, ") AS tags ON tags._sqla_rn = _sqla_rn._rn")
}

func TestBuild_AlignmentBoundFromCondition(t *testing.T) {
	g := testmodels.Blog()
	conds := NewConditions(map[string]Condition{
		"posts": func(s sqldsl.SelectStmt) sqldsl.SelectStmt { return s.WithLimit(10) },
	})
	p, err := Build(resolve.New(g, 0), testmodels.MustEntity(g, "User"), []string{"posts", "roles"},
		Options{Limit: limit(5), Alignment: true, Conditions: conds})
	require.NoError(t, err)

	sql := p.Stmt.SQL()
	assert.Contains(t, sql, "_sqla_rn_cte._rn < 10")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "LIMIT 5")
}

func TestBuild_ReorderAssociationLateral(t *testing.T) {
	p := build(t, "User", []string{"roles", "user_roles"}, Options{Limit: limit(5)})
	sql := p.Stmt.SQL()

	ur := strings.Index(sql, ") AS user_roles ON TRUE")
	roles := strings.Index(sql, ") AS roles ON TRUE")
	require.Positive(t, ur)
	require.Positive(t, roles)
	assert.Less(t, ur, roles)
	assert.Contains(t, sql, "WHERE user_roles.role_id = roles.id")
	assert.NotContains(t, sql, "JOIN roles ON")
	assert.Equal(t, "user_roles", p.Loads[0].Rel.Key)
}

func TestBuild_SeenTargetNaming(t *testing.T) {
	p := build(t, "User", []string{"sent_messages", "received_messages"}, Options{Limit: limit(2)})
	sql := p.Stmt.SQL()
	assert.Contains(t, sql, ") AS messages ON TRUE")
	assert.Contains(t, sql, ") AS messages_received_messages ON TRUE")
	assert.Contains(t, sql, "WHERE users.id = messages.to_user_id")
}

func TestBuild_CheckTables(t *testing.T) {
	base := sqldsl.Select().From(sqldsl.TableRef{Name: "users"}).
		Join(sqldsl.TableRef{Name: "posts"}, sqldsl.Eq{Left: sqldsl.Col{Table: "posts", Column: "author_id"}, Right: sqldsl.Col{Table: "users", Column: "id"}})

	p := build(t, "User", []string{"posts"}, Options{Limit: limit(2), CheckTables: true, Base: &base})
	assert.Contains(t, p.Stmt.SQL(), ") AS posts_alias ON TRUE")
	assert.Equal(t, "posts_alias", p.Loads[0].Alias)
}

func TestBuild_DottedReuse(t *testing.T) {
	p := build(t, "User", []string{"posts", "posts.comments"}, Options{Limit: limit(3)})

	require.Len(t, p.Loads, 1)
	posts := p.Loads[0]
	require.Len(t, posts.Children, 1)
	assert.Equal(t, "posts.comments", posts.Children[0].Path)
	assert.Equal(t, 1, strings.Count(p.Stmt.SQL(), ") AS posts ON TRUE"))
	assert.Contains(t, p.Stmt.SQL(), "WHERE posts.id = comments.post_id")
}

func TestBuild_UnknownKeySilent(t *testing.T) {
	p := build(t, "User", []string{"nonexistent"}, Options{Limit: limit(3)})
	assert.Empty(t, p.Loads)
	assert.Equal(t, "SELECT users.id, users.name, users.active\nFROM users", p.Stmt.SQL())
}

func TestBuild_ToOne(t *testing.T) {
	g := testmodels.Blog()
	user := testmodels.MustEntity(g, "User")

	p := build(t, "Post", []string{"author"}, Options{Limit: limit(3)})
	assert.Contains(t, p.Stmt.SQL(), "LEFT JOIN users ON posts.author_id = users.id")
	assert.Equal(t, ContainsEager, p.Loads[0].Strategy)

	conds := NewConditions(map[string]Condition{
		"author": AddConditions(sqldsl.Eq{Left: user.C("name"), Right: sqldsl.Lit("alice")}),
	})
	filtered, err := Build(resolve.New(g, 0), testmodels.MustEntity(g, "Post"), []string{"author"}, Options{Conditions: conds})
	require.NoError(t, err)
	assert.Contains(t, filtered.Stmt.SQL(), "LEFT JOIN users ON (posts.author_id = users.id AND users.name = 'alice')")
	assert.NotContains(t, filtered.Stmt.SQL(), "WHERE")
}

func TestBuild_ToOneSeenTarget(t *testing.T) {
	p := build(t, "Message", []string{"sender", "recipient"}, Options{})
	assert.Equal(t, map[string]Strategy{
		"sender":    ContainsEager,
		"recipient": SelectIn,
	}, strategies(p))
}

func TestBuild_ExtraSelectIn(t *testing.T) {
	p := build(t, "User", []string{"received_messages.sender", "sent_messages.recipient"}, Options{Limit: limit(2)})

	got := strategies(p)
	assert.Equal(t, SelectIn, got["received_messages.sender"])
	assert.Equal(t, SelectIn, got["sent_messages.recipient"])
	assert.Equal(t, SelectIn, got["received_messages.recipient"])

	var extra *Load
	p.Walk(func(l *Load) {
		if l.Extra {
			extra = l
		}
	})
	require.NotNil(t, extra)
	assert.Equal(t, "received_messages", extra.Parent.Path)
}

func TestBuild_SelfReferential(t *testing.T) {
	tests := []struct {
		name     string
		loads    []string
		opts     Options
		contains []string
		want     map[string]Strategy
	}{
		{
			name:     "parent side",
			loads:    []string{"parent"},
			opts:     Options{SelfKey: "parent_id", Limit: limit(5)},
			contains: []string{"LEFT JOIN categories AS categories_parent ON categories.parent_id = categories_parent.id"},
			want:     map[string]Strategy{"parent": ContainsEager},
		},
		{
			name:     "children uncapped",
			loads:    []string{"children"},
			opts:     Options{SelfKey: "parent_id"},
			contains: []string{"LEFT JOIN categories AS categories_children ON categories.id = categories_children.parent_id"},
			want:     map[string]Strategy{"children": ContainsEager},
		},
		{
			name:  "children capped",
			loads: []string{"children"},
			opts:  Options{SelfKey: "parent_id", Limit: limit(5)},
			contains: []string{
				"LEFT JOIN LATERAL (",
				"FROM categories AS categories_children",
				"WHERE categories.id = categories_children.parent_id",
				"ORDER BY categories_children.id DESC",
				") AS categories_children ON TRUE",
			},
			want: map[string]Strategy{"children": ContainsEager},
		},
		{
			name:     "dual load",
			loads:    []string{"parent", "children"},
			opts:     Options{SelfKey: "parent_id", Limit: limit(5)},
			contains: []string{"AS categories_parent"},
			want:     map[string]Strategy{"parent": ContainsEager, "children": SelectIn},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, "Category", tt.loads, tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, p.Stmt.SQL(), want)
			}
			assert.Equal(t, tt.want, strategies(p))
		})
	}
}

func TestBuild_SelfReferentialCondition(t *testing.T) {
	g := testmodels.Blog()
	cat := testmodels.MustEntity(g, "Category")
	conds := NewConditions(map[string]Condition{
		"children": AddConditions(sqldsl.Eq{Left: cat.C("name"), Right: sqldsl.Lit("child_1")}),
	})
	p, err := Build(resolve.New(g, 0), cat, []string{"children"}, Options{SelfKey: "parent_id", Conditions: conds})
	require.NoError(t, err)
	assert.Contains(t, p.Stmt.SQL(), "ON (categories.id = categories_children.parent_id AND categories_children.name = 'child_1')")
}

func TestBuild_Discriminator(t *testing.T) {
	p := build(t, "Post", []string{"attachments"}, Options{Limit: limit(2)})
	assert.Contains(t, p.Stmt.SQL(), "WHERE (posts.id = attachments.attachable_id AND attachments.attachable_type = 'post')")

	sep := build(t, "Post", []string{"attachments"}, Options{})
	assert.Contains(t, sep.Loads[0].Stmt.SQL(), "WHERE attachments.attachable_type = 'post'")
}

func TestBuild_OrderBy(t *testing.T) {
	p := build(t, "User", []string{"posts"}, Options{Limit: limit(2), OrderBy: []string{"title"}})
	assert.Contains(t, p.Stmt.SQL(), "ORDER BY posts.title DESC")

	err := buildErr(t, "User", []string{"posts"}, Options{Limit: limit(2), OrderBy: []string{"nope"}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuild_BaseQuery(t *testing.T) {
	base := sqldsl.Select(sqldsl.Raw("*")).
		From(sqldsl.TableAs("users", "u")).
		AndWhere(sqldsl.Eq{Left: sqldsl.Col{Table: "u", Column: "active"}, Right: sqldsl.Bool(true)})

	p := build(t, "User", []string{"posts"}, Options{Limit: limit(2), Base: &base})
	sql := p.Stmt.SQL()
	assert.True(t, strings.HasPrefix(sql, "SELECT u.id, u.name, u.active, posts.id"))
	assert.Contains(t, sql, "FROM users AS u")
	assert.Contains(t, sql, "WHERE u.id = posts.author_id")
	assert.Contains(t, sql, "\nWHERE u.active = TRUE")
	assert.Equal(t, "u", p.RootAlias)
}

func TestBuild_BaseQueryJoinReused(t *testing.T) {
	base := sqldsl.Select(sqldsl.Raw("*")).
		From(sqldsl.TableRef{Name: "users"}).
		Join(sqldsl.TableRef{Name: "profiles"}, sqldsl.Eq{
			Left:  sqldsl.Col{Table: "profiles", Column: "user_id"},
			Right: sqldsl.Col{Table: "users", Column: "id"},
		})

	p := build(t, "User", []string{"profile"}, Options{Base: &base})
	sql := p.Stmt.SQL()
	assert.NotContains(t, sql, "profiles_profile")
	assert.Equal(t, 1, strings.Count(sql, "JOIN profiles"))
	assert.Contains(t, sql, "profiles.bio")
	require.Len(t, p.Eager, 1)
	assert.Equal(t, "profiles", p.Eager[0].Alias)
	assert.Equal(t, ContainsEager, p.Eager[0].Strategy)

	t.Run("filtered load joins its own copy", func(t *testing.T) {
		conds := NewConditions(map[string]Condition{
			"profile": AddConditions(sqldsl.Eq{
				Left:  sqldsl.Col{Table: "profiles", Column: "bio"},
				Right: sqldsl.Lit("x"),
			}),
		})
		p := build(t, "User", []string{"profile"}, Options{Base: &base, Conditions: conds})
		assert.Contains(t, p.Stmt.SQL(), "LEFT JOIN profiles AS profiles_profile")
		assert.Equal(t, "profiles_profile", p.Eager[0].Alias)
	})
}

func TestBuild_Distinct(t *testing.T) {
	p := build(t, "User", []string{"posts"}, Options{Limit: limit(2), Distinct: true})
	assert.True(t, strings.HasPrefix(p.Stmt.SQL(), "SELECT DISTINCT users.id"))
}

func TestBuild_Errors(t *testing.T) {
	g := testmodels.Blog()
	r := resolve.New(g, 0)

	t.Run("missing self key", func(t *testing.T) {
		_, err := Build(r, testmodels.MustEntity(g, "Category"), []string{"children"}, Options{})
		require.ErrorIs(t, err, ErrMissingSelfKey)
		assert.Contains(t, err.Error(), "self_key")
	})

	t.Run("abstract root", func(t *testing.T) {
		base := &schema.Entity{Name: "Base", Table: "base", Abstract: true, Columns: []schema.Column{{Name: "id", PrimaryKey: true}}}
		ag, err := schema.NewGraph(base)
		require.NoError(t, err)
		_, err = Build(resolve.New(ag, 0), base, nil, Options{})
		assert.ErrorIs(t, err, ErrAbstractEntity)
	})

	t.Run("foreign root", func(t *testing.T) {
		other := testmodels.MustEntity(testmodels.Blog(), "User")
		_, err := Build(r, other, nil, Options{})
		assert.ErrorIs(t, err, ErrUnknownEntity)
	})

	t.Run("unknown dotted segment", func(t *testing.T) {
		_, err := Build(r, testmodels.MustEntity(g, "User"), []string{"posts.nope"}, Options{})
		assert.ErrorIs(t, err, resolve.ErrUnknownRelationship)
	})
}

func TestBuild_NegativeCapPassesThrough(t *testing.T) {
	p := build(t, "User", []string{"posts"}, Options{Limit: limit(-1)})
	assert.Contains(t, p.Stmt.SQL(), "LIMIT -1")
}
