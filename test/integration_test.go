package test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/autoload"
	"github.com/pthm/autoload/internal/testmodels"
	"github.com/pthm/autoload/pkg/sqldsl"
	"github.com/pthm/autoload/schema"
	"github.com/pthm/autoload/test/testutil"
)

// fetchRoots builds the query for entity and loads, restricts it to the given
// root ids and returns the distinct root records keyed by primary key.
func fetchRoots(t *testing.T, db *sql.DB, g *schema.Graph, entity string, rootIDs []int64, loads []string, opts ...autoload.SelectOption) map[int64]*autoload.Record {
	t.Helper()

	e := testmodels.MustEntity(g, entity)
	q, err := autoload.New(g).Select(e, loads, opts...)
	require.NoError(t, err)

	in := make([]sqldsl.Expr, len(rootIDs))
	for i, id := range rootIDs {
		in[i] = sqldsl.Int(id)
	}
	q = q.Where(sqldsl.In{Expr: e.C(e.PK()), Values: in})

	res, err := autoload.Fetch(context.Background(), db, q)
	require.NoError(t, err)

	out := make(map[int64]*autoload.Record)
	for _, r := range autoload.UniqueScalars(res) {
		out[r.Int64(e.PK())] = r
	}
	return out
}

func ids(records []*autoload.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.Int64("id")
	}
	return out
}

// TestDB_Fixture verifies the template database carries the blog fixture.
func TestDB_Fixture(t *testing.T) {
	db := testutil.DB(t)

	var users, posts int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&users))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&posts))
	assert.Equal(t, 3, users)
	assert.Equal(t, 4, posts)
}

func TestFetch_CapPerParent(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	fx := testutil.NewFixtures(context.Background(), db)

	uid, err := fx.CreateUser("dana")
	require.NoError(t, err)
	postIDs, err := fx.CreatePosts(uid, 20)
	require.NoError(t, err)
	require.Len(t, postIDs, 20)

	t.Run("capped returns the newest rows", func(t *testing.T) {
		users := fetchRoots(t, db, g, "User", []int64{uid}, []string{"posts"}, autoload.WithLimit(5))
		require.Contains(t, users, uid)

		got := users[uid].Many("posts")
		require.Len(t, got, 5)
		// Inserted in order, so the last five ids are the five highest.
		assert.ElementsMatch(t, postIDs[15:], ids(got))
	})

	t.Run("no cap returns every row", func(t *testing.T) {
		users := fetchRoots(t, db, g, "User", []int64{uid}, []string{"posts"}, autoload.WithoutLimit())
		require.Contains(t, users, uid)
		assert.ElementsMatch(t, postIDs, ids(users[uid].Many("posts")))
	})

	t.Run("no cap with selectin", func(t *testing.T) {
		users := fetchRoots(t, db, g, "User", []int64{uid}, []string{"posts"},
			autoload.WithoutLimit(), autoload.WithManyLoad(autoload.SelectInLoad))
		require.Contains(t, users, uid)
		assert.ElementsMatch(t, postIDs, ids(users[uid].Many("posts")))
	})
}

func TestFetch_DefaultOrderingScenario(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()

	users := fetchRoots(t, db, g, "User", []int64{1}, []string{"posts"}, autoload.WithLimit(2))
	require.Contains(t, users, int64(1))

	alice := users[1]
	assert.Equal(t, "alice", alice.String("name"))
	assert.Equal(t, []int64{3, 2}, ids(alice.Many("posts")))
}

func TestFetch_SiblingAlignment(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	fx := testutil.NewFixtures(context.Background(), db)

	uid, err := fx.CreateUser("erin")
	require.NoError(t, err)
	postIDs, err := fx.CreatePosts(uid, 3)
	require.NoError(t, err)
	msgIDs, err := fx.CreateMessages(uid, 2, 2)
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		opts []autoload.SelectOption
	}{
		{name: "aligned", opts: []autoload.SelectOption{autoload.WithLimit(5)}},
		{name: "unaligned", opts: []autoload.SelectOption{autoload.WithLimit(5), autoload.WithoutAlignment()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			users := fetchRoots(t, db, g, "User", []int64{uid}, []string{"posts", "sent_messages"}, tc.opts...)
			require.Contains(t, users, uid)

			u := users[uid]
			assert.ElementsMatch(t, postIDs, ids(u.Many("posts")))
			assert.ElementsMatch(t, msgIDs, ids(u.Many("sent_messages")))
		})
	}

	t.Run("row counts", func(t *testing.T) {
		count := func(opts ...autoload.SelectOption) int {
			q, err := autoload.New(g).Select(testmodels.MustEntity(g, "User"), []string{"posts", "sent_messages"}, opts...)
			require.NoError(t, err)
			q = q.Where(sqldsl.Eq{Left: sqldsl.Col{Table: "users", Column: "id"}, Right: sqldsl.Int(uid)})

			var n int
			err = db.QueryRow("SELECT COUNT(*) FROM ("+q.SQL()+") AS t", q.Args()...).Scan(&n)
			require.NoError(t, err)
			return n
		}

		// One row per series value up to the cap.
		assert.Equal(t, 5, count(autoload.WithLimit(5)))
		assert.Equal(t, 6, count(autoload.WithLimit(5), autoload.WithoutAlignment()))
	})
}

func TestFetch_SelfReferentialDualLoad(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	cat := testmodels.MustEntity(g, "Category")

	t.Run("both sides populated", func(t *testing.T) {
		cats := fetchRoots(t, db, g, "Category", []int64{1, 2, 3}, []string{"parent", "children"},
			autoload.WithSelfKey("parent_id"), autoload.WithLimit(5))
		require.Len(t, cats, 3)

		assert.Nil(t, cats[1].One("parent"))
		assert.ElementsMatch(t, []int64{2, 3}, ids(cats[1].Many("children")))
		for _, id := range []int64{2, 3} {
			require.NotNil(t, cats[id].One("parent"))
			assert.Equal(t, int64(1), cats[id].One("parent").Int64("id"))
			assert.Empty(t, cats[id].Many("children"))
		}
	})

	t.Run("children filter leaves parent alone", func(t *testing.T) {
		conds := autoload.NewConditions(map[string]autoload.Condition{
			"children": autoload.AddConditions(sqldsl.Eq{Left: cat.C("name"), Right: sqldsl.Lit("child_1")}),
		})
		cats := fetchRoots(t, db, g, "Category", []int64{1, 2, 3}, []string{"parent", "children"},
			autoload.WithSelfKey("parent_id"), autoload.WithLimit(5), autoload.WithConditions(conds))
		require.Len(t, cats, 3)

		assert.Equal(t, []int64{2}, ids(cats[1].Many("children")))
		require.NotNil(t, cats[3].One("parent"))
		assert.Equal(t, int64(1), cats[3].One("parent").Int64("id"))
	})
}

func TestFetch_SelectInWithQueryArgs(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	cat := testmodels.MustEntity(g, "Category")

	q, err := autoload.New(g).Select(cat, []string{"parent", "children"},
		autoload.WithSelfKey("parent_id"), autoload.WithoutLimit(), autoload.WithManyLoad(autoload.SelectInLoad))
	require.NoError(t, err)
	q = q.Where(sqldsl.In{Expr: cat.C("id"), Values: []sqldsl.Expr{sqldsl.Param(1), sqldsl.Param(2)}}).
		WithArgs(int64(1), int64(2))

	res, err := autoload.Fetch(context.Background(), db, q)
	require.NoError(t, err)

	cats := make(map[int64]*autoload.Record)
	for _, r := range autoload.UniqueScalars(res) {
		cats[r.Int64("id")] = r
	}
	require.Len(t, cats, 2)
	assert.ElementsMatch(t, []int64{2, 3}, ids(cats[1].Many("children")))
	require.NotNil(t, cats[2].One("parent"))
	assert.Equal(t, int64(1), cats[2].One("parent").Int64("id"))
}

func TestFetch_FilterNoOp(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()

	noop := autoload.NewConditions(map[string]autoload.Condition{
		"posts": func(s sqldsl.SelectStmt) sqldsl.SelectStmt { return s },
	})
	all := []int64{1, 2, 3}

	for _, opts := range [][]autoload.SelectOption{
		{autoload.WithLimit(2)},
		{autoload.WithoutLimit()},
	} {
		plain := fetchRoots(t, db, g, "User", all, []string{"posts"}, opts...)
		filtered := fetchRoots(t, db, g, "User", all, []string{"posts"}, append(opts, autoload.WithConditions(noop))...)
		for _, id := range all {
			assert.ElementsMatch(t, ids(plain[id].Many("posts")), ids(filtered[id].Many("posts")), "user %d", id)
		}
	}
}

func TestFetch_PrefixReuse(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	all := []int64{1, 2, 3}

	alone := fetchRoots(t, db, g, "User", all, []string{"posts"})
	shared := fetchRoots(t, db, g, "User", all, []string{"posts.comments.reactions", "posts"})

	for _, id := range all {
		assert.Len(t, shared[id].Many("posts"), len(alone[id].Many("posts")), "user %d", id)
		assert.ElementsMatch(t, ids(alone[id].Many("posts")), ids(shared[id].Many("posts")))
	}

	var p1 *autoload.Record
	for _, p := range shared[1].Many("posts") {
		if p.Int64("id") == 1 {
			p1 = p
		}
	}
	require.NotNil(t, p1)
	require.Len(t, p1.Many("comments"), 2)
	total := 0
	for _, c := range p1.Many("comments") {
		total += len(c.Many("reactions"))
	}
	assert.Equal(t, 2, total)
}

func TestFetch_UnknownKeySilence(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	all := []int64{1, 2}

	want := fetchRoots(t, db, g, "User", all, []string{"posts", "roles"})
	got := fetchRoots(t, db, g, "User", all, []string{"posts", "nonexistent", "roles"})

	for _, id := range all {
		assert.ElementsMatch(t, ids(want[id].Many("posts")), ids(got[id].Many("posts")))
		assert.ElementsMatch(t, ids(want[id].Many("roles")), ids(got[id].Many("roles")))
		assert.False(t, got[id].Loaded("nonexistent"))
	}
	assert.ElementsMatch(t, []int64{1, 2}, ids(got[1].Many("roles")))
}

func TestFetch_ToOneAndAssociation(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()

	users := fetchRoots(t, db, g, "User", []int64{1, 2}, []string{"profile", "posts.tags"})
	require.Len(t, users, 2)

	require.NotNil(t, users[1].One("profile"))
	assert.Equal(t, "alice writes", users[1].One("profile").String("bio"))
	assert.Nil(t, users[1].One("profile").Get("avatar_url"))
	assert.True(t, users[2].Loaded("profile"))
	assert.Nil(t, users[2].One("profile"))

	tags := map[int64][]int64{}
	for _, p := range users[1].Many("posts") {
		tags[p.Int64("id")] = ids(p.Many("tags"))
	}
	assert.ElementsMatch(t, []int64{1, 2}, tags[1])
	assert.Empty(t, tags[2])
}

func TestFetch_BulkLoadedComments(t *testing.T) {
	db := testutil.DB(t)
	g := testmodels.Blog()
	fx := testutil.NewFixtures(context.Background(), db)

	n, err := fx.CopyComments(4, 30)
	require.NoError(t, err)
	require.Equal(t, int64(30), n)

	posts := fetchRoots(t, db, g, "Post", []int64{4}, []string{"comments"}, autoload.WithLimit(10))
	assert.Len(t, posts[4].Many("comments"), 10)

	posts = fetchRoots(t, db, g, "Post", []int64{4}, []string{"comments"},
		autoload.WithoutLimit(), autoload.WithManyLoad(autoload.SubqueryLoad))
	assert.Len(t, posts[4].Many("comments"), 31)
}
