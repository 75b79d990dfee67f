package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const batchSize = 1000

// Fixtures inserts rows into the blog tables on top of the seed data.
type Fixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewFixtures creates a new Fixtures instance.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ctx: ctx}
}

// CreateUser creates an active user and returns its ID.
func (f *Fixtures) CreateUser(name string) (int64, error) {
	var id int64
	err := f.db.QueryRowContext(f.ctx,
		`INSERT INTO users (name, active) VALUES ($1, TRUE) RETURNING id`,
		name,
	).Scan(&id)
	return id, err
}

// CreatePosts creates n posts for the author and returns their IDs in
// insertion order, so the last ID is the newest post.
func (f *Fixtures) CreatePosts(authorID int64, n int) ([]int64, error) {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("post %d of user %d", i+1, authorID), authorID}
	}
	return f.insertReturning("posts", []string{"title", "author_id"}, rows)
}

// CreateCategory creates a category under parent (nil for a root).
func (f *Fixtures) CreateCategory(name string, parent *int64) (int64, error) {
	var id int64
	err := f.db.QueryRowContext(f.ctx,
		`INSERT INTO categories (name, parent_id) VALUES ($1, $2) RETURNING id`,
		name, parent,
	).Scan(&id)
	return id, err
}

// CreateMessages creates n messages from one user to another, owned by the sender.
func (f *Fixtures) CreateMessages(from, to int64, n int) ([]int64, error) {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("message %d", i+1), from, to, from}
	}
	return f.insertReturning("messages", []string{"content", "from_user_id", "to_user_id", "owner_id"}, rows)
}

// insertReturning inserts rows with multi-row INSERTs of at most batchSize rows
// and returns the generated IDs in order.
func (f *Fixtures) insertReturning(table string, cols []string, rows [][]any) ([]int64, error) {
	ids := make([]int64, 0, len(rows))
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		var sb strings.Builder
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))
		args := make([]any, 0, (end-start)*len(cols))
		for i, row := range rows[start:end] {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for j, v := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				args = append(args, v)
				fmt.Fprintf(&sb, "$%d", len(args))
			}
			sb.WriteByte(')')
		}
		sb.WriteString(" RETURNING id")

		batch, err := f.queryIDs(sb.String(), args)
		if err != nil {
			return nil, fmt.Errorf("insert %s batch %d-%d: %w", table, start, end, err)
		}
		ids = append(ids, batch...)
	}
	return ids, nil
}

func (f *Fixtures) queryIDs(query string, args []any) ([]int64, error) {
	rows, err := f.db.QueryContext(f.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CopyComments bulk-loads n comments on a post with COPY FROM and returns the
// number of rows copied.
func (f *Fixtures) CopyComments(postID int64, n int) (int64, error) {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("comment %d", i+1), postID}
	}

	conn, err := f.db.Conn(f.ctx)
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var copied int64
	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("not a pgx connection (got %T)", driverConn)
		}
		copied, err = c.Conn().CopyFrom(f.ctx,
			pgx.Identifier{"comments"},
			[]string{"text", "post_id"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("COPY FROM: %w", err)
	}
	return copied, nil
}
