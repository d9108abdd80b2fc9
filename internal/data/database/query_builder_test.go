package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name      string
		opts      *ListQueryOptions
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "basic select",
			opts:      NewListQueryOptions("departments"),
			wantQuery: `SELECT * FROM "departments"`,
			wantArgs:  []any{},
		},
		{
			name:      "qualified columns",
			opts:      NewListQueryOptions("users", WithColumns("id", "users.email")),
			wantQuery: `SELECT "id", "users"."email" FROM "users"`,
			wantArgs:  []any{},
		},
		{
			name: "count ignores order and paging",
			opts: NewListQueryOptions("projects",
				WithCountOnly(),
				WithCondition(WhereCond("status", Equal, "approved")),
				WithOrderBy("created_at", "DESC"),
				WithLimit(10),
			),
			wantQuery: `SELECT COUNT(*) FROM "projects" WHERE "status" = $1`,
			wantArgs:  []any{"approved"},
		},
		{
			name: "conditions order paging",
			opts: NewListQueryOptions("projects",
				WithColumns("id"),
				WithCondition(WhereCond("status", Equal, "approved")),
				WithCondition(WhereCond("title", ILike, "%robot%")),
				WithOrderBy("created_at", "desc"),
				WithLimit(20),
				WithOffset(0),
			),
			wantQuery: `SELECT "id" FROM "projects" WHERE "status" = $1 AND "title" ILIKE $2 ORDER BY "created_at" DESC LIMIT $3 OFFSET $4`,
			wantArgs:  []any{"approved", "%robot%", 20, 0},
		},
		{
			name: "raw condition renumbered",
			opts: NewListQueryOptions("users",
				WithCondition(WhereCond("email", Equal, "a@x")),
				WithCondition(WhereRawCond("(first_name ILIKE $1 OR last_name ILIKE $1)", "%ada%")),
				WithCondition(WhereRawCond("deleted_at IS NULL")),
			),
			wantQuery: `SELECT * FROM "users" WHERE "email" = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2) AND deleted_at IS NULL`,
			wantArgs:  []any{"a@x", "%ada%"},
		},
		{
			name: "any condition",
			opts: NewListQueryOptions("user_roles",
				WithCondition(WhereCond("user_id", Any, []string{"a", "b"})),
			),
			wantQuery: `SELECT * FROM "user_roles" WHERE "user_id" = ANY($1)`,
			wantArgs:  []any{[]string{"a", "b"}},
		},
		{
			name: "invalid direction and identifier injection",
			opts: NewListQueryOptions("users",
				WithOrderBy(`name"; DROP TABLE users; --`, "sideways"),
				WithLimit(-5),
			),
			wantQuery: `SELECT * FROM "users" ORDER BY "name""; DROP TABLE users; --"`,
			wantArgs:  []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := BuildListQuery(tt.opts)
			assert.Equal(t, tt.wantQuery, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}

	q, args := BuildListQuery(nil)
	assert.Empty(t, q)
	assert.Nil(t, args)
}

func TestWhereCond_CustomPanics(t *testing.T) {
	assert.Panics(t, func() { WhereCond("x", Custom, 1) })
}
