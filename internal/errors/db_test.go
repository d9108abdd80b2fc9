package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError_Passthrough(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
	plain := errors.New("plain")
	assert.Equal(t, plain, MapDBError(plain))
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrCodeConflict},
		{"fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ErrCodeForeignKey},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrCodeValidation},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "email"}, ErrCodeValidation},
		{"other pg", &pgconn.PgError{Code: pgerrcode.DiskFull}, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(MapDBError(tt.err)))
		})
	}
}

func TestMapDBError_UniqueField(t *testing.T) {
	tests := []struct {
		name  string
		pgErr *pgconn.PgError
		want  string
	}{
		{"column metadata", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "email"}, "email"},
		{"detail", &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (slug)=(spring) already exists."}, "slug"},
		{"constraint with table", &pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "users", ConstraintName: "users_external_id_key"}, "external_id"},
		{"constraint without table", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "departments_name_key"}, "name"},
		{"ambiguous", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "user_roles_position_key"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetField(MapDBError(tt.pgErr)))
		})
	}
}

func TestMapDBError_ForeignKeyMessages(t *testing.T) {
	inUse := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (id)=(1) is still referenced from table "projects".`,
	})
	assert.Contains(t, inUse.Error(), "in use by a project")

	missing := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (department_id)=(2) is not present in table "departments".`,
	})
	assert.Contains(t, missing.Error(), "referenced department does not exist")

	byTable := MapDBError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "contact_messages"})
	assert.Contains(t, byTable.Error(), "contact message")
}
