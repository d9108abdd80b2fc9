package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/lab-portal/internal/data/pgxutil"
)

// queryer is satisfied by *pgx.Conn and pgx.Tx.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collectAll[T any](ctx context.Context, q queryer, query string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, err
	}
	return out, nil
}

func collectOne[T any](ctx context.Context, q queryer, query string, args ...any) (*T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
}

// getOne runs a single-row query on its own connection, mapping no rows to notFound.
func getOne[T any](ctx context.Context, db *sql.DB, notFound error, query string, args ...any) (*T, error) {
	var out *T
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		var e error
		out, e = collectOne[T](ctx, conn, query, args...)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return out, nil
}

func listAll[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]*T, error) {
	var out []*T
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		var e error
		out, e = collectAll[T](ctx, conn, query, args...)
		return e
	})
	return out, err
}

func countRows(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&n)
	})
	return n, err
}

func execAffected(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		n = ct.RowsAffected()
		return nil
	})
	return n, err
}

// validID reports whether id can be compared to a uuid column without a cast error.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
