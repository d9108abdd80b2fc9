// Package errors turns arbitrary errors into short, low-cardinality labels
// for metric tags and log attributes.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/target/lab-portal/internal/errors"
)

// Classify labels err for tagging. Application error codes win, then
// well-known sentinels (context deadline, cancellation, redis nil), and
// finally the innermost concrete type rendered as pkg_type.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, redis.Nil):
		return "redis_nil"
	}

	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	return typeLabel(err)
}

func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
