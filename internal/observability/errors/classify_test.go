package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/target/lab-portal/internal/errors"
)

type lookupError struct{}

func (*lookupError) Error() string { return "lookup failed" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app code", err: apperrors.NotFound("user not found"), want: "not_found"},
		{name: "wrapped app code", err: fmt.Errorf("load roles: %w", apperrors.Forbidden("nope")), want: "forbidden"},
		{name: "deadline", err: fmt.Errorf("ping: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "redis nil", err: fmt.Errorf("get: %w", redis.Nil), want: "redis_nil"},
		{name: "innermost type", err: fmt.Errorf("outer: %w", &lookupError{}), want: "errors_lookuperror"},
		{name: "plain", err: goerrors.New("boom"), want: "errors_errorstring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
