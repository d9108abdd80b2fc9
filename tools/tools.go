//go:build tools
// +build tools

// Package tools documents development tool dependencies for the lab portal.
// They are run with `go run pkg@version` or installed with `go install` and are
// not tracked in go.mod.
package tools

// Development tools:
//
// mockgen - gomock code generation for internal/mocks
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock/mockgen@v0.6.0
//
// golangci-lint - linting (the //nolint directives in the tree target it)
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest
//
// Air - live reload for cmd/labportal during development
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run: air --build.cmd "go build -o ./tmp/labportal ./cmd/labportal" --build.bin ./tmp/labportal
