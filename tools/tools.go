//go:build tools
// +build tools

// Package tools pins development tool dependencies.
// mockgen is tracked in go.mod so `go generate ./internal/mocks` uses the
// same version as the go.uber.org/mock runtime the tests import.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)

// Other development tools (install via `go install`):
//
// Air - Live reload for Go apps
//   Install: go install github.com/air-verse/air@v1.63.0
//   Version: v1.63.0 (pinned 2025-01-01)
//   Docs: https://github.com/air-verse/air
