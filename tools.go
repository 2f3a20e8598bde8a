//go:build tools
// +build tools

// Package chakra declares the tools used by go generate so that go.mod
// tracks them.
package chakra

import (
	_ "go.uber.org/mock/mockgen"
)
