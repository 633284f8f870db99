package config

import (
	"log/slog"
	"os"
	"slices"
	"strings"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		fatal("missing required env", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		fatal("missing required env", envName)
	}
}

// MustOneOf stops the process when value is not among allowed.
func MustOneOf(value, envName string, allowed ...string) {
	if !slices.Contains(allowed, value) {
		fatal("invalid env value, want one of "+strings.Join(allowed, "|"), envName)
	}
}

func fatal(msg, envName string) {
	slog.Error(msg, "env", envName)
	os.Exit(1)
}
