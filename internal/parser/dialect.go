package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect is the source language a parser is asked to read.
type Dialect string

const (
	TypeScript Dialect = "TypeScript"
	ECMAScript Dialect = "ECMAScript"
	TSX        Dialect = "TSX"
	JSX        Dialect = "JSX"
)

// ErrUnsupportedDialect is returned for dialects no parser understands.
var ErrUnsupportedDialect = errors.New("unsupported dialect")

var dialects = map[string]Dialect{
	"typescript": TypeScript,
	"ts":         TypeScript,
	"ecmascript": ECMAScript,
	"javascript": ECMAScript,
	"js":         ECMAScript,
	"tsx":        TSX,
	"jsx":        JSX,
}

var extensions = map[string]Dialect{
	".ts":  TypeScript,
	".mts": TypeScript,
	".cts": TypeScript,
	".js":  ECMAScript,
	".mjs": ECMAScript,
	".cjs": ECMAScript,
	".tsx": TSX,
	".jsx": JSX,
}

// ParseDialect accepts a dialect name or a common alias, case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	if d, ok := dialects[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
}

// DialectFor guesses the dialect from a file extension.
func DialectFor(path string) (Dialect, error) {
	if d, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: no dialect for %q", ErrUnsupportedDialect, path)
}

// Valid reports whether d is one of the known dialects.
func (d Dialect) Valid() bool {
	switch d {
	case TypeScript, ECMAScript, TSX, JSX:
		return true
	}
	return false
}
