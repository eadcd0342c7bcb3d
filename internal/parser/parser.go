// Package parser defines the contract for the external parsers that produce
// function descriptors from source text, and hosts them either as a wasm
// plugin or as a tool on a remote MCP server.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/yousuf/funcmap/internal/funcmap"
)

// ErrMissingTopLevel is returned when a parser result has no whole-file
// descriptor.
var ErrMissingTopLevel = errors.New("parser result has no top-level descriptor")

// Parser turns source text into the descriptors of every function-like
// construct, including one "<top-level>" descriptor spanning the file.
// Syntax errors and unsupported dialects are returned as errors.
type Parser interface {
	Parse(ctx context.Context, source string, dialect Dialect) ([]funcmap.FunctionDesc, error)
}

// File is one source file to parse.
type File struct {
	Source  string
	Dialect Dialect
}

// request is the payload sent to parser plugins and remote parse tools.
type request struct {
	Source  string  `json:"source"`
	Dialect Dialect `json:"dialect"`
}

// response is what parser plugins and remote parse tools return.
type response struct {
	Functions []function `json:"functions"`
	Error     string     `json:"error,omitempty"`
}

// function is one descriptor on the wire. Producers either send the composed
// name, or leave the composition to us with kind, text and prefix.
type function struct {
	Name        string   `json:"name,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Text        string   `json:"text,omitempty"`
	Prefix      []string `json:"prefix,omitempty"`
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
}

func (f function) desc() (funcmap.FunctionDesc, error) {
	name := f.Name
	if f.Kind != "" || len(f.Prefix) > 0 {
		kind, err := ParseKind(f.Kind)
		if err != nil {
			return funcmap.FunctionDesc{}, err
		}
		text := f.Text
		if text == "" {
			text = f.Name
		}
		n := Name{Kind: kind, Text: text}
		for i := len(f.Prefix) - 1; i >= 0; i-- {
			n = n.Within(f.Prefix[i])
		}
		name = n.String()
	}
	if name == "" {
		return funcmap.FunctionDesc{}, fmt.Errorf("descriptor at %d:%d has no name", f.StartLine, f.StartColumn)
	}
	return funcmap.NewFunctionDesc(name, f.StartLine, f.StartColumn, f.EndLine, f.EndColumn)
}

func encodeRequest(source string, dialect Dialect) ([]byte, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	return json.Marshal(request{Source: source, Dialect: dialect})
}

// decodeResponse unmarshals a parser reply, composes structured names and
// validates the result.
func decodeResponse(data []byte) ([]funcmap.FunctionDesc, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parser output: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("parse failed: %s", resp.Error)
	}
	descs := make([]funcmap.FunctionDesc, 0, len(resp.Functions))
	for i, f := range resp.Functions {
		d, err := f.desc()
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		descs = append(descs, d)
	}
	if err := ValidateResult(descs); err != nil {
		return nil, err
	}
	return descs, nil
}

// ValidateResult checks a parser result: every descriptor is valid and one
// of them is the top-level scope.
func ValidateResult(descs []funcmap.FunctionDesc) error {
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	topLevel := Name{Kind: TopLevel}.String()
	if !slices.ContainsFunc(descs, func(d funcmap.FunctionDesc) bool { return d.Name == topLevel }) {
		return ErrMissingTopLevel
	}
	return nil
}

// ParseAll parses every file and returns the descriptors keyed by source,
// ready for funcmap.Encode. It stops at the first failure.
func ParseAll(ctx context.Context, p Parser, files map[string]File) (map[string][]funcmap.FunctionDesc, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(map[string][]funcmap.FunctionDesc, len(files))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := files[name]
		descs, err := p.Parse(ctx, f.Source, f.Dialect)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		out[name] = descs
	}
	return out, nil
}
