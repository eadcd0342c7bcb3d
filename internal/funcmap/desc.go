package funcmap

import (
	"encoding/json"
	"fmt"
)

// FunctionDesc is a named, absolute span of a function-like construct in a
// source file. Lines and columns are zero-based. Construct values with
// NewFunctionDesc so the position invariants hold.
type FunctionDesc struct {
	Name        string `json:"name" yaml:"name"`
	StartLine   int    `json:"startLine" yaml:"startLine"`
	StartColumn int    `json:"startColumn" yaml:"startColumn"`
	EndLine     int    `json:"endLine" yaml:"endLine"`
	EndColumn   int    `json:"endColumn" yaml:"endColumn"`
}

// NewFunctionDesc validates the coordinates and returns the descriptor.
func NewFunctionDesc(name string, startLine, startColumn, endLine, endColumn int) (FunctionDesc, error) {
	d := FunctionDesc{
		Name:        name,
		StartLine:   startLine,
		StartColumn: startColumn,
		EndLine:     endLine,
		EndColumn:   endColumn,
	}
	if err := d.Validate(); err != nil {
		return FunctionDesc{}, err
	}
	return d, nil
}

// MustFunctionDesc is like NewFunctionDesc but panics on invalid input.
// Intended for literals in tests and tables.
func MustFunctionDesc(name string, startLine, startColumn, endLine, endColumn int) FunctionDesc {
	d, err := NewFunctionDesc(name, startLine, startColumn, endLine, endColumn)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks that all positions are non-negative and the start does not
// come after the end.
func (d FunctionDesc) Validate() error {
	if d.StartLine < 0 || d.StartColumn < 0 || d.EndLine < 0 || d.EndColumn < 0 {
		return fmt.Errorf("%w: positions must be non-negative: %s", ErrPosition, d)
	}
	if d.StartLine > d.EndLine || (d.StartLine == d.EndLine && d.StartColumn > d.EndColumn) {
		return fmt.Errorf("%w: end must not precede start: %s", ErrPosition, d)
	}
	return nil
}

// UnmarshalJSON decodes and validates a descriptor.
func (d *FunctionDesc) UnmarshalJSON(data []byte) error {
	type plain FunctionDesc
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := FunctionDesc(p).Validate(); err != nil {
		return err
	}
	*d = FunctionDesc(p)
	return nil
}

func (d FunctionDesc) String() string {
	return fmt.Sprintf("%q %d:%d-%d:%d", d.Name, d.StartLine, d.StartColumn, d.EndLine, d.EndColumn)
}

// Contains reports whether the zero-based point lies inside d. Both boundary
// columns are inclusive; columns on interior lines of a multi-line span are
// not constrained.
func (d FunctionDesc) Contains(line, column int) bool {
	if d.StartLine != d.EndLine {
		return (line > d.StartLine && line < d.EndLine) ||
			(line == d.StartLine && column >= d.StartColumn) ||
			(line == d.EndLine && column <= d.EndColumn)
	}
	return line == d.StartLine && column >= d.StartColumn && column <= d.EndColumn
}

// Compare orders descriptors by start position.
func Compare(a, b FunctionDesc) int {
	return comparePos(a.StartLine, a.StartColumn, b.StartLine, b.StartColumn)
}

func comparePos(aLine, aColumn, bLine, bColumn int) int {
	switch {
	case aLine < bLine:
		return -1
	case aLine > bLine:
		return 1
	case aColumn < bColumn:
		return -1
	case aColumn > bColumn:
		return 1
	}
	return 0
}

// Encloses reports whether d starts no later and ends no earlier than o.
// Equal spans enclose each other.
func (d FunctionDesc) Encloses(o FunctionDesc) bool {
	return comparePos(d.StartLine, d.StartColumn, o.StartLine, o.StartColumn) <= 0 &&
		comparePos(d.EndLine, d.EndColumn, o.EndLine, o.EndColumn) >= 0
}

// PartialOverlap reports whether a and b intersect without either enclosing
// the other. The result does not depend on argument order. Spans that only
// touch at a boundary do not overlap.
func PartialOverlap(a, b FunctionDesc) bool {
	if a.Encloses(b) || b.Encloses(a) {
		return false
	}
	if Compare(a, b) > 0 {
		a, b = b, a
	}
	return comparePos(b.StartLine, b.StartColumn, a.EndLine, a.EndColumn) < 0
}
