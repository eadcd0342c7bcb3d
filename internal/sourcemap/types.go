package sourcemap

// stackFrame represents a single stack frame parsed from a stack trace
type stackFrame struct {
	// The raw original line from the stack trace
	Raw string
	// Function name (or '<anonymous>' if anonymous)
	FunctionName string
	// Generated file path
	FileName string
	// Line number (1-indexed), nil if not available
	LineNumber *int
	// Column number (1-indexed), nil if not available
	ColumnNumber *int
	// Whether this is a native call
	IsNative bool
}

// NameOrigin tells where a mapped frame's function name came from.
type NameOrigin string

const (
	// NameFromFunctionMap means the innermost enclosing function from the
	// enriched source map.
	NameFromFunctionMap NameOrigin = "function-map"
	// NameFromMappings means the symbol name attached to the mapping segment.
	NameFromMappings NameOrigin = "mappings"
	// NameFromStack means the name printed in the stack trace was kept.
	NameFromStack NameOrigin = "stack"
)

// MappedFrame is a stack frame with its original source position and the
// function enclosing that position.
type MappedFrame struct {
	stackFrame
	// Original source file path (from source map)
	OriginalFileName string
	// Original line number (1-indexed)
	OriginalLineNumber int
	// Original column number (1-indexed)
	OriginalColumnNumber int
	// Resolved function name
	OriginalName string
	// Where OriginalName came from
	NameOrigin NameOrigin
	// Whether mapping was successful
	Mapped bool
}
