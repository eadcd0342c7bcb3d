package sourcemap

import (
	"fmt"
	"regexp"
	"strings"
)

var indentPattern = regexp.MustCompile(`^(\s*)`)

// FormatFrame formats a mapped frame as a V8-style "at" line, keeping the
// indentation of the original line. Unmapped and native frames are returned
// as they were.
func FormatFrame(frame MappedFrame) string {
	if !frame.Mapped || frame.IsNative {
		return frame.Raw
	}

	indent := ""
	if m := indentPattern.FindStringSubmatch(frame.Raw); len(m) > 1 {
		indent = m[1]
	}

	return fmt.Sprintf("%sat %s (%s:%d:%d)", indent, frame.OriginalName,
		frame.OriginalFileName, frame.OriginalLineNumber, frame.OriginalColumnNumber)
}

// FormatStackTrace formats frames into a stack trace, one frame per line.
func FormatStackTrace(frames []MappedFrame) string {
	lines := make([]string, len(frames))
	for i, frame := range frames {
		lines[i] = FormatFrame(frame)
	}
	return strings.Join(lines, "\n")
}

// FormatWithMetadata is FormatStackTrace with the mapping status and the
// origin of each function name appended (for debugging).
func FormatWithMetadata(frames []MappedFrame) string {
	lines := make([]string, len(frames))
	for i, frame := range frames {
		status := "✗ unmapped"
		if frame.Mapped {
			status = fmt.Sprintf("✓ mapped [%s]", frame.NameOrigin)
		}
		lines[i] = fmt.Sprintf("%s %s", FormatFrame(frame), status)
	}
	return strings.Join(lines, "\n")
}
