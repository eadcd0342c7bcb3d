package sourcemap

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nativeFramePattern = regexp.MustCompile(`at\s+(.+?)\s+\(native\)`)
	// at functionName (file:line:column)
	namedFramePattern = regexp.MustCompile(`at\s+(.+?)\s+\((.+?):(\d+):(\d+)\)`)
	// at file:line:column
	anonymousFramePattern = regexp.MustCompile(`at\s+(.+?):(\d+):(\d+)`)
	// file:line:column, or functionName@file:line:column as printed by SpiderMonkey
	bareFramePattern = regexp.MustCompile(`^(?:(.*?)@)?(.+?):(\d+):(\d+)$`)
)

const anonymousFunction = "<anonymous>"

// parseStackTrace parses every recognised frame of a multi-line stack trace.
// Lines that are not frames (the error message, blank lines) are skipped.
func parseStackTrace(stackTrace string) []stackFrame {
	frames := make([]stackFrame, 0)
	for _, line := range strings.Split(stackTrace, "\n") {
		if frame, ok := parseStackLine(line); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

// parseStackLine parses a single stack trace line. Handles:
//   - at functionName (file:line:column)
//   - at file:line:column
//   - at functionName (native)
//   - functionName@file:line:column
//   - file:line:column
func parseStackLine(line string) (stackFrame, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if trimmed == "" {
		return stackFrame{}, false
	}

	if strings.Contains(trimmed, "(native)") {
		name := "unknown"
		if m := nativeFramePattern.FindStringSubmatch(trimmed); m != nil {
			name = m[1]
		}
		return stackFrame{Raw: line, FunctionName: name, FileName: "native", IsNative: true}, true
	}

	if m := namedFramePattern.FindStringSubmatch(trimmed); m != nil {
		return positionedFrame(line, m[1], m[2], m[3], m[4]), true
	}
	if m := anonymousFramePattern.FindStringSubmatch(trimmed); m != nil {
		return positionedFrame(line, anonymousFunction, m[1], m[2], m[3]), true
	}
	if m := bareFramePattern.FindStringSubmatch(trimmed); m != nil {
		name := m[1]
		if name == "" {
			name = anonymousFunction
		}
		return positionedFrame(line, name, m[2], m[3], m[4]), true
	}
	return stackFrame{}, false
}

func positionedFrame(raw, name, file, line, column string) stackFrame {
	lineNum, _ := strconv.Atoi(line)
	colNum, _ := strconv.Atoi(column)
	return stackFrame{
		Raw:          raw,
		FunctionName: name,
		FileName:     file,
		LineNumber:   &lineNum,
		ColumnNumber: &colNum,
	}
}
