// Package sourcemap maps JavaScript stack traces from generated code back to
// original sources. Positions are remapped with the source map's mappings;
// when the map carries function mappings, each frame is named after the
// innermost function enclosing its original position.
package sourcemap

import (
	"fmt"
	"log"
	"path"
	"strings"

	gosourcemap "github.com/go-sourcemap/sourcemap"
	"github.com/yousuf/funcmap/internal/funcmap"
)

// Symbolicator maps stack traces through one source map. It is immutable
// once built and may be shared between goroutines.
type Symbolicator struct {
	consumer *gosourcemap.Consumer
	decoder  *funcmap.Decoder
	// sources maps every spelling go-sourcemap may report for a source
	// (raw, joined with sourceRoot) to the name used in the function mappings.
	sources map[string]string
}

// New parses sourceMap. Plain source maps are accepted; frames then keep the
// symbol names found in the mappings. An enriched map whose function mappings
// are invalid is rejected.
func New(sourceMap []byte) (*Symbolicator, error) {
	consumer, err := gosourcemap.Parse("", sourceMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}

	s := &Symbolicator{consumer: consumer}
	if !funcmap.HasFunctionMappings(sourceMap) {
		return s, nil
	}

	enriched, err := funcmap.ParseEnriched(sourceMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse function mappings: %w", err)
	}
	decoder, err := funcmap.NewDecoder(enriched)
	if err != nil {
		return nil, fmt.Errorf("failed to decode function mappings: %w", err)
	}
	s.attach(decoder, enriched.SourceRoot)
	return s, nil
}

// NewWithDecoder builds a Symbolicator from a source map and an already
// decoded enriched map, so a cached decoder can be reused.
func NewWithDecoder(sourceMap []byte, decoder *funcmap.Decoder, sourceRoot string) (*Symbolicator, error) {
	consumer, err := gosourcemap.Parse("", sourceMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}
	s := &Symbolicator{consumer: consumer}
	if decoder != nil {
		s.attach(decoder, sourceRoot)
	}
	return s, nil
}

func (s *Symbolicator) attach(decoder *funcmap.Decoder, sourceRoot string) {
	s.decoder = decoder
	s.sources = make(map[string]string)
	for _, source := range decoder.Sources() {
		s.sources[source] = source
		s.sources[path.Clean(source)] = source
		if sourceRoot != "" {
			s.sources[path.Join(sourceRoot, source)] = source
			s.sources[sourceRoot+source] = source
		}
	}
}

// Map parses and maps a stack trace and formats the result. With debug set,
// each line carries its mapping status.
func Map(sourceMap string, stack string, debug bool) (string, error) {
	s, err := New([]byte(sourceMap))
	if err != nil {
		return "", err
	}
	return s.Map(stack, debug), nil
}

// Map maps a stack trace and formats the result.
func (s *Symbolicator) Map(stack string, debug bool) string {
	frames := s.Frames(stack)

	for _, frame := range frames {
		if !frame.Mapped && !frame.IsNative && frame.LineNumber != nil && frame.ColumnNumber != nil {
			log.Printf("[SYMBOLICATE] Failed to map position for %s:%d:%d",
				frame.FileName, *frame.LineNumber, *frame.ColumnNumber)
		}
	}

	if debug {
		return FormatWithMetadata(frames)
	}
	return FormatStackTrace(frames)
}

// Frames parses a stack trace and maps every frame.
func (s *Symbolicator) Frames(stack string) []MappedFrame {
	parsed := parseStackTrace(stack)
	frames := make([]MappedFrame, len(parsed))
	for i, frame := range parsed {
		frames[i] = s.mapFrame(frame)
	}
	return frames
}

// mapFrame maps a single stack frame to its original position
func (s *Symbolicator) mapFrame(frame stackFrame) MappedFrame {
	if frame.IsNative || frame.LineNumber == nil || frame.ColumnNumber == nil {
		return MappedFrame{stackFrame: frame}
	}

	// go-sourcemap expects 1-indexed lines and 0-indexed columns
	file, symbol, line, col, ok := s.consumer.Source(*frame.LineNumber, *frame.ColumnNumber-1)
	if !ok || file == "" || line <= 0 {
		return MappedFrame{stackFrame: frame}
	}

	mapped := MappedFrame{
		stackFrame:           frame,
		OriginalFileName:     file,
		OriginalLineNumber:   line,
		OriginalColumnNumber: col + 1,
		OriginalName:         frame.FunctionName,
		NameOrigin:           NameFromStack,
		Mapped:               true,
	}
	if symbol != "" {
		mapped.OriginalName = symbol
		mapped.NameOrigin = NameFromMappings
	}
	if name, ok := s.enclosingFunction(file, line-1, col); ok {
		mapped.OriginalName = name
		mapped.NameOrigin = NameFromFunctionMap
	}
	return mapped
}

// enclosingFunction looks up the zero-based original position in the
// function mappings.
func (s *Symbolicator) enclosingFunction(file string, line, column int) (string, bool) {
	if s.decoder == nil {
		return "", false
	}
	source, ok := s.sources[file]
	if !ok {
		source, ok = s.sources[strings.TrimPrefix(file, "/")]
	}
	if !ok {
		return "", false
	}
	name, ok, err := s.decoder.Decode(source, line, column)
	if err != nil {
		return "", false
	}
	return name, ok
}

// HasFunctionMappings reports whether frames are named from function mappings.
func (s *Symbolicator) HasFunctionMappings() bool {
	return s.decoder != nil
}
