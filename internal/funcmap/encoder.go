package funcmap

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/yousuf/funcmap/internal/vlq"
)

// EnvVar switches the encoder self-check on when set to "development".
const EnvVar = "FUNCMAP_ENV"

type encodeOptions struct {
	selfCheck bool
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeOptions)

// WithSelfCheck makes Encode decode its own output and fail with ErrSelfCheck
// if the decoder rejects it.
func WithSelfCheck(enabled bool) EncodeOption {
	return func(o *encodeOptions) {
		o.selfCheck = enabled
	}
}

// Encode returns m enriched with the function mappings in descs, keyed by
// source. Sources without an entry in descs get no mapping; names used by
// the descriptors are appended to the name table. m is not modified.
func Encode(m *SourceMap, descs map[string][]FunctionDesc, opts ...EncodeOption) (*EnrichedSourceMap, error) {
	o := encodeOptions{selfCheck: os.Getenv(EnvVar) == "development"}
	for _, opt := range opts {
		opt(&o)
	}

	names := CombineNames(m.Names, m.Sources, descs)
	index := nameIndex(names)

	mappings := make([]*string, len(m.Sources))
	for i, source := range m.Sources {
		sourceDescs, ok := descs[source]
		if !ok {
			continue
		}
		encoded, err := encodeSource(sourceDescs, index)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", source, err)
		}
		mappings[i] = &encoded
	}

	enriched := &EnrichedSourceMap{
		SourceMap:        cloneSourceMap(m),
		FunctionMappings: mappings,
	}
	enriched.Names = names

	if o.selfCheck {
		if _, err := NewDecoder(enriched); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSelfCheck, err)
		}
	}
	return enriched, nil
}

func encodeSource(descs []FunctionDesc, index map[string]int) (string, error) {
	relative, err := ToRelative(descs, index)
	if err != nil {
		return "", err
	}
	return EncodeRelative(relative), nil
}

// SortDescs returns a sorted copy of descs: by start position, and for equal
// starts the longer span first so that enclosing functions precede the
// functions they enclose.
func SortDescs(descs []FunctionDesc) []FunctionDesc {
	sorted := slices.Clone(descs)
	slices.SortStableFunc(sorted, func(a, b FunctionDesc) int {
		if c := Compare(a, b); c != 0 {
			return c
		}
		return comparePos(b.EndLine, b.EndColumn, a.EndLine, a.EndColumn)
	})
	return sorted
}

// ToRelative sorts descs, checks they are properly nested and converts them
// to deltas. index must hold every descriptor name.
func ToRelative(descs []FunctionDesc, index map[string]int) ([]RelativeFunctionDesc, error) {
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	sorted := SortDescs(descs)
	if err := checkNesting(sorted); err != nil {
		return nil, err
	}

	relative := make([]RelativeFunctionDesc, 0, len(sorted))
	var c cursor
	for _, d := range sorted {
		idx, ok := index[d.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not in the name table", ErrRange, d.Name)
		}
		var r RelativeFunctionDesc
		r, c = c.relativize(d, idx)
		relative = append(relative, r)
	}
	return relative, nil
}

// EncodeRelative VLQ-encodes each record and joins them with commas.
func EncodeRelative(relative []RelativeFunctionDesc) string {
	tokens := make([]string, len(relative))
	for i, r := range relative {
		tokens[i] = vlq.Encode(r.values()...)
	}
	return strings.Join(tokens, ",")
}

func cloneSourceMap(m *SourceMap) SourceMap {
	c := *m
	c.Sources = slices.Clone(m.Sources)
	c.SourcesContent = slices.Clone(m.SourcesContent)
	c.Extra = maps.Clone(m.Extra)
	return c
}
