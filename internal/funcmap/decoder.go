package funcmap

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yousuf/funcmap/internal/vlq"
)

// Decoder answers "which function encloses this position" for every source
// of an enriched source map. All mappings are decoded and validated when the
// Decoder is built; afterwards it is read-only and safe for concurrent use.
type Decoder struct {
	sources []string
	descs   map[string][]FunctionDesc
}

// NewDecoder validates m and decodes the function mappings of every source.
func NewDecoder(m *EnrichedSourceMap) (*Decoder, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil source map", ErrShape)
	}
	if m.FunctionMappings == nil {
		return nil, fmt.Errorf("%w: the source map does not contain the %s field", ErrShape, MappingsField)
	}
	if len(m.Sources) != len(m.FunctionMappings) {
		return nil, fmt.Errorf("%w: sources has %d elements but %s has %d",
			ErrShape, len(m.Sources), MappingsField, len(m.FunctionMappings))
	}

	dec := &Decoder{
		sources: slices.Clone(m.Sources),
		descs:   make(map[string][]FunctionDesc, len(m.Sources)),
	}
	for i, source := range m.Sources {
		var encoded string
		if p := m.FunctionMappings[i]; p != nil {
			encoded = *p
		}
		relative, err := DecodeMappings(encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", source, err)
		}
		descs, err := ToAbsolute(relative, m.Names)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", source, err)
		}
		dec.descs[source] = descs
	}
	return dec, nil
}

// DecodeMappings splits an encoded mapping string into relative records.
// An empty string yields no records.
func DecodeMappings(encoded string) ([]RelativeFunctionDesc, error) {
	if encoded == "" {
		return nil, nil
	}
	tokens := strings.Split(encoded, ",")
	relative := make([]RelativeFunctionDesc, 0, len(tokens))
	for _, token := range tokens {
		values, err := vlq.Decode(token)
		if err != nil {
			return nil, err
		}
		if len(values) != 5 {
			return nil, fmt.Errorf("%w: %q decodes to %d elements", ErrArity, token, len(values))
		}
		relative = append(relative, RelativeFunctionDesc{
			NameIndex:   values[0],
			StartLine:   values[1],
			StartColumn: values[2],
			EndLine:     values[3],
			EndColumn:   values[4],
		})
	}
	return relative, nil
}

// ToAbsolute resolves relative records against names, checking name indices,
// positions, ordering and nesting.
func ToAbsolute(relative []RelativeFunctionDesc, names []string) ([]FunctionDesc, error) {
	descs := make([]FunctionDesc, 0, len(relative))
	var (
		c       cursor
		nesting nestingChecker
	)
	for i, r := range relative {
		idx, d := c.absolutize(r)
		if idx < 0 || idx >= len(names) {
			return nil, fmt.Errorf("%w: record %d: nameIndex=%d, names.length=%d", ErrRange, i, idx, len(names))
		}
		d.Name = names[idx]
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if i > 0 && Compare(d, c.prev) < 0 {
			return nil, fmt.Errorf("%w: record %d %s starts before %s", ErrOrdering, i, d, c.prev)
		}
		if err := nesting.add(d); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		descs = append(descs, d)
		c = c.advance(d, idx)
	}
	return descs, nil
}

// Decode returns the name of the innermost function of source that encloses
// the zero-based position. ok is false when no function encloses it, which
// includes sources without function mappings. Sources missing from the map
// return ErrUnknownSource.
func (d *Decoder) Decode(source string, line, column int) (name string, ok bool, err error) {
	descs, found := d.descs[source]
	if !found {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	name, ok = FindInnermost(line, column, descs)
	return name, ok, nil
}

// Functions returns the decoded descriptors of source in start order.
func (d *Decoder) Functions(source string) ([]FunctionDesc, error) {
	descs, found := d.descs[source]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return slices.Clone(descs), nil
}

// Sources returns the sources of the decoded map in map order.
func (d *Decoder) Sources() []string {
	return slices.Clone(d.sources)
}

// HasSource reports whether source is listed in the map.
func (d *Decoder) HasSource(source string) bool {
	_, ok := d.descs[source]
	return ok
}
