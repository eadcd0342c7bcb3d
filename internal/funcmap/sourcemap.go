package funcmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MappingsField is the source map key holding the encoded function mappings.
const MappingsField = "x_com_bloomberg_sourcesFunctionMappings"

// SourceMap is a revision 3 source map. Keys this package does not know about
// are kept in Extra and written back unchanged.
type SourceMap struct {
	Version        int
	File           string
	SourceRoot     string
	Sources        []string
	SourcesContent []*string
	Names          []string
	Mappings       string
	Extra          map[string]json.RawMessage
}

// EnrichedSourceMap is a SourceMap carrying function mappings. FunctionMappings
// is parallel to Sources: a nil element means the source has no function
// information, an empty string means it has no functions.
type EnrichedSourceMap struct {
	SourceMap
	FunctionMappings []*string
}

var knownFields = map[string]bool{
	"version":        true,
	"file":           true,
	"sourceRoot":     true,
	"sources":        true,
	"sourcesContent": true,
	"names":          true,
	"mappings":       true,
	MappingsField:    true,
}

// ParseSourceMap decodes a source map, checking that sources and names are
// arrays.
func ParseSourceMap(data []byte) (*SourceMap, error) {
	var m SourceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseEnriched decodes an enriched source map. Structural problems, including
// a missing or mistyped function mappings field, are reported as ErrShape.
func ParseEnriched(data []byte) (*EnrichedSourceMap, error) {
	var m EnrichedSourceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *SourceMap) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	return m.fromRaw(raw)
}

func (m *SourceMap) fromRaw(raw map[string]json.RawMessage) error {
	var sm SourceMap
	if err := decodeField(raw, "version", &sm.Version); err != nil {
		return err
	}
	if err := decodeField(raw, "file", &sm.File); err != nil {
		return err
	}
	if err := decodeField(raw, "sourceRoot", &sm.SourceRoot); err != nil {
		return err
	}
	if err := decodeField(raw, "mappings", &sm.Mappings); err != nil {
		return err
	}
	if err := decodeField(raw, "sourcesContent", &sm.SourcesContent); err != nil {
		return err
	}
	if err := decodeArray(raw, "sources", &sm.Sources); err != nil {
		return err
	}
	if err := decodeArray(raw, "names", &sm.Names); err != nil {
		return err
	}
	for k, v := range raw {
		if knownFields[k] {
			continue
		}
		if sm.Extra == nil {
			sm.Extra = make(map[string]json.RawMessage)
		}
		sm.Extra[k] = v
	}
	*m = sm
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *EnrichedSourceMap) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	var em EnrichedSourceMap
	if err := em.SourceMap.fromRaw(raw); err != nil {
		return err
	}
	field, ok := raw[MappingsField]
	if !ok || isNull(field) {
		return fmt.Errorf("%w: the source map does not contain the %s field", ErrShape, MappingsField)
	}
	if err := decodeArray(raw, MappingsField, &em.FunctionMappings); err != nil {
		return err
	}
	*m = em
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m SourceMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toRaw())
}

// MarshalJSON implements json.Marshaler. A nil FunctionMappings marks a map
// that has not been enriched yet; the field is then left out.
func (m EnrichedSourceMap) MarshalJSON() ([]byte, error) {
	raw := m.SourceMap.toRaw()
	if m.FunctionMappings != nil {
		raw[MappingsField] = m.FunctionMappings
	}
	return json.Marshal(raw)
}

// ParseAny parses an enriched map, or a plain map whose FunctionMappings is
// then nil.
func ParseAny(data []byte) (*EnrichedSourceMap, error) {
	if HasFunctionMappings(data) {
		return ParseEnriched(data)
	}
	sm, err := ParseSourceMap(data)
	if err != nil {
		return nil, err
	}
	return &EnrichedSourceMap{SourceMap: *sm}, nil
}

// Enriched reports whether the map carries function mappings.
func (m *EnrichedSourceMap) Enriched() bool {
	return m.FunctionMappings != nil
}

func (m SourceMap) toRaw() map[string]any {
	raw := make(map[string]any, len(m.Extra)+7)
	for k, v := range m.Extra {
		raw[k] = v
	}
	raw["version"] = m.Version
	raw["sources"] = nonNil(m.Sources)
	raw["names"] = nonNil(m.Names)
	raw["mappings"] = m.Mappings
	if m.File != "" {
		raw["file"] = m.File
	}
	if m.SourceRoot != "" {
		raw["sourceRoot"] = m.SourceRoot
	}
	if m.SourcesContent != nil {
		raw["sourcesContent"] = m.SourcesContent
	}
	return raw
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: source map is not an object", ErrShape)
	}
	return raw, nil
}

func decodeField(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrShape, key, err)
	}
	return nil
}

// decodeArray requires key to be present and hold a JSON array.
func decodeArray(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok {
		return fmt.Errorf("%w: %s is missing", ErrShape, key)
	}
	if t := bytes.TrimSpace(v); len(t) == 0 || t[0] != '[' {
		return fmt.Errorf("%w: %s is not an array", ErrShape, key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrShape, key, err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// HasFunctionMappings reports whether data is a JSON object carrying the
// function mappings field, without validating anything else.
func HasFunctionMappings(data []byte) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	_, ok := raw[MappingsField]
	return ok
}
