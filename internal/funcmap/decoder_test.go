package funcmap

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestDecodeMappings(t *testing.T) {
	got, err := DecodeMappings("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = DecodeMappings("AAAWM")
	require.NoError(t, err)
	assert.Equal(t, []RelativeFunctionDesc{{0, 0, 0, 11, 6}}, got)

	got, err = DecodeMappings("AAAWM,CVcEL,ECEKA")
	require.NoError(t, err)
	assert.Equal(t, []RelativeFunctionDesc{
		{0, 0, 0, 11, 6},
		{1, -10, 14, 2, -5},
		{2, 1, 2, 5, 0},
	}, got)
}

func TestDecodeMappings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    error
	}{
		{"two elements", "AB", ErrArity},
		{"three elements", "XHF", ErrArity},
		{"seven elements", "AAAAAAA", ErrArity},
		{"empty record", "AAAAA,", ErrArity},
		{"illegal characters", "%£@", ErrCodec},
		{"unterminated sequence", "ASFs", ErrCodec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMappings(tt.encoded)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToAbsolute(t *testing.T) {
	relative := []RelativeFunctionDesc{
		{5, 0, 0, 11, 6},
		{1, -10, 14, 2, -5},
		{-3, 1, 2, 5, 0},
		{4, -4, 0, 2, 5},
	}

	got, err := ToAbsolute(relative, simpleNames)
	require.NoError(t, err)
	assert.Equal(t, simpleDescs(), got)

	got, err = ToAbsolute(nil, simpleNames)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestToAbsolute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		relative []RelativeFunctionDesc
		want     error
	}{
		{"negative positions", []RelativeFunctionDesc{{0, -1, 0, -1, 0}}, ErrPosition},
		{"start line after end line", []RelativeFunctionDesc{{0, 10, 0, -5, 0}}, ErrPosition},
		{"start column after end column", []RelativeFunctionDesc{{0, 10, 5, 0, 0}}, ErrPosition},
		{"negative name index", []RelativeFunctionDesc{{-4, 0, 0, 0, 0}}, ErrRange},
		{"negative name index second", []RelativeFunctionDesc{{2, 0, 0, 0, 0}, {-3, 2, 5, 2, 5}}, ErrRange},
		{"name index too large", []RelativeFunctionDesc{{20, 0, 0, 0, 0}}, ErrRange},
		{"name index too large second", []RelativeFunctionDesc{{5, 0, 0, 0, 0}, {15, 2, 2, 10, 10}}, ErrRange},
		{"not ordered", []RelativeFunctionDesc{{0, 0, 0, 1, 0}, {1, 10, 0, 10, 0}, {1, -15, 0, 3, 0}}, ErrOrdering},
		{"bad nesting", []RelativeFunctionDesc{{0, 0, 0, 1, 0}, {1, 10, 0, 10, 0}, {1, -5, 0, 10, 0}}, ErrNesting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToAbsolute(tt.relative, simpleNames)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// relativeUnchecked encodes descs in the given order without the encoder's
// nesting check, the way a foreign producer might.
func relativeUnchecked(descs []FunctionDesc, names []string) string {
	index := nameIndex(names)
	var (
		c   cursor
		out []RelativeFunctionDesc
	)
	for _, d := range descs {
		var r RelativeFunctionDesc
		r, c = c.relativize(d, index[d.Name])
		out = append(out, r)
	}
	return EncodeRelative(out)
}

func TestNewDecoder_RejectsHiddenOverlap(t *testing.T) {
	names := []string{"a", "b", "c"}
	encoded := relativeUnchecked([]FunctionDesc{
		MustFunctionDesc("a", 0, 0, 10, 0),
		MustFunctionDesc("b", 1, 0, 2, 0),
		MustFunctionDesc("c", 5, 0, 15, 0),
	}, names)

	m := &EnrichedSourceMap{
		SourceMap:        SourceMap{Version: 3, Sources: []string{"x.js"}, Names: names},
		FunctionMappings: []*string{&encoded},
	}

	_, err := NewDecoder(m)
	assert.ErrorIs(t, err, ErrNesting)
}

func TestNewDecoder_Shape(t *testing.T) {
	_, err := NewDecoder(nil)
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewDecoder(&EnrichedSourceMap{SourceMap: SourceMap{Sources: []string{"a.js"}}})
	assert.ErrorIs(t, err, ErrShape, "missing mappings field")

	_, err = NewDecoder(&EnrichedSourceMap{
		SourceMap:        SourceMap{Sources: []string{"a.js", "b.js"}},
		FunctionMappings: []*string{nil},
	})
	assert.ErrorIs(t, err, ErrShape, "length mismatch")
}

func TestNewDecoder_BadMapping(t *testing.T) {
	m := &EnrichedSourceMap{
		SourceMap:        SourceMap{Sources: []string{"foo.js"}, Names: []string{"f"}},
		FunctionMappings: []*string{strp("AAAWM,AB")},
	}

	_, err := NewDecoder(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArity)
	assert.Contains(t, err.Error(), "foo.js")
}

func TestDecoder_Decode(t *testing.T) {
	m := &EnrichedSourceMap{
		SourceMap: SourceMap{
			Version: 3,
			Sources: []string{"foo.js", "bob.js", "simple.js"},
			Names:   simpleNames,
		},
		FunctionMappings: []*string{strp(""), nil, strp("KAAWM,CVcEL,HCEKA,IJAEK")},
	}
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	_, _, err = dec.Decode("bar.js", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownSource)

	for _, source := range []string{"foo.js", "bob.js"} {
		name, ok, err := dec.Decode(source, 1, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, name)
	}

	tests := []struct {
		line, column int
		want         string
	}{
		{0, 5, "<top-level>"},
		{1, 13, "<top-level>"},
		{1, 14, "f1"},
		{2, 0, "f1"},
		{4, 20, "real"},
		{6, 1, "<anonymous>"},
		{8, 1, "real"},
		{11, 1, "<top-level>"},
	}
	for _, tt := range tests {
		name, ok, err := dec.Decode("simple.js", tt.line, tt.column)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, tt.want, name, "at %d:%d", tt.line, tt.column)
	}

	_, ok, err := dec.Decode("simple.js", 50, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecoder_EmptySources(t *testing.T) {
	dec, err := NewDecoder(&EnrichedSourceMap{FunctionMappings: []*string{}})
	require.NoError(t, err)

	_, _, err = dec.Decode("foo.js", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Empty(t, dec.Sources())
}

func TestDecoder_Functions(t *testing.T) {
	m := &EnrichedSourceMap{
		SourceMap:        SourceMap{Sources: []string{"simple.js"}, Names: simpleNames},
		FunctionMappings: []*string{strp("KAAWM,CVcEL,HCEKA,IJAEK")},
	}
	dec, err := NewDecoder(m)
	require.NoError(t, err)

	got, err := dec.Functions("simple.js")
	require.NoError(t, err)
	assert.Equal(t, simpleDescs(), got)

	got[0].Name = "mutated"
	again, _ := dec.Functions("simple.js")
	assert.Equal(t, "<top-level>", again[0].Name)

	_, err = dec.Functions("nope.js")
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.True(t, dec.HasSource("simple.js"))
	assert.Equal(t, []string{"simple.js"}, dec.Sources())
}

func TestRoundTrip(t *testing.T) {
	input := map[string][]FunctionDesc{
		"a.js": {
			MustFunctionDesc("x", 10, 0, 18, 1),
			MustFunctionDesc("<anonymous>", 5, 10, 5, 20),
			MustFunctionDesc("f2", 4, 5, 6, 3),
			MustFunctionDesc("<top-level>", 0, 0, 21, 0),
			MustFunctionDesc("f1", 1, 0, 8, 0),
		},
		"b.js": {
			MustFunctionDesc("<top-level>", 0, 0, 10, 0),
			MustFunctionDesc("f3", 1, 4, 1, 16),
			MustFunctionDesc("f2", 1, 2, 1, 18),
			MustFunctionDesc("f1", 1, 0, 1, 20),
			MustFunctionDesc("same", 3, 0, 3, 0),
			MustFunctionDesc("wrap", 3, 0, 4, 0),
		},
		"c.js": {},
	}
	m := &SourceMap{Version: 3, Sources: []string{"a.js", "b.js", "c.js", "d.js"}, Names: []string{"f2", "unused"}}

	enriched, err := Encode(m, input, WithSelfCheck(true))
	require.NoError(t, err)
	dec, err := NewDecoder(enriched)
	require.NoError(t, err)

	for source, descs := range input {
		got, err := dec.Functions(source)
		require.NoError(t, err)
		want := SortDescs(descs)
		if len(want) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, want, got, source)
	}

	got, err := dec.Functions("d.js")
	require.NoError(t, err)
	assert.Empty(t, got)

	name, ok, err := dec.Decode("a.js", 5, 12)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<anonymous>", name)
	assert.True(t, slices.Contains(enriched.Names, "wrap"))
}

func TestDecoder_ConcurrentQueries(t *testing.T) {
	enriched, err := Encode(simpleSourceMap(), map[string][]FunctionDesc{"simple.js": simpleDescs()})
	require.NoError(t, err)
	dec, err := NewDecoder(enriched)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for line := 0; line < 12; line++ {
				_, _, err := dec.Decode("simple.js", line, 0)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
