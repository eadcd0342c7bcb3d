package sourcemap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/vlq"
)

const testStack = `Error: boom
    at f (bundle.js:1:11)
    at g (bundle.js:1:21)
    at Array.map (native)
    at bundle.js:5:1`

// testSourceMap maps generated line 1 of bundle.js onto foo.js:
// column 10 -> foo.js 2:4, column 20 -> foo.js 6:0 with symbol "legacyName".
func testSourceMap(t *testing.T, enriched bool) []byte {
	t.Helper()

	base := &funcmap.SourceMap{
		Version: 3,
		File:    "bundle.js",
		Sources: []string{"foo.js"},
		Names:   []string{"legacyName"},
		Mappings: strings.Join([]string{
			vlq.Encode(0, 0, 0, 0),
			vlq.Encode(10, 0, 2, 4),
			vlq.Encode(10, 0, 4, -4, 0),
		}, ","),
	}
	if !enriched {
		data, err := json.Marshal(base)
		require.NoError(t, err)
		return data
	}

	out, err := funcmap.Encode(base, map[string][]funcmap.FunctionDesc{
		"foo.js": {
			funcmap.MustFunctionDesc("<top-level>", 0, 0, 9, 0),
			funcmap.MustFunctionDesc("f", 1, 0, 5, 1),
		},
	})
	require.NoError(t, err)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	return data
}

func TestSymbolicator_Frames(t *testing.T) {
	s, err := New(testSourceMap(t, true))
	require.NoError(t, err)
	assert.True(t, s.HasFunctionMappings())

	frames := s.Frames(testStack)
	require.Len(t, frames, 4)

	assert.True(t, frames[0].Mapped)
	assert.True(t, strings.HasSuffix(frames[0].OriginalFileName, "foo.js"))
	assert.Equal(t, 3, frames[0].OriginalLineNumber)
	assert.Equal(t, 5, frames[0].OriginalColumnNumber)
	assert.Equal(t, "f", frames[0].OriginalName)
	assert.Equal(t, NameFromFunctionMap, frames[0].NameOrigin)

	assert.True(t, frames[1].Mapped)
	assert.Equal(t, 7, frames[1].OriginalLineNumber)
	assert.Equal(t, "<top-level>", frames[1].OriginalName)
	assert.Equal(t, NameFromFunctionMap, frames[1].NameOrigin)

	assert.True(t, frames[2].IsNative)
	assert.False(t, frames[2].Mapped)

	assert.False(t, frames[3].Mapped)
}

func TestSymbolicator_PlainSourceMap(t *testing.T) {
	s, err := New(testSourceMap(t, false))
	require.NoError(t, err)
	assert.False(t, s.HasFunctionMappings())

	frames := s.Frames(testStack)
	require.Len(t, frames, 4)

	assert.Equal(t, "f", frames[0].OriginalName)
	assert.Equal(t, NameFromStack, frames[0].NameOrigin)
	assert.Equal(t, "legacyName", frames[1].OriginalName)
	assert.Equal(t, NameFromMappings, frames[1].NameOrigin)
}

func TestSymbolicator_InvalidFunctionMappings(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal(testSourceMap(t, true), &raw))
	raw[funcmap.MappingsField] = []any{"AB"}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = New(data)
	assert.ErrorIs(t, err, funcmap.ErrArity)
}

func TestMap(t *testing.T) {
	out, err := Map(string(testSourceMap(t, true)), testStack, false)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "    at f ("))
	assert.True(t, strings.HasSuffix(lines[0], "foo.js:3:5)"))
	assert.Contains(t, lines[1], "at <top-level> (")
	assert.Equal(t, "    at Array.map (native)", lines[2])
	assert.Equal(t, "    at bundle.js:5:1", lines[3])

	debug, err := Map(string(testSourceMap(t, true)), testStack, true)
	require.NoError(t, err)
	assert.Contains(t, debug, "✓ mapped [function-map]")
	assert.Contains(t, debug, "✗ unmapped")
}

func TestMap_InvalidSourceMap(t *testing.T) {
	_, err := Map("{", "at f (a.js:1:1)", false)
	assert.Error(t, err)
}
