package funcmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enrichedJSON = `{
	"version": 3,
	"file": "out.js",
	"sourceRoot": "src/",
	"sources": ["foo.js", "bar.js"],
	"sourcesContent": [null, "function bar() {}"],
	"names": ["bar"],
	"mappings": "AAAA",
	"x_google_ignoreList": [0],
	"x_com_bloomberg_sourcesFunctionMappings": [null, "AAAAS"]
}`

func TestParseEnriched(t *testing.T) {
	m, err := ParseEnriched([]byte(enrichedJSON))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Version)
	assert.Equal(t, "out.js", m.File)
	assert.Equal(t, "src/", m.SourceRoot)
	assert.Equal(t, []string{"foo.js", "bar.js"}, m.Sources)
	assert.Equal(t, []string{"bar"}, m.Names)
	require.Len(t, m.SourcesContent, 2)
	assert.Nil(t, m.SourcesContent[0])
	require.Len(t, m.FunctionMappings, 2)
	assert.Nil(t, m.FunctionMappings[0])
	assert.Equal(t, "AAAAS", *m.FunctionMappings[1])
	assert.JSONEq(t, `[0]`, string(m.Extra["x_google_ignoreList"]))

	dec, err := NewDecoder(m)
	require.NoError(t, err)
	name, ok, err := dec.Decode("bar.js", 0, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bar", name)
}

func TestEnrichedSourceMap_MarshalJSON(t *testing.T) {
	m, err := ParseEnriched([]byte(enrichedJSON))
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	assert.JSONEq(t, enrichedJSON, string(out))
}

func TestParseEnriched_Shape(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not an object", `[1, 2]`},
		{"sources not an array", `{"sources": "a.js", "names": [], "x_com_bloomberg_sourcesFunctionMappings": [null]}`},
		{"sources missing", `{"names": [], "x_com_bloomberg_sourcesFunctionMappings": []}`},
		{"names not an array", `{"sources": [], "names": {}, "x_com_bloomberg_sourcesFunctionMappings": []}`},
		{"mappings field missing", `{"sources": ["a.js"], "names": []}`},
		{"mappings field null", `{"sources": ["a.js"], "names": [], "x_com_bloomberg_sourcesFunctionMappings": null}`},
		{"mappings field not an array", `{"sources": ["a.js"], "names": [], "x_com_bloomberg_sourcesFunctionMappings": "AAAAA"}`},
		{"mapping element not a string", `{"sources": ["a.js"], "names": [], "x_com_bloomberg_sourcesFunctionMappings": [7]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnriched([]byte(tt.json))
			assert.ErrorIs(t, err, ErrShape)
		})
	}
}

func TestParseEnriched_LengthMismatch(t *testing.T) {
	m, err := ParseEnriched([]byte(`{"version":3,"sources":["a.js","b.js"],"names":[],"mappings":"","x_com_bloomberg_sourcesFunctionMappings":[""]}`))
	require.NoError(t, err)

	_, err = NewDecoder(m)
	assert.ErrorIs(t, err, ErrShape)
}

func TestParseSourceMap(t *testing.T) {
	m, err := ParseSourceMap([]byte(`{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, m.Sources)
	assert.Nil(t, m.Extra)

	_, err = ParseSourceMap([]byte(`{"version":3,"sources":"a.js","names":[]}`))
	assert.ErrorIs(t, err, ErrShape)
}

func TestLoadDescriptors(t *testing.T) {
	jsonDoc := `{"a.js": [{"name": "<top-level>", "startLine": 0, "startColumn": 0, "endLine": 4, "endColumn": 1}]}`
	yamlDoc := `
a.js:
  - name: <top-level>
    startLine: 0
    startColumn: 0
    endLine: 4
    endColumn: 1
`
	want := map[string][]FunctionDesc{"a.js": {MustFunctionDesc("<top-level>", 0, 0, 4, 1)}}

	for name, doc := range map[string]string{"json": jsonDoc, "yaml": yamlDoc} {
		got, err := LoadDescriptors([]byte(doc))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := LoadDescriptors([]byte("a.js:\n  - {name: f, startLine: 3, startColumn: 0, endLine: 1, endColumn: 0}\n"))
	assert.ErrorIs(t, err, ErrPosition)
}

func TestHasFunctionMappings(t *testing.T) {
	assert.True(t, HasFunctionMappings([]byte(enrichedJSON)))
	assert.False(t, HasFunctionMappings([]byte(`{"version":3,"sources":[],"names":[],"mappings":""}`)))
	assert.False(t, HasFunctionMappings([]byte(`not json`)))
}

func TestParseAny(t *testing.T) {
	m, err := ParseAny([]byte(enrichedJSON))
	require.NoError(t, err)
	assert.True(t, m.Enriched())

	plain, err := ParseAny([]byte(`{"version": 3, "sources": ["a.js"], "names": [], "mappings": "AAAA"}`))
	require.NoError(t, err)
	assert.False(t, plain.Enriched())
	assert.Equal(t, []string{"a.js"}, plain.Sources)

	out, err := json.Marshal(plain)
	require.NoError(t, err)
	assert.False(t, HasFunctionMappings(out), "plain maps are written without the function mappings field")

	_, err = ParseAny([]byte(`{"sources": 1}`))
	assert.ErrorIs(t, err, ErrShape)
}
