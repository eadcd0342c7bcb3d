package funcmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFunctionDesc(t *testing.T) {
	tests := []struct {
		name    string
		coords  [4]int
		wantErr bool
	}{
		{"multi-line", [4]int{1, 4, 3, 0}, false},
		{"single line", [4]int{2, 4, 2, 16}, false},
		{"empty span", [4]int{2, 4, 2, 4}, false},
		{"negative start line", [4]int{-1, 0, 2, 0}, true},
		{"negative end column", [4]int{0, 0, 2, -1}, true},
		{"end line before start line", [4]int{5, 0, 4, 9}, true},
		{"end column before start column", [4]int{5, 10, 5, 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.coords
			d, err := NewFunctionDesc("f", c[0], c[1], c[2], c[3])
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPosition)
				assert.Equal(t, FunctionDesc{}, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FunctionDesc{Name: "f", StartLine: c[0], StartColumn: c[1], EndLine: c[2], EndColumn: c[3]}, d)
		})
	}
}

func TestFunctionDesc_UnmarshalJSON(t *testing.T) {
	var d FunctionDesc
	err := json.Unmarshal([]byte(`{"name":"f1","startLine":1,"startColumn":2,"endLine":3,"endColumn":4}`), &d)
	require.NoError(t, err)
	assert.Equal(t, MustFunctionDesc("f1", 1, 2, 3, 4), d)

	err = json.Unmarshal([]byte(`{"name":"f1","startLine":3,"startColumn":2,"endLine":1,"endColumn":4}`), &d)
	assert.ErrorIs(t, err, ErrPosition)
}

func TestCompare(t *testing.T) {
	a := MustFunctionDesc("f1", 10, 4, 20, 10)

	assert.Equal(t, 0, Compare(a, MustFunctionDesc("f2", 10, 4, 20, 10)))
	assert.Equal(t, -1, Compare(a, MustFunctionDesc("f2", 22, 0, 42, 0)))
	assert.Equal(t, -1, Compare(a, MustFunctionDesc("f2", 10, 8, 20, 8)))
	assert.Equal(t, 1, Compare(a, MustFunctionDesc("f3", 8, 0, 9, 0)))
	assert.Equal(t, 1, Compare(a, MustFunctionDesc("f4", 10, 0, 10, 3)))
}

func TestPartialOverlap(t *testing.T) {
	outer := MustFunctionDesc("outer", 1, 0, 10, 0)

	tests := []struct {
		name  string
		other FunctionDesc
		want  bool
	}{
		{"nested", MustFunctionDesc("in", 2, 0, 3, 0), false},
		{"disjoint", MustFunctionDesc("after", 11, 0, 12, 0), false},
		{"touching end", MustFunctionDesc("touch", 10, 0, 12, 0), false},
		{"same span", MustFunctionDesc("same", 1, 0, 10, 0), false},
		{"same start, longer", MustFunctionDesc("longer", 1, 0, 11, 0), false},
		{"same start, shorter", MustFunctionDesc("shorter", 1, 0, 4, 0), false},
		{"same end, starts before", MustFunctionDesc("wider", 0, 0, 10, 0), false},
		{"crosses end", MustFunctionDesc("cross", 5, 0, 15, 0), true},
		{"starts before, ends inside", MustFunctionDesc("before", 0, 0, 5, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartialOverlap(tt.other, outer))
			assert.Equal(t, tt.want, PartialOverlap(outer, tt.other), "argument order")
		})
	}
}

func TestEncloses(t *testing.T) {
	outer := MustFunctionDesc("outer", 0, 0, 1, 2)
	inner := MustFunctionDesc("inner", 0, 0, 1, 0)

	assert.True(t, outer.Encloses(inner))
	assert.False(t, inner.Encloses(outer))
	assert.True(t, outer.Encloses(outer))
	assert.False(t, PartialOverlap(outer, inner))
	assert.False(t, PartialOverlap(inner, outer))
}

func TestContains_BoundaryInclusive(t *testing.T) {
	d := MustFunctionDesc("f", 1, 4, 1, 16)

	assert.True(t, d.Contains(1, 4))
	assert.True(t, d.Contains(1, 16))
	assert.False(t, d.Contains(1, 3))
	assert.False(t, d.Contains(1, 17))
	assert.False(t, d.Contains(0, 5))
}

func TestContains_MultiLine(t *testing.T) {
	d := MustFunctionDesc("f", 4, 5, 6, 3)

	assert.True(t, d.Contains(5, 0), "interior line ignores column")
	assert.True(t, d.Contains(5, 1000))
	assert.True(t, d.Contains(4, 5))
	assert.False(t, d.Contains(4, 4))
	assert.True(t, d.Contains(6, 3))
	assert.False(t, d.Contains(6, 4))
	assert.False(t, d.Contains(7, 0))
}
