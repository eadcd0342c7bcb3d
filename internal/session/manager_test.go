package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/store"
)

func plainMap() *funcmap.EnrichedSourceMap {
	return &funcmap.EnrichedSourceMap{
		SourceMap: funcmap.SourceMap{
			Version:  3,
			File:     "bundle.js",
			Sources:  []string{"app.js"},
			Names:    []string{},
			Mappings: "AAAA",
		},
	}
}

func appDescs() map[string][]funcmap.FunctionDesc {
	return map[string][]funcmap.FunctionDesc{
		"app.js": {
			funcmap.MustFunctionDesc("<top-level>", 0, 0, 20, 0),
			funcmap.MustFunctionDesc("handler", 2, 0, 8, 1),
		},
	}
}

func TestManager_GetOrCreateSession(t *testing.T) {
	m := NewManager(store.NewMemory())

	s1, err := m.GetOrCreateSession(context.Background(), "abc")
	require.NoError(t, err)
	s2, err := m.GetOrCreateSession(context.Background(), "abc")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Same(t, s1, m.GetSession("abc"))
	assert.Nil(t, m.GetSession("other"))
	assert.Equal(t, 1, m.SessionCount())
}

func TestManager_GetOrCreateSession_Concurrent(t *testing.T) {
	m := NewManager(store.NewMemory())

	var wg sync.WaitGroup
	got := make([]*Context, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = m.GetOrCreateSession(context.Background(), "shared")
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
}

func TestManager_DeleteSession(t *testing.T) {
	m := NewManager(store.NewMemory())
	_, err := m.GetOrCreateSession(context.Background(), "abc")
	require.NoError(t, err)

	require.NoError(t, m.DeleteSession("abc"))
	assert.Error(t, m.DeleteSession("abc"))

	_, err = m.GetOrCreateSession(context.Background(), "x")
	require.NoError(t, err)
	require.NoError(t, m.CloseAll())
	assert.Equal(t, 0, m.SessionCount())
}

func TestManager_Enrich(t *testing.T) {
	// Arrange
	m := NewManager(store.NewMemory(), WithDevelopment(true))
	require.NoError(t, m.PutMap("bundle", plainMap()))

	entry, err := m.Entry("bundle")
	require.NoError(t, err)
	assert.Nil(t, entry.Decoder, "plain maps have no decoder")

	// Act
	enriched, err := m.Enrich("bundle", "", appDescs())

	// Assert
	require.NoError(t, err)
	assert.True(t, enriched.Enriched())

	entry, err = m.Entry("bundle")
	require.NoError(t, err)
	require.NotNil(t, entry.Decoder, "cache is invalidated on store")
	name, ok, err := entry.Decoder.Decode("app.js", 4, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "handler", name)
}

func TestManager_EnrichTarget(t *testing.T) {
	m := NewManager(store.NewMemory())
	require.NoError(t, m.PutMap("bundle", plainMap()))

	_, err := m.Enrich("bundle", "bundle.enriched", appDescs())
	require.NoError(t, err)

	names, err := m.Store().List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bundle", "bundle.enriched"}, names)

	original, err := m.Entry("bundle")
	require.NoError(t, err)
	assert.False(t, original.Map.Enriched())
}

func TestManager_EnrichErrors(t *testing.T) {
	m := NewManager(store.NewMemory())

	_, err := m.Enrich("missing", "", appDescs())
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.PutMap("bundle", plainMap()))
	_, err = m.Enrich("bundle", "", map[string][]funcmap.FunctionDesc{
		"app.js": {
			funcmap.MustFunctionDesc("a", 0, 0, 10, 0),
			funcmap.MustFunctionDesc("b", 5, 0, 15, 0),
		},
	})
	assert.ErrorIs(t, err, funcmap.ErrNesting)
}

func TestManager_DeleteMap(t *testing.T) {
	m := NewManager(store.NewMemory())
	require.NoError(t, m.PutMap("bundle", plainMap()))
	_, err := m.Entry("bundle")
	require.NoError(t, err)

	require.NoError(t, m.DeleteMap("bundle"))

	_, err = m.Entry("bundle")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, m.DeleteMap("bundle"), store.ErrNotFound)
}
