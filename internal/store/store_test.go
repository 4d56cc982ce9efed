package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/edgebreaker/pkg/edgebreaker"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/mesh/meshtest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func encode(t *testing.T, m *mesh.Mesh) []byte {
	t.Helper()
	data, err := edgebreaker.Encode(m, edgebreaker.DefaultOptions())
	require.NoError(t, err)
	return data
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	m := meshtest.Torus(6, 4)
	data := encode(t, m)

	entry, err := s.Put("torus", data)
	require.NoError(t, err)
	assert.Equal(t, len(data), entry.Size)
	assert.Equal(t, m.NumFaces(), entry.Info.NumFaces)

	got, err := s.Get("torus")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	back, err := edgebreaker.Decode(got)
	require.NoError(t, err)
	assert.True(t, mesh.Equivalent(m, back))
}

func TestStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	data := encode(t, meshtest.Tetrahedron())

	s, err := Open(dir, nil)
	require.NoError(t, err)
	_, err = s.Put("tetra", data)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get("tetra")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStore_ListAndDelete(t *testing.T) {
	s := openTestStore(t)
	for name, m := range map[string]*mesh.Mesh{
		"b-grid":     meshtest.Grid(2, 2),
		"a-triangle": meshtest.Triangle(),
		"c-tetra":    meshtest.Tetrahedron(),
	} {
		_, err := s.Put(name, encode(t, m))
		require.NoError(t, err)
	}

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a-triangle", entries[0].Name)
	assert.Equal(t, 1, entries[0].Info.NumFaces)
	assert.Equal(t, 8, entries[1].Info.NumFaces)

	require.NoError(t, s.Delete("b-grid"))
	require.NoError(t, s.Delete("missing"))
	entries, err = s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = s.Get("b-grid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Put("", encode(t, meshtest.Triangle()))
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = s.Put("junk", []byte("not a mesh"))
	assert.ErrorIs(t, err, edgebreaker.ErrMalformed)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
