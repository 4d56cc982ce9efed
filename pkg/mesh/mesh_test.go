package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/mesh/meshtest"
)

// seamQuad builds a quad of two triangles where each face owns its three
// points. Positions are shared across the diagonal; tex coords are shared
// only when sharedTex is set.
func seamQuad(sharedTex bool) *mesh.Mesh {
	m := mesh.New()
	pos := mesh.NewAttribute(mesh.AttributePosition, meshtest.PositionStride)
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		pos.AddValue(meshtest.EncodePosition(p))
	}
	pos.SetExplicitMapping(6)
	for p, v := range []mesh.AttributeValueIndex{0, 1, 2, 0, 2, 3} {
		pos.SetPointMapEntry(mesh.PointIndex(p), v)
	}
	m.AddAttribute(pos)

	tex := mesh.NewAttribute(mesh.AttributeTexCoord, 2)
	if sharedTex {
		for i := 0; i < 4; i++ {
			tex.AddValue([]byte{byte(i), 0})
		}
		tex.SetExplicitMapping(6)
		for p, v := range []mesh.AttributeValueIndex{0, 1, 2, 0, 2, 3} {
			tex.SetPointMapEntry(mesh.PointIndex(p), v)
		}
	} else {
		for i := 0; i < 6; i++ {
			tex.AddValue([]byte{byte(i), 1})
		}
	}
	m.AddAttribute(tex)

	m.SetNumPoints(6)
	m.AddFace(mesh.Face{0, 1, 2})
	m.AddFace(mesh.Face{3, 4, 5})
	return m
}

func TestMeshAttributeCornerTable_Seams(t *testing.T) {
	tests := []struct {
		name            string
		sharedTex       bool
		numVertices     int
		noInteriorSeams bool
	}{
		{"shared tex coords", true, 4, true},
		{"split tex coords", false, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := seamQuad(tt.sharedTex)
			base, err := mesh.CreateCornerTableFromPositionAttribute(m)
			require.NoError(t, err)
			require.Equal(t, 4, base.NumVertices())
			require.Equal(t, mesh.CornerIndex(5), base.Opposite(1))

			att, err := mesh.NewMeshAttributeCornerTableFromAttribute(m, base, m.Attribute(1))
			require.NoError(t, err)
			assert.Equal(t, tt.numVertices, att.NumVertices())
			assert.Equal(t, tt.noInteriorSeams, att.NoInteriorSeams())

			if tt.sharedTex {
				assert.Equal(t, mesh.CornerIndex(5), att.Opposite(1))
			} else {
				assert.Equal(t, mesh.InvalidCornerIndex, att.Opposite(1))
				assert.True(t, att.IsCornerOppositeToSeamEdge(5))
				assert.True(t, att.IsCornerOnSeam(0))
				assert.NotEqual(t, att.Vertex(0), att.Vertex(3))
			}
			for v := mesh.VertexIndex(0); int(v) < att.NumVertices(); v++ {
				c := att.LeftMostCorner(v)
				assert.Equal(t, v, att.Vertex(c))
				assert.Equal(t, att.VertexValue(v), m.Attribute(1).MappedIndex(m.CornerToPointID(c)))
			}
		})
	}
}

func TestMeshAttributeCornerTable_AddSeamEdge(t *testing.T) {
	m := seamQuad(true)
	base, err := mesh.CreateCornerTableFromPositionAttribute(m)
	require.NoError(t, err)

	att := mesh.NewMeshAttributeCornerTable(base)
	att.AddSeamEdge(1)
	require.NoError(t, att.RecomputeVertices(nil, nil))
	assert.False(t, att.NoInteriorSeams())
	assert.Equal(t, 6, att.NumVertices())
	assert.Equal(t, 2, att.Valence(att.Vertex(0)))
}

func TestCreateCornerTableFromAllAttributes(t *testing.T) {
	m := seamQuad(false)
	ct, err := mesh.CreateCornerTableFromAllAttributes(m)
	require.NoError(t, err)
	assert.Equal(t, 6, ct.NumVertices())
	assert.Equal(t, mesh.InvalidCornerIndex, ct.Opposite(1))
}

func TestCreateCornerTable_MissingPosition(t *testing.T) {
	m := mesh.New()
	m.AddFace(mesh.Face{0, 1, 2})
	_, err := mesh.CreateCornerTableFromPositionAttribute(m)
	assert.ErrorIs(t, err, mesh.ErrInvalidMesh)
}

func TestMesh_DeduplicatePointIDs(t *testing.T) {
	m := meshtest.FromFaces([][3]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0},
		{0, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}, [][3]int{{0, 1, 2}, {3, 4, 5}})
	orig := meshtest.FromFaces([][3]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0},
		{0, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}, [][3]int{{0, 1, 2}, {3, 4, 5}})

	m.DeduplicatePointIDs()
	assert.Equal(t, 4, m.NumPoints())
	assert.Equal(t, 4, m.Attribute(0).NumValues())
	assert.Equal(t, m.Face(0)[0], m.Face(1)[0])
	assert.True(t, mesh.Equivalent(orig, m))

	ct, err := mesh.CreateCornerTableFromPositionAttribute(m)
	require.NoError(t, err)
	assert.Equal(t, mesh.CornerIndex(5), ct.Opposite(1))
}

func TestEquivalent(t *testing.T) {
	a := meshtest.Tetrahedron()
	b := meshtest.FromFaces([][3]float32{{0, 0, 1}, {0, 1, 0}, {1, 0, 0}, {0, 0, 0}},
		[][3]int{{1, 0, 3}, {3, 2, 1}, {2, 3, 0}, {2, 0, 1}})
	assert.True(t, mesh.Equivalent(a, b))

	flipped := meshtest.FromFaces([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		[][3]int{{0, 2, 1}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}})
	assert.False(t, mesh.Equivalent(a, flipped))
	assert.False(t, mesh.Equivalent(a, meshtest.Triangle()))
}
