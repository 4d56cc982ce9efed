package traverser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/mesh/meshtest"
)

type recorder struct {
	faces    []mesh.FaceIndex
	vertices []mesh.VertexIndex
	corners  []mesh.CornerIndex
}

func (r *recorder) OnNewFaceVisited(f mesh.FaceIndex) { r.faces = append(r.faces, f) }

func (r *recorder) OnNewVertexVisited(v mesh.VertexIndex, c mesh.CornerIndex) {
	r.vertices = append(r.vertices, v)
	r.corners = append(r.corners, c)
}

func traverseAll[T mesh.Topology](t *testing.T, tr Traverser[T]) {
	t.Helper()
	tr.OnTraversalStart()
	for f := 0; f < tr.Table().NumFaces(); f++ {
		require.NoError(t, tr.TraverseFromCorner(mesh.CornerIndex(3*f)))
	}
	tr.OnTraversalEnd()
}

func checkCoverage(t *testing.T, ct *mesh.CornerTable, r *recorder) {
	t.Helper()
	seenFaces := map[mesh.FaceIndex]bool{}
	for _, f := range r.faces {
		assert.False(t, seenFaces[f], "face %v visited twice", f)
		seenFaces[f] = true
	}
	assert.Len(t, seenFaces, ct.NumFaces())

	seenVertices := map[mesh.VertexIndex]bool{}
	for i, v := range r.vertices {
		assert.False(t, seenVertices[v], "vertex %v visited twice", v)
		seenVertices[v] = true
		assert.Equal(t, v, ct.Vertex(r.corners[i]), "reported corner must belong to the vertex")
	}
	assert.Len(t, seenVertices, ct.NumVertices())
}

func TestTraversers_VisitEverythingOnce(t *testing.T) {
	tests := []struct {
		name  string
		faces [][3]int
	}{
		{"triangle", meshtest.TriangleFaces},
		{"tetrahedron", meshtest.TetrahedronFaces},
		{"grid", meshtest.GridFaces(4, 3)},
		{"torus", meshtest.TorusFaces(5, 4)},
		{"bowtie", meshtest.BowtieFaces},
	}

	for _, tt := range tests {
		ct, err := mesh.NewCornerTable(meshtest.VertexFaces(tt.faces))
		require.NoError(t, err)

		t.Run(tt.name+"/depth first", func(t *testing.T) {
			r := &recorder{}
			traverseAll[*mesh.CornerTable](t, NewDepthFirst(ct, r))
			checkCoverage(t, ct, r)
		})
		t.Run(tt.name+"/max prediction degree", func(t *testing.T) {
			r := &recorder{}
			traverseAll[*mesh.CornerTable](t, NewMaxPredictionDegree(ct, r))
			checkCoverage(t, ct, r)
		})
	}
}

func TestDepthFirst_Deterministic(t *testing.T) {
	ct, err := mesh.NewCornerTable(meshtest.VertexFaces(meshtest.GridFaces(6, 6)))
	require.NoError(t, err)

	a, b := &recorder{}, &recorder{}
	traverseAll[*mesh.CornerTable](t, NewDepthFirst(ct, a))
	traverseAll[*mesh.CornerTable](t, NewDepthFirst(ct, b))
	assert.Equal(t, a.faces, b.faces)
	assert.Equal(t, a.vertices, b.vertices)
	assert.Equal(t, mesh.FaceIndex(0), a.faces[0])
}

func TestDepthFirst_LargeMeshDoesNotRecurse(t *testing.T) {
	ct, err := mesh.NewCornerTable(meshtest.VertexFaces(meshtest.GridFaces(150, 150)))
	require.NoError(t, err)
	r := &recorder{}
	traverseAll[*mesh.CornerTable](t, NewDepthFirst(ct, r))
	assert.Len(t, r.faces, ct.NumFaces())
}

func TestDepthFirst_AttributeTable(t *testing.T) {
	m := meshtest.Grid(2, 2)
	ct, err := mesh.CreateCornerTableFromPositionAttribute(m)
	require.NoError(t, err)
	att := mesh.NewMeshAttributeCornerTable(ct)
	att.AddSeamEdge(1)
	require.NoError(t, att.RecomputeVertices(nil, nil))

	r := &recorder{}
	traverseAll[*mesh.MeshAttributeCornerTable](t, NewDepthFirst(att, r))
	assert.Len(t, r.faces, att.NumFaces())
	assert.Len(t, r.vertices, att.NumVertices())
}

func TestMeshTraversalSequencer(t *testing.T) {
	for _, name := range []string{"depth first", "max prediction degree"} {
		t.Run(name, func(t *testing.T) {
			m := meshtest.Tetrahedron()
			ct, err := mesh.CreateCornerTableFromPositionAttribute(m)
			require.NoError(t, err)

			var tr Traverser[*mesh.CornerTable] = &DepthFirst[*mesh.CornerTable]{}
			if name != "depth first" {
				tr = &MaxPredictionDegree[*mesh.CornerTable]{}
			}
			var data EncodingData
			seq := NewMeshTraversalSequencer(m, ct, tr, &data)
			points, err := seq.GenerateSequence()
			require.NoError(t, err)
			assert.ElementsMatch(t, []mesh.PointIndex{0, 1, 2, 3}, points)
			assert.Equal(t, 4, data.NumValues)

			att := mesh.NewAttribute(mesh.AttributeGeneric, 1)
			att.Resize(data.NumValues)
			require.NoError(t, seq.UpdatePointToAttributeIndexMapping(att))
			for i, p := range points {
				assert.Equal(t, mesh.AttributeValueIndex(i), att.MappedIndex(p))
			}
		})
	}
}
