package traverser

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// ErrInvalidMapping is returned when a traversal order cannot be turned
// into a point-to-value mapping.
var ErrInvalidMapping = errors.New("invalid attribute value mapping")

// EncodingData records the order in which attribute values were reached.
type EncodingData struct {
	// ValueToCorner maps an encoded value index to the corner that reached it.
	ValueToCorner []mesh.CornerIndex
	// VertexToValue maps a vertex to its encoded value index, or -1.
	VertexToValue []int32
	NumValues     int
}

// Init sizes the data for numVertices vertices.
func (d *EncodingData) Init(numVertices int) {
	d.ValueToCorner = d.ValueToCorner[:0]
	d.VertexToValue = make([]int32, numVertices)
	for i := range d.VertexToValue {
		d.VertexToValue[i] = -1
	}
	d.NumValues = 0
}

// sequenceObserver appends the point of every newly reached vertex.
type sequenceObserver struct {
	mesh   *mesh.Mesh
	points *[]mesh.PointIndex
	data   *EncodingData
}

func (o *sequenceObserver) OnNewFaceVisited(mesh.FaceIndex) {}

func (o *sequenceObserver) OnNewVertexVisited(v mesh.VertexIndex, c mesh.CornerIndex) {
	*o.points = append(*o.points, o.mesh.CornerToPointID(c))
	o.data.ValueToCorner = append(o.data.ValueToCorner, c)
	o.data.VertexToValue[v] = int32(o.data.NumValues)
	o.data.NumValues++
}

// MeshTraversalSequencer produces the order in which points are encoded by
// walking the mesh with a traverser.
type MeshTraversalSequencer[T mesh.Topology] struct {
	mesh        *mesh.Mesh
	traverser   Traverser[T]
	data        *EncodingData
	cornerOrder []mesh.CornerIndex
	points      []mesh.PointIndex
}

// NewMeshTraversalSequencer wires a traverser to m. The traverser is
// initialized over table with an observer that fills data.
func NewMeshTraversalSequencer[T mesh.Topology](m *mesh.Mesh, table T, tr Traverser[T], data *EncodingData) *MeshTraversalSequencer[T] {
	s := &MeshTraversalSequencer[T]{mesh: m, traverser: tr, data: data}
	data.Init(table.NumVertices())
	tr.Init(table, &sequenceObserver{mesh: m, points: &s.points, data: data})
	return s
}

// SetCornerOrder sets the corners traversal starts from. By default every
// face's first corner is tried in face order.
func (s *MeshTraversalSequencer[T]) SetCornerOrder(order []mesh.CornerIndex) {
	s.cornerOrder = order
}

// GenerateSequence runs the traversal and returns points in visit order.
func (s *MeshTraversalSequencer[T]) GenerateSequence() ([]mesh.PointIndex, error) {
	s.points = make([]mesh.PointIndex, 0, s.traverser.Table().NumVertices())
	s.traverser.OnTraversalStart()
	if s.cornerOrder != nil {
		for _, c := range s.cornerOrder {
			if err := s.traverser.TraverseFromCorner(c); err != nil {
				return nil, err
			}
		}
	} else {
		for f := 0; f < s.traverser.Table().NumFaces(); f++ {
			if err := s.traverser.TraverseFromCorner(mesh.CornerIndex(3 * f)); err != nil {
				return nil, err
			}
		}
	}
	s.traverser.OnTraversalEnd()
	return s.points, nil
}

// UpdatePointToAttributeIndexMapping points every mesh point at the value
// index its vertex received during the traversal.
func (s *MeshTraversalSequencer[T]) UpdatePointToAttributeIndexMapping(att *mesh.Attribute) error {
	table := s.traverser.Table()
	numPoints := s.mesh.NumPoints()
	att.SetExplicitMapping(numPoints)
	for f := 0; f < s.mesh.NumFaces(); f++ {
		face := s.mesh.Face(mesh.FaceIndex(f))
		for k := 0; k < 3; k++ {
			v := table.Vertex(mesh.CornerIndex(3*f + k))
			if v == mesh.InvalidVertexIndex {
				return errors.Wrapf(ErrInvalidMapping, "corner %d has no vertex", 3*f+k)
			}
			value := s.data.VertexToValue[v]
			if int(face[k]) >= numPoints || value < 0 || int(value) >= att.NumValues() {
				return errors.Wrapf(ErrInvalidMapping, "point %d value %d", face[k], value)
			}
			att.SetPointMapEntry(face[k], mesh.AttributeValueIndex(value))
		}
	}
	return nil
}
