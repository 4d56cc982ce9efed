package mesh

// MeshAttributeCornerTable is a view of a CornerTable that treats attribute
// seams as boundaries. Vertices of the view are attribute entries: a base
// vertex on a seam maps to one view vertex per seam-delimited fan.
type MeshAttributeCornerTable struct {
	base *CornerTable

	isEdgeOnSeam    []bool
	isVertexOnSeam  []bool
	noInteriorSeams bool

	cornerToVertex   []VertexIndex
	vertexToValue    []AttributeValueIndex
	vertexLeftCorner []CornerIndex
}

// NewMeshAttributeCornerTable creates a view with no seams.
func NewMeshAttributeCornerTable(base *CornerTable) *MeshAttributeCornerTable {
	t := &MeshAttributeCornerTable{
		base:            base,
		isEdgeOnSeam:    make([]bool, base.NumCorners()),
		isVertexOnSeam:  make([]bool, base.NumVertices()),
		cornerToVertex:  make([]VertexIndex, base.NumCorners()),
		noInteriorSeams: true,
	}
	for i := range t.cornerToVertex {
		t.cornerToVertex[i] = InvalidVertexIndex
	}
	return t
}

// NewMeshAttributeCornerTableFromAttribute marks every edge where att takes
// different values on its two sides as a seam and recomputes the vertices.
func NewMeshAttributeCornerTableFromAttribute(m *Mesh, base *CornerTable, att *Attribute) (*MeshAttributeCornerTable, error) {
	t := NewMeshAttributeCornerTable(base)
	for c := CornerIndex(0); int(c) < base.NumCorners(); c++ {
		if base.IsDegenerated(base.Face(c)) {
			continue
		}
		opp := base.Opposite(c)
		if opp == InvalidCornerIndex {
			t.isEdgeOnSeam[c] = true
			t.isVertexOnSeam[base.Vertex(base.Next(c))] = true
			t.isVertexOnSeam[base.Vertex(base.Previous(c))] = true
			continue
		}
		if opp < c {
			continue
		}
		act, sibling := c, opp
		for i := 0; i < 2; i++ {
			act = base.Next(act)
			sibling = base.Previous(sibling)
			if att.MappedIndex(m.CornerToPointID(act)) != att.MappedIndex(m.CornerToPointID(sibling)) {
				t.noInteriorSeams = false
				t.markSeam(c)
				t.markSeam(opp)
				break
			}
		}
	}
	if err := t.RecomputeVertices(m, att); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *MeshAttributeCornerTable) markSeam(c CornerIndex) {
	t.isEdgeOnSeam[c] = true
	t.isVertexOnSeam[t.base.Vertex(t.base.Next(c))] = true
	t.isVertexOnSeam[t.base.Vertex(t.base.Previous(c))] = true
}

// AddSeamEdge marks the edge opposite c (and its twin) as a seam.
func (t *MeshAttributeCornerTable) AddSeamEdge(c CornerIndex) {
	t.markSeam(c)
	if opp := t.base.Opposite(c); opp != InvalidCornerIndex {
		t.noInteriorSeams = false
		t.markSeam(opp)
	}
}

// RecomputeVertices rebuilds the view vertices from the seam flags. With a
// nil mesh or attribute each view vertex maps to a fresh value index.
func (t *MeshAttributeCornerTable) RecomputeVertices(m *Mesh, att *Attribute) error {
	withValues := m != nil && att != nil
	t.vertexToValue = t.vertexToValue[:0]
	t.vertexLeftCorner = t.vertexLeftCorner[:0]
	numNew := 0
	valueOf := func(c CornerIndex, id int) AttributeValueIndex {
		if withValues {
			return att.MappedIndex(m.CornerToPointID(c))
		}
		return AttributeValueIndex(id)
	}

	for v := VertexIndex(0); int(v) < t.base.NumVertices(); v++ {
		c := t.base.LeftMostCorner(v)
		if c == InvalidCornerIndex {
			continue
		}
		vertID := numNew
		numNew++
		t.vertexToValue = append(t.vertexToValue, valueOf(c, vertID))

		first := c
		if t.isVertexOnSeam[v] {
			// Find the first seam-delimited corner swinging left.
			for act := t.SwingLeft(first); act != InvalidCornerIndex; {
				first = act
				act = t.SwingLeft(act)
				if act == c {
					return ErrInvalidMesh
				}
			}
		}
		t.cornerToVertex[first] = VertexIndex(vertID)
		t.vertexLeftCorner = append(t.vertexLeftCorner, first)
		for act := t.base.SwingRight(first); act != InvalidCornerIndex && act != first; act = t.base.SwingRight(act) {
			if t.IsCornerOppositeToSeamEdge(t.base.Next(act)) {
				vertID = numNew
				numNew++
				t.vertexToValue = append(t.vertexToValue, valueOf(act, vertID))
				t.vertexLeftCorner = append(t.vertexLeftCorner, act)
			}
			t.cornerToVertex[act] = VertexIndex(vertID)
		}
	}
	return nil
}

// Base returns the underlying corner table.
func (t *MeshAttributeCornerTable) Base() *CornerTable { return t.base }

// NoInteriorSeams reports whether all seams are mesh boundaries.
func (t *MeshAttributeCornerTable) NoInteriorSeams() bool { return t.noInteriorSeams }

// IsCornerOnSeam reports whether the base vertex of c lies on a seam.
func (t *MeshAttributeCornerTable) IsCornerOnSeam(c CornerIndex) bool {
	return t.isVertexOnSeam[t.base.Vertex(c)]
}

// IsCornerOppositeToSeamEdge reports whether the edge opposite c is a seam.
func (t *MeshAttributeCornerTable) IsCornerOppositeToSeamEdge(c CornerIndex) bool {
	return t.isEdgeOnSeam[c]
}

// VertexValue returns the attribute value index of view vertex v.
func (t *MeshAttributeCornerTable) VertexValue(v VertexIndex) AttributeValueIndex {
	return t.vertexToValue[v]
}

// NumVertices returns the number of view vertices.
func (t *MeshAttributeCornerTable) NumVertices() int { return len(t.vertexToValue) }

// NumCorners returns the number of corners.
func (t *MeshAttributeCornerTable) NumCorners() int { return t.base.NumCorners() }

// NumFaces returns the number of faces.
func (t *MeshAttributeCornerTable) NumFaces() int { return t.base.NumFaces() }

// Next returns the next corner in the face.
func (t *MeshAttributeCornerTable) Next(c CornerIndex) CornerIndex { return t.base.Next(c) }

// Previous returns the previous corner in the face.
func (t *MeshAttributeCornerTable) Previous(c CornerIndex) CornerIndex { return t.base.Previous(c) }

// Opposite returns the opposite corner unless the edge is a seam.
func (t *MeshAttributeCornerTable) Opposite(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex || t.IsCornerOppositeToSeamEdge(c) {
		return InvalidCornerIndex
	}
	return t.base.Opposite(c)
}

// Vertex returns the view vertex of c.
func (t *MeshAttributeCornerTable) Vertex(c CornerIndex) VertexIndex {
	if c == InvalidCornerIndex {
		return InvalidVertexIndex
	}
	return t.cornerToVertex[c]
}

// Face returns the face of c.
func (t *MeshAttributeCornerTable) Face(c CornerIndex) FaceIndex { return t.base.Face(c) }

// FirstCorner returns the first corner of f.
func (t *MeshAttributeCornerTable) FirstCorner(f FaceIndex) CornerIndex { return t.base.FirstCorner(f) }

// LeftMostCorner returns the first corner of view vertex v.
func (t *MeshAttributeCornerTable) LeftMostCorner(v VertexIndex) CornerIndex {
	if v == InvalidVertexIndex {
		return InvalidCornerIndex
	}
	return t.vertexLeftCorner[v]
}

// SwingLeft rotates counter-clockwise without crossing seams.
func (t *MeshAttributeCornerTable) SwingLeft(c CornerIndex) CornerIndex {
	return t.Next(t.Opposite(t.Next(c)))
}

// SwingRight rotates clockwise without crossing seams.
func (t *MeshAttributeCornerTable) SwingRight(c CornerIndex) CornerIndex {
	return t.Previous(t.Opposite(t.Previous(c)))
}

// GetLeftCorner returns the corner across the left edge of c.
func (t *MeshAttributeCornerTable) GetLeftCorner(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return c
	}
	return t.Opposite(t.Previous(c))
}

// GetRightCorner returns the corner across the right edge of c.
func (t *MeshAttributeCornerTable) GetRightCorner(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return c
	}
	return t.Opposite(t.Next(c))
}

// IsOnBoundary reports whether v lies on a boundary or seam.
func (t *MeshAttributeCornerTable) IsOnBoundary(v VertexIndex) bool {
	c := t.LeftMostCorner(v)
	if c == InvalidCornerIndex {
		return true
	}
	return t.SwingLeft(c) == InvalidCornerIndex
}

// IsDegenerated reports whether face f is degenerate in the base table.
func (t *MeshAttributeCornerTable) IsDegenerated(f FaceIndex) bool { return t.base.IsDegenerated(f) }

// Valence returns the number of neighbors of v within its seam fan.
func (t *MeshAttributeCornerTable) Valence(v VertexIndex) int {
	if v == InvalidVertexIndex {
		return -1
	}
	n := 0
	for it := NewVertexRingIterator(t, v); !it.End(); it.Next() {
		n++
	}
	return n
}

// CreateCornerTableFromPositionAttribute builds the connectivity of the
// position attribute: points sharing a position value share a vertex.
func CreateCornerTableFromPositionAttribute(m *Mesh) (*CornerTable, error) {
	return CreateCornerTableFromAttribute(m, AttributePosition)
}

// CreateCornerTableFromAttribute builds a corner table whose vertices are the
// values of the first attribute of type t.
func CreateCornerTableFromAttribute(m *Mesh, t AttributeType) (*CornerTable, error) {
	att := m.NamedAttribute(t)
	if att == nil {
		return nil, ErrInvalidMesh
	}
	faces := make([]VertexFace, m.NumFaces())
	for i, f := range m.faces {
		for j := 0; j < 3; j++ {
			faces[i][j] = VertexIndex(att.MappedIndex(f[j]))
		}
	}
	return NewCornerTable(faces)
}

// CreateCornerTableFromAllAttributes builds a corner table over point ids,
// which splits the mesh along every attribute seam.
func CreateCornerTableFromAllAttributes(m *Mesh) (*CornerTable, error) {
	faces := make([]VertexFace, m.NumFaces())
	for i, f := range m.faces {
		for j := 0; j < 3; j++ {
			faces[i][j] = VertexIndex(f[j])
		}
	}
	return NewCornerTable(faces)
}
