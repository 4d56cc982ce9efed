package mesh

// VertexRingIterator walks the one-ring neighbors of a vertex, first
// swinging left from the left-most corner and then right from it if an open
// boundary was hit.
type VertexRingIterator struct {
	table         Topology
	start         CornerIndex
	corner        CornerIndex
	leftTraversal bool
}

// NewVertexRingIterator starts a ring walk around v.
func NewVertexRingIterator(t Topology, v VertexIndex) *VertexRingIterator {
	c := t.LeftMostCorner(v)
	return &VertexRingIterator{table: t, start: c, corner: c, leftTraversal: true}
}

// Vertex returns the current ring neighbor.
func (it *VertexRingIterator) Vertex() VertexIndex {
	if it.leftTraversal {
		return it.table.Vertex(it.table.Previous(it.corner))
	}
	return it.table.Vertex(it.table.Next(it.corner))
}

// Corner returns the corner the iterator currently sits on.
func (it *VertexRingIterator) Corner() CornerIndex {
	return it.corner
}

// End reports whether the walk is complete.
func (it *VertexRingIterator) End() bool {
	return it.corner == InvalidCornerIndex
}

// Next advances to the next neighbor.
func (it *VertexRingIterator) Next() {
	if !it.leftTraversal {
		it.corner = it.table.SwingRight(it.corner)
		return
	}
	it.corner = it.table.SwingLeft(it.corner)
	switch it.corner {
	case InvalidCornerIndex:
		// Open boundary, walk the other side.
		it.corner = it.start
		it.leftTraversal = false
	case it.start:
		it.corner = InvalidCornerIndex
	}
}

// VertexCornersIterator visits every corner attached to a vertex.
type VertexCornersIterator struct {
	table         Topology
	start         CornerIndex
	corner        CornerIndex
	leftTraversal bool
}

// NewVertexCornersIterator starts at the left-most corner of v.
func NewVertexCornersIterator(t Topology, v VertexIndex) *VertexCornersIterator {
	c := t.LeftMostCorner(v)
	return &VertexCornersIterator{table: t, start: c, corner: c, leftTraversal: true}
}

// NewVertexCornersIteratorFromCorner starts at corner c.
func NewVertexCornersIteratorFromCorner(t Topology, c CornerIndex) *VertexCornersIterator {
	return &VertexCornersIterator{table: t, start: c, corner: c, leftTraversal: true}
}

// Corner returns the current corner.
func (it *VertexCornersIterator) Corner() CornerIndex { return it.corner }

// End reports whether all corners were visited.
func (it *VertexCornersIterator) End() bool { return it.corner == InvalidCornerIndex }

// Next advances to the next corner.
func (it *VertexCornersIterator) Next() {
	if !it.leftTraversal {
		it.corner = it.table.SwingRight(it.corner)
		return
	}
	it.corner = it.table.SwingLeft(it.corner)
	switch it.corner {
	case InvalidCornerIndex:
		it.corner = it.table.SwingRight(it.start)
		it.leftTraversal = false
	case it.start:
		it.corner = InvalidCornerIndex
	}
}
