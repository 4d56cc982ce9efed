package mesh

// Topology is the navigation surface shared by CornerTable and
// MeshAttributeCornerTable.
type Topology interface {
	NumVertices() int
	NumCorners() int
	NumFaces() int

	Next(c CornerIndex) CornerIndex
	Previous(c CornerIndex) CornerIndex
	Opposite(c CornerIndex) CornerIndex
	Vertex(c CornerIndex) VertexIndex
	Face(c CornerIndex) FaceIndex
	FirstCorner(f FaceIndex) CornerIndex
	LeftMostCorner(v VertexIndex) CornerIndex
	SwingLeft(c CornerIndex) CornerIndex
	SwingRight(c CornerIndex) CornerIndex
	GetLeftCorner(c CornerIndex) CornerIndex
	GetRightCorner(c CornerIndex) CornerIndex
	IsOnBoundary(v VertexIndex) bool
	IsDegenerated(f FaceIndex) bool
	Valence(v VertexIndex) int
}

// CornerTable stores triangle connectivity as corner-to-vertex and
// opposite-corner arrays. Corners 3f, 3f+1 and 3f+2 belong to face f.
type CornerTable struct {
	cornerToVertex  []VertexIndex
	oppositeCorners []CornerIndex
	vertexCorners   []CornerIndex

	numOriginalVertices int
	numDegeneratedFaces int
	numIsolatedVertices int
	nonManifoldParents  []VertexIndex
	valenceCache        ValenceCache
}

// NewCornerTable builds a corner table from faces given in vertex indices.
// It returns ErrTooManyFaces when the corner count would overflow.
func NewCornerTable(faces []VertexFace) (*CornerTable, error) {
	ct := &CornerTable{}
	if err := ct.Init(faces); err != nil {
		return nil, err
	}
	return ct, nil
}

// Init builds the table from faces: opposite corners are matched, non-manifold
// edges are broken and non-manifold vertices are split.
func (ct *CornerTable) Init(faces []VertexFace) error {
	if uint64(len(faces)) > uint64(MaxFaces) {
		return ErrTooManyFaces
	}
	ct.valenceCache.ClearValenceCache()
	ct.numDegeneratedFaces = 0
	ct.nonManifoldParents = nil
	ct.cornerToVertex = make([]VertexIndex, len(faces)*3)
	for f, face := range faces {
		copy(ct.cornerToVertex[f*3:f*3+3], face[:])
	}
	numVertices := ct.computeOppositeCorners()
	ct.breakNonManifoldEdges()
	ct.computeVertexCorners(numVertices)
	return nil
}

// Reset clears the table and sizes it for numFaces faces with no vertices.
// Used by the decoder, which fills the table incrementally.
func (ct *CornerTable) Reset(numFaces, numVertices int) error {
	if numFaces < 0 || numVertices < 0 {
		return ErrInvalidMesh
	}
	if uint64(numFaces) > uint64(MaxFaces) {
		return ErrTooManyFaces
	}
	ct.valenceCache.ClearValenceCache()
	ct.cornerToVertex = make([]VertexIndex, numFaces*3)
	ct.oppositeCorners = make([]CornerIndex, numFaces*3)
	for i := range ct.cornerToVertex {
		ct.cornerToVertex[i] = InvalidVertexIndex
		ct.oppositeCorners[i] = InvalidCornerIndex
	}
	ct.vertexCorners = make([]CornerIndex, 0, numVertices)
	ct.numOriginalVertices = 0
	ct.numDegeneratedFaces = 0
	ct.numIsolatedVertices = 0
	ct.nonManifoldParents = nil
	return nil
}

// computeOppositeCorners matches half-edges bucketed by their source vertex.
// Returns the number of vertices referenced by the faces.
func (ct *CornerTable) computeOppositeCorners() int {
	numCorners := len(ct.cornerToVertex)
	ct.oppositeCorners = make([]CornerIndex, numCorners)
	for i := range ct.oppositeCorners {
		ct.oppositeCorners[i] = InvalidCornerIndex
	}

	var cornersOnVertex []int
	for _, v := range ct.cornerToVertex {
		if int(v) >= len(cornersOnVertex) {
			cornersOnVertex = append(cornersOnVertex, make([]int, int(v)+1-len(cornersOnVertex))...)
		}
		cornersOnVertex[v]++
	}

	// Each pending half-edge is stored at its source vertex as (sink, corner).
	type halfEdge struct {
		sink   VertexIndex
		corner CornerIndex
	}
	edges := make([]halfEdge, numCorners)
	for i := range edges {
		edges[i].sink = InvalidVertexIndex
	}
	offsets := make([]int, len(cornersOnVertex))
	offset := 0
	for i, n := range cornersOnVertex {
		offsets[i] = offset
		offset += n
	}

	for c := CornerIndex(0); int(c) < numCorners; c++ {
		tip := ct.Vertex(c)
		source := ct.Vertex(ct.Next(c))
		sink := ct.Vertex(ct.Previous(c))
		if c%3 == 0 && (tip == source || tip == sink || source == sink) {
			ct.numDegeneratedFaces++
			c += 2
			continue
		}

		opp := InvalidCornerIndex
		n := cornersOnVertex[sink]
		base := offsets[sink]
		for i := 0; i < n; i++ {
			e := edges[base+i]
			if e.sink == InvalidVertexIndex {
				break
			}
			if e.sink != source {
				continue
			}
			if tip == ct.Vertex(e.corner) {
				// Mirrored face.
				continue
			}
			opp = e.corner
			copy(edges[base+i:base+n-1], edges[base+i+1:base+n])
			edges[base+n-1].sink = InvalidVertexIndex
			break
		}

		if opp == InvalidCornerIndex {
			n := cornersOnVertex[source]
			base := offsets[source]
			for i := 0; i < n; i++ {
				if edges[base+i].sink == InvalidVertexIndex {
					edges[base+i] = halfEdge{sink: sink, corner: c}
					break
				}
			}
			continue
		}
		ct.oppositeCorners[c] = opp
		ct.oppositeCorners[opp] = c
	}
	return len(cornersOnVertex)
}

// breakNonManifoldEdges disconnects edges that appear more than once in the
// fan around a vertex, repeating until the fans are consistent.
func (ct *CornerTable) breakNonManifoldEdges() {
	visited := make([]bool, ct.NumCorners())
	type sinkEdge struct {
		sink   VertexIndex
		corner CornerIndex
	}
	var sinks []sinkEdge

	for updated := true; updated; {
		updated = false
		for c := CornerIndex(0); int(c) < ct.NumCorners(); c++ {
			if visited[c] {
				continue
			}
			sinks = sinks[:0]

			first := c
			cur := c
			for {
				next := ct.SwingLeft(cur)
				if next == first || next == InvalidCornerIndex || visited[next] {
					break
				}
				cur = next
			}
			first = cur

			for {
				visited[cur] = true
				sinkCorner := ct.Next(cur)
				sinkVertex := ct.cornerToVertex[sinkCorner]
				edgeCorner := ct.Previous(cur)

				broken := false
				for _, s := range sinks {
					if s.sink != sinkVertex {
						continue
					}
					oppEdge := ct.Opposite(edgeCorner)
					if oppEdge == s.corner {
						// Closing the fan loop.
						continue
					}
					oppOther := ct.Opposite(s.corner)
					if oppEdge != InvalidCornerIndex {
						ct.oppositeCorners[oppEdge] = InvalidCornerIndex
					}
					if oppOther != InvalidCornerIndex {
						ct.oppositeCorners[oppOther] = InvalidCornerIndex
					}
					ct.oppositeCorners[edgeCorner] = InvalidCornerIndex
					ct.oppositeCorners[s.corner] = InvalidCornerIndex
					broken = true
					break
				}
				if broken {
					updated = true
					break
				}
				sinks = append(sinks, sinkEdge{sink: ct.cornerToVertex[ct.Previous(cur)], corner: sinkCorner})

				cur = ct.SwingRight(cur)
				if cur == first || cur == InvalidCornerIndex {
					break
				}
			}
		}
	}
}

// computeVertexCorners assigns each vertex its left-most corner and splits
// vertices whose corners form more than one fan.
func (ct *CornerTable) computeVertexCorners(numVertices int) {
	ct.numOriginalVertices = numVertices
	ct.vertexCorners = make([]CornerIndex, numVertices)
	for i := range ct.vertexCorners {
		ct.vertexCorners[i] = InvalidCornerIndex
	}
	visitedVertices := make([]bool, numVertices)
	visitedCorners := make([]bool, ct.NumCorners())

	for f := FaceIndex(0); int(f) < ct.NumFaces(); f++ {
		if ct.IsDegenerated(f) {
			continue
		}
		for k := CornerIndex(0); k < 3; k++ {
			c := ct.FirstCorner(f) + k
			if visitedCorners[c] {
				continue
			}
			v := ct.cornerToVertex[c]
			split := false
			if visitedVertices[v] {
				// Unvisited corner of a visited vertex: another fan.
				ct.vertexCorners = append(ct.vertexCorners, InvalidCornerIndex)
				ct.nonManifoldParents = append(ct.nonManifoldParents, v)
				visitedVertices = append(visitedVertices, false)
				v = VertexIndex(numVertices)
				numVertices++
				split = true
			}
			visitedVertices[v] = true

			act := c
			for act != InvalidCornerIndex {
				visitedCorners[act] = true
				ct.vertexCorners[v] = act
				if split {
					ct.cornerToVertex[act] = v
				}
				act = ct.SwingLeft(act)
				if act == c {
					break
				}
			}
			if act == InvalidCornerIndex {
				for act = ct.SwingRight(c); act != InvalidCornerIndex; act = ct.SwingRight(act) {
					visitedCorners[act] = true
					if split {
						ct.cornerToVertex[act] = v
					}
				}
			}
		}
	}

	ct.numIsolatedVertices = 0
	for _, visited := range visitedVertices {
		if !visited {
			ct.numIsolatedVertices++
		}
	}
}

// NumVertices returns the number of vertices including split duplicates.
func (ct *CornerTable) NumVertices() int { return len(ct.vertexCorners) }

// NumCorners returns the number of corners.
func (ct *CornerTable) NumCorners() int { return len(ct.cornerToVertex) }

// NumFaces returns the number of faces.
func (ct *CornerTable) NumFaces() int { return len(ct.cornerToVertex) / 3 }

// NumOriginalVertices returns the vertex count before non-manifold splits.
func (ct *CornerTable) NumOriginalVertices() int { return ct.numOriginalVertices }

// NumNewVertices returns the number of vertices added by non-manifold splits.
func (ct *CornerTable) NumNewVertices() int { return ct.NumVertices() - ct.numOriginalVertices }

// NumDegeneratedFaces returns the number of faces that reference a vertex twice.
func (ct *CornerTable) NumDegeneratedFaces() int { return ct.numDegeneratedFaces }

// NumIsolatedVertices returns the number of vertices not used by any face.
func (ct *CornerTable) NumIsolatedVertices() int { return ct.numIsolatedVertices }

// Opposite returns the corner across the edge opposite c.
func (ct *CornerTable) Opposite(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return InvalidCornerIndex
	}
	return ct.oppositeCorners[c]
}

// Next returns the next corner within the same face.
func (ct *CornerTable) Next(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return c
	}
	if (c+1)%3 == 0 {
		return c - 2
	}
	return c + 1
}

// Previous returns the previous corner within the same face.
func (ct *CornerTable) Previous(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return c
	}
	if c%3 == 0 {
		return c + 2
	}
	return c - 1
}

// Vertex returns the vertex of corner c.
func (ct *CornerTable) Vertex(c CornerIndex) VertexIndex {
	if c == InvalidCornerIndex {
		return InvalidVertexIndex
	}
	return ct.cornerToVertex[c]
}

// ConfidentVertex is Vertex without the invalid-corner check.
func (ct *CornerTable) ConfidentVertex(c CornerIndex) VertexIndex {
	return ct.cornerToVertex[c]
}

// Face returns the face that owns corner c.
func (ct *CornerTable) Face(c CornerIndex) FaceIndex {
	if c == InvalidCornerIndex {
		return InvalidFaceIndex
	}
	return FaceIndex(c / 3)
}

// FirstCorner returns the first corner of face f.
func (ct *CornerTable) FirstCorner(f FaceIndex) CornerIndex {
	if f == InvalidFaceIndex {
		return InvalidCornerIndex
	}
	return CornerIndex(f * 3)
}

// AllCorners returns the three corners of face f.
func (ct *CornerTable) AllCorners(f FaceIndex) [3]CornerIndex {
	c := CornerIndex(f * 3)
	return [3]CornerIndex{c, c + 1, c + 2}
}

// FaceVertices returns the three vertices of face f.
func (ct *CornerTable) FaceVertices(f FaceIndex) VertexFace {
	c := CornerIndex(f * 3)
	return VertexFace{ct.cornerToVertex[c], ct.cornerToVertex[c+1], ct.cornerToVertex[c+2]}
}

// LeftMostCorner returns the starting corner for iterating around v.
func (ct *CornerTable) LeftMostCorner(v VertexIndex) CornerIndex {
	if v == InvalidVertexIndex {
		return InvalidCornerIndex
	}
	return ct.vertexCorners[v]
}

// VertexParent returns the original vertex a split vertex was created from.
func (ct *CornerTable) VertexParent(v VertexIndex) VertexIndex {
	if int(v) < ct.numOriginalVertices {
		return v
	}
	return ct.nonManifoldParents[int(v)-ct.numOriginalVertices]
}

// SwingRight rotates c one step clockwise around its vertex.
func (ct *CornerTable) SwingRight(c CornerIndex) CornerIndex {
	return ct.Previous(ct.Opposite(ct.Previous(c)))
}

// SwingLeft rotates c one step counter-clockwise around its vertex.
func (ct *CornerTable) SwingLeft(c CornerIndex) CornerIndex {
	return ct.Next(ct.Opposite(ct.Next(c)))
}

// GetLeftCorner returns the corner opposite the edge left of c.
func (ct *CornerTable) GetLeftCorner(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return c
	}
	return ct.Opposite(ct.Previous(c))
}

// GetRightCorner returns the corner opposite the edge right of c.
func (ct *CornerTable) GetRightCorner(c CornerIndex) CornerIndex {
	if c == InvalidCornerIndex {
		return c
	}
	return ct.Opposite(ct.Next(c))
}

// GetLeftFace returns the face left of c.
func (ct *CornerTable) GetLeftFace(c CornerIndex) FaceIndex {
	return ct.Face(ct.GetLeftCorner(c))
}

// GetRightFace returns the face right of c.
func (ct *CornerTable) GetRightFace(c CornerIndex) FaceIndex {
	return ct.Face(ct.GetRightCorner(c))
}

// IsOnBoundary reports whether v lies on an open boundary.
func (ct *CornerTable) IsOnBoundary(v VertexIndex) bool {
	c := ct.LeftMostCorner(v)
	if c == InvalidCornerIndex {
		return true
	}
	return ct.SwingLeft(c) == InvalidCornerIndex
}

// IsDegenerated reports whether face f references a vertex twice.
func (ct *CornerTable) IsDegenerated(f FaceIndex) bool {
	if f == InvalidFaceIndex {
		return true
	}
	c := ct.FirstCorner(f)
	v0, v1, v2 := ct.cornerToVertex[c], ct.cornerToVertex[c+1], ct.cornerToVertex[c+2]
	return v0 == v1 || v0 == v2 || v1 == v2
}

// Valence returns the number of edges incident to v, or -1 for an invalid vertex.
func (ct *CornerTable) Valence(v VertexIndex) int {
	if v == InvalidVertexIndex {
		return -1
	}
	return ct.ConfidentValence(v)
}

// ConfidentValence counts ring neighbors of a valid vertex.
func (ct *CornerTable) ConfidentValence(v VertexIndex) int {
	n := 0
	for it := NewVertexRingIterator(ct, v); !it.End(); it.Next() {
		n++
	}
	return n
}

// ValenceCache returns the table's valence cache.
func (ct *CornerTable) ValenceCache() *ValenceCache {
	ct.valenceCache.table = ct
	return &ct.valenceCache
}

func (ct *CornerTable) mustNotHaveCache() {
	if !ct.valenceCache.IsCacheEmpty() {
		panic("mesh: corner table mutated while valence cache is live")
	}
}

// SetOppositeCorner sets the opposite of c without touching opp.
func (ct *CornerTable) SetOppositeCorner(c, opp CornerIndex) {
	ct.mustNotHaveCache()
	ct.oppositeCorners[c] = opp
}

// SetOppositeCorners links c0 and c1 as opposites of each other.
func (ct *CornerTable) SetOppositeCorners(c0, c1 CornerIndex) {
	ct.mustNotHaveCache()
	if c0 != InvalidCornerIndex {
		ct.oppositeCorners[c0] = c1
	}
	if c1 != InvalidCornerIndex {
		ct.oppositeCorners[c1] = c0
	}
}

// MapCornerToVertex assigns vertex v to corner c.
func (ct *CornerTable) MapCornerToVertex(c CornerIndex, v VertexIndex) {
	ct.mustNotHaveCache()
	ct.cornerToVertex[c] = v
}

// SetLeftMostCorner sets the ring starting corner of v.
func (ct *CornerTable) SetLeftMostCorner(v VertexIndex, c CornerIndex) {
	ct.mustNotHaveCache()
	if v != InvalidVertexIndex {
		ct.vertexCorners[v] = c
	}
}

// AddNewVertex appends a vertex with no corner and returns its index.
func (ct *CornerTable) AddNewVertex() VertexIndex {
	ct.mustNotHaveCache()
	ct.vertexCorners = append(ct.vertexCorners, InvalidCornerIndex)
	return VertexIndex(len(ct.vertexCorners) - 1)
}

// AddNewFace appends a face without opposite links and returns its index.
func (ct *CornerTable) AddNewFace(vertices VertexFace) FaceIndex {
	ct.mustNotHaveCache()
	f := FaceIndex(ct.NumFaces())
	for _, v := range vertices {
		ct.cornerToVertex = append(ct.cornerToVertex, v)
		ct.oppositeCorners = append(ct.oppositeCorners, InvalidCornerIndex)
	}
	return f
}

// SetNumVertices resizes the vertex array.
func (ct *CornerTable) SetNumVertices(n int) {
	ct.mustNotHaveCache()
	if n <= len(ct.vertexCorners) {
		ct.vertexCorners = ct.vertexCorners[:n]
		return
	}
	for len(ct.vertexCorners) < n {
		ct.vertexCorners = append(ct.vertexCorners, InvalidCornerIndex)
	}
}

// MakeVertexIsolated detaches v from all corners.
func (ct *CornerTable) MakeVertexIsolated(v VertexIndex) {
	ct.mustNotHaveCache()
	ct.vertexCorners[v] = InvalidCornerIndex
}

// IsVertexIsolated reports whether v has no corner.
func (ct *CornerTable) IsVertexIsolated(v VertexIndex) bool {
	return ct.LeftMostCorner(v) == InvalidCornerIndex
}

// UpdateVertexToCornerMap moves the stored corner of v to its left-most corner.
func (ct *CornerTable) UpdateVertexToCornerMap(v VertexIndex) {
	first := ct.vertexCorners[v]
	if first == InvalidCornerIndex {
		return
	}
	c := first
	act := ct.SwingLeft(first)
	for act != InvalidCornerIndex && act != first {
		c = act
		act = ct.SwingLeft(act)
	}
	if act != first {
		ct.vertexCorners[v] = c
	}
}
