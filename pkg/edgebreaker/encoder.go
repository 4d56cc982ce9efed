package edgebreaker

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// encoderAttributeData is the connectivity of one non-position attribute.
type encoderAttributeData struct {
	attributeIndex int
	connectivity   *mesh.MeshAttributeCornerTable
}

// connectivityEncoder encodes the corner table of a mesh. The traversal
// encoder decides how the produced symbols are serialized.
type connectivityEncoder[E traversalEncoder] struct {
	mesh               *mesh.Mesh
	log                *zap.Logger
	singleConnectivity bool
	traversal          E

	table            *mesh.CornerTable
	visitedFaces     []bool
	visitedVertices  []bool
	vertexHoleID     []int
	visitedHoles     []bool
	processedCorners []mesh.CornerIndex
	stack            *arraystack.Stack

	lastEncodedSymbolID int
	numSplitSymbols     int
	splitEvents         []TopologySplitEventData
	faceToSplitSymbol   map[mesh.FaceIndex]int
	holeEvents          []HoleEventData
	numComponents       int
	attributeData       []encoderAttributeData
	symbols             []Symbol
}

func newConnectivityEncoder[E traversalEncoder](m *mesh.Mesh, traversal E, single bool, log *zap.Logger) *connectivityEncoder[E] {
	return &connectivityEncoder[E]{
		mesh:               m,
		log:                log,
		singleConnectivity: single,
		traversal:          traversal,
		stack:              arraystack.New(),
	}
}

// CornerTable returns the table being encoded.
func (e *connectivityEncoder[E]) CornerTable() *mesh.CornerTable { return e.table }

// IsFaceEncoded reports whether f was already emitted.
func (e *connectivityEncoder[E]) IsFaceEncoded(f mesh.FaceIndex) bool { return e.visitedFaces[f] }

// NumSplitSymbols returns the S symbols emitted so far.
func (e *connectivityEncoder[E]) NumSplitSymbols() int { return e.numSplitSymbols }

// encode writes the connectivity block to out.
func (e *connectivityEncoder[E]) encode(out *buffer.EncoderBuffer) error {
	var err error
	if e.singleConnectivity {
		e.table, err = mesh.CreateCornerTableFromAllAttributes(e.mesh)
	} else {
		e.table, err = mesh.CreateCornerTableFromPositionAttribute(e.mesh)
	}
	if err != nil {
		return errors.Wrap(ErrInvalidMesh, err.Error())
	}
	if e.table.NumFaces() == e.table.NumDegeneratedFaces() {
		return errors.Wrap(ErrInvalidMesh, "all faces are degenerate")
	}

	e.traversal.Init(e)

	numVertices := e.table.NumVertices() - e.table.NumIsolatedVertices()
	numFaces := e.table.NumFaces() - e.table.NumDegeneratedFaces()
	out.EncodeVarint(uint64(numVertices))
	out.EncodeVarint(uint64(numFaces))

	e.visitedFaces = make([]bool, e.table.NumFaces())
	e.visitedVertices = make([]bool, e.table.NumVertices())
	e.vertexHoleID = make([]int, e.table.NumVertices())
	for i := range e.vertexHoleID {
		e.vertexHoleID[i] = -1
	}
	e.visitedHoles = e.visitedHoles[:0]
	e.processedCorners = make([]mesh.CornerIndex, 0, e.table.NumFaces())
	e.lastEncodedSymbolID = -1
	e.numSplitSymbols = 0
	e.splitEvents = e.splitEvents[:0]
	e.faceToSplitSymbol = make(map[mesh.FaceIndex]int)
	e.holeEvents = e.holeEvents[:0]
	e.numComponents = 0
	e.symbols = e.symbols[:0]

	e.findHoles()
	if err := e.initAttributeData(); err != nil {
		return err
	}
	out.EncodeUint8(uint8(len(e.attributeData)))
	e.traversal.SetNumAttributeData(len(e.attributeData))
	e.traversal.Start()

	var initCorners []mesh.CornerIndex
	for c := 0; c < e.table.NumCorners(); c++ {
		f := e.table.Face(mesh.CornerIndex(c))
		if e.visitedFaces[f] || e.table.IsDegenerated(f) {
			continue
		}
		e.numComponents++
		start, interior := e.findInitFaceConfiguration(f)
		e.traversal.EncodeStartFaceConfiguration(interior)
		if interior {
			// The initial face is only described by its configuration bit;
			// traversal continues from the face across its "next" edge.
			for _, v := range e.table.FaceVertices(f) {
				e.visitedVertices[v] = true
			}
			e.visitedFaces[f] = true
			initCorners = append(initCorners, e.table.Next(start))
			opp := e.table.Opposite(e.table.Next(start))
			if opp != mesh.InvalidCornerIndex && !e.visitedFaces[e.table.Face(opp)] {
				e.encodeFromCorner(opp)
			}
		} else {
			e.encodeHole(e.table.Next(start), true)
			e.encodeFromCorner(start)
		}
	}

	// The decoder rebuilds faces last to first, then closes interior
	// initial faces.
	for i, j := 0, len(e.processedCorners)-1; i < j; i, j = i+1, j-1 {
		e.processedCorners[i], e.processedCorners[j] = e.processedCorners[j], e.processedCorners[i]
	}
	e.processedCorners = append(e.processedCorners, initCorners...)

	if len(e.attributeData) > 0 {
		for i := range e.visitedFaces {
			e.visitedFaces[i] = false
		}
		for _, c := range e.processedCorners {
			e.encodeAttributeSeamsOnFace(c)
		}
	}
	if err := e.traversal.Done(); err != nil {
		return err
	}

	out.EncodeVarint(uint64(e.traversal.NumEncodedSymbols()))
	out.EncodeVarint(uint64(e.numSplitSymbols))
	if err := e.encodeSplitData(out); err != nil {
		return err
	}
	out.EncodeBytes(e.traversal.Buffer().Bytes())

	e.log.Debug("connectivity encoded",
		zap.Int("vertices", numVertices),
		zap.Int("faces", numFaces),
		zap.Int("symbols", e.traversal.NumEncodedSymbols()),
		zap.Int("split_symbols", e.numSplitSymbols),
		zap.Int("split_events", len(e.splitEvents)),
		zap.Int("holes", len(e.visitedHoles)),
		zap.Int("components", e.numComponents),
	)
	return nil
}

func (e *connectivityEncoder[E]) emit(s Symbol) {
	e.symbols = append(e.symbols, s)
	e.traversal.EncodeSymbol(s)
}

func (e *connectivityEncoder[E]) result() encodedConnectivity {
	return encodedConnectivity{
		table:         e.table,
		attributeData: e.attributeData,
		corners:       e.processedCorners,
		stats: Stats{
			Symbols:             e.symbols,
			NumSplitSymbols:     e.numSplitSymbols,
			SplitEvents:         e.splitEvents,
			HoleEvents:          e.holeEvents,
			NumHoles:            len(e.visitedHoles),
			NumComponents:       e.numComponents,
			NumDegeneratedFaces: e.table.NumDegeneratedFaces(),
		},
	}
}

// findHoles assigns a hole id to every vertex on an open boundary.
func (e *connectivityEncoder[E]) findHoles() {
	t := e.table
	for c := mesh.CornerIndex(0); int(c) < t.NumCorners(); c++ {
		if t.IsDegenerated(t.Face(c)) || t.Opposite(c) != mesh.InvalidCornerIndex {
			continue
		}
		v := t.Vertex(t.Next(c))
		if e.vertexHoleID[v] != -1 {
			continue
		}
		holeID := len(e.visitedHoles)
		e.visitedHoles = append(e.visitedHoles, false)

		act := c
		for e.vertexHoleID[v] == -1 {
			e.vertexHoleID[v] = holeID
			act = t.Next(act)
			for t.Opposite(act) != mesh.InvalidCornerIndex {
				act = t.Next(t.Opposite(act))
			}
			v = t.Vertex(t.Next(act))
		}
	}
}

// findInitFaceConfiguration picks the corner a component starts from. For
// faces touching a hole it returns the corner opposite a boundary edge and
// false.
func (e *connectivityEncoder[E]) findInitFaceConfiguration(f mesh.FaceIndex) (mesh.CornerIndex, bool) {
	t := e.table
	c := t.FirstCorner(f)
	for i := 0; i < 3; i++ {
		if t.Opposite(c) == mesh.InvalidCornerIndex {
			return c, false
		}
		if e.vertexHoleID[t.Vertex(c)] != -1 {
			right := c
			for right != mesh.InvalidCornerIndex {
				c = right
				right = t.SwingRight(right)
			}
			return t.Previous(c), false
		}
		c = t.Next(c)
	}
	return c, true
}

// encodeHole marks every vertex of the hole touching start as visited and
// returns how many were marked.
func (e *connectivityEncoder[E]) encodeHole(start mesh.CornerIndex, encodeFirstVertex bool) int {
	t := e.table
	c := t.Previous(start)
	for t.Opposite(c) != mesh.InvalidCornerIndex {
		c = t.Next(t.Opposite(c))
	}
	startVertex := t.Vertex(start)

	n := 0
	if encodeFirstVertex {
		e.visitedVertices[startVertex] = true
		n++
	}
	e.visitedHoles[e.vertexHoleID[startVertex]] = true
	e.holeEvents = append(e.holeEvents, HoleEventData{SymbolID: e.lastEncodedSymbolID + 1})

	act := t.Vertex(t.Previous(c))
	for act != startVertex {
		e.visitedVertices[act] = true
		n++
		c = t.Next(c)
		for t.Opposite(c) != mesh.InvalidCornerIndex {
			c = t.Next(t.Opposite(c))
		}
		act = t.Vertex(t.Previous(c))
	}
	return n
}

func (e *connectivityEncoder[E]) isRightFaceVisited(c mesh.CornerIndex) bool {
	opp := e.table.Opposite(e.table.Next(c))
	if opp == mesh.InvalidCornerIndex {
		return true
	}
	return e.visitedFaces[e.table.Face(opp)]
}

func (e *connectivityEncoder[E]) isLeftFaceVisited(c mesh.CornerIndex) bool {
	opp := e.table.Opposite(e.table.Previous(c))
	if opp == mesh.InvalidCornerIndex {
		return true
	}
	return e.visitedFaces[e.table.Face(opp)]
}

func (e *connectivityEncoder[E]) replaceTop(c mesh.CornerIndex) {
	e.stack.Pop()
	e.stack.Push(c)
}

// encodeFromCorner runs the edgebreaker walk over the component reached
// from c, emitting one symbol per face.
func (e *connectivityEncoder[E]) encodeFromCorner(c mesh.CornerIndex) {
	t := e.table
	e.stack.Clear()
	e.stack.Push(c)
	numFaces := t.NumFaces()
	for !e.stack.Empty() {
		top, _ := e.stack.Peek()
		c = top.(mesh.CornerIndex)
		if c == mesh.InvalidCornerIndex || e.visitedFaces[t.Face(c)] {
			e.stack.Pop()
			continue
		}
		for visited := 0; visited < numFaces; visited++ {
			e.lastEncodedSymbolID++
			f := t.Face(c)
			e.visitedFaces[f] = true
			e.processedCorners = append(e.processedCorners, c)
			e.traversal.NewCornerReached(c)

			v := t.Vertex(c)
			onBoundary := e.vertexHoleID[v] != -1
			if !e.visitedVertices[v] {
				e.visitedVertices[v] = true
				if !onBoundary {
					e.emit(SymbolC)
					c = t.GetRightCorner(c)
					continue
				}
			}

			right, left := t.GetRightCorner(c), t.GetLeftCorner(c)
			if e.isRightFaceVisited(c) {
				if right != mesh.InvalidCornerIndex {
					e.checkAndStoreSplitEvent(RightFaceEdge, t.Face(right))
				}
				if e.isLeftFaceVisited(c) {
					if left != mesh.InvalidCornerIndex {
						e.checkAndStoreSplitEvent(LeftFaceEdge, t.Face(left))
					}
					e.emit(SymbolE)
					e.stack.Pop()
					break
				}
				e.emit(SymbolR)
				c = left
				continue
			}
			if e.isLeftFaceVisited(c) {
				if left != mesh.InvalidCornerIndex {
					e.checkAndStoreSplitEvent(LeftFaceEdge, t.Face(left))
				}
				e.emit(SymbolL)
				c = right
				continue
			}

			e.emit(SymbolS)
			e.numSplitSymbols++
			if onBoundary {
				if hole := e.vertexHoleID[v]; !e.visitedHoles[hole] {
					e.encodeHole(c, false)
				}
			}
			e.faceToSplitSymbol[f] = e.lastEncodedSymbolID
			// Right is walked first, left resumes once it is exhausted.
			e.replaceTop(left)
			e.stack.Push(right)
			break
		}
	}
}

// checkAndStoreSplitEvent records an event when the neighbor across edge
// was encoded with an S symbol.
func (e *connectivityEncoder[E]) checkAndStoreSplitEvent(edge EdgeFaceName, neighbor mesh.FaceIndex) {
	splitID, ok := e.faceToSplitSymbol[neighbor]
	if !ok {
		return
	}
	e.splitEvents = append(e.splitEvents, TopologySplitEventData{
		SplitSymbolID:  uint32(splitID),
		SourceSymbolID: uint32(e.lastEncodedSymbolID),
		SourceEdge:     edge,
	})
}

// encodeSplitData writes split events as varint deltas followed by one
// bit per event for the source edge.
func (e *connectivityEncoder[E]) encodeSplitData(out *buffer.EncoderBuffer) error {
	out.EncodeVarint(uint64(len(e.splitEvents)))
	if len(e.splitEvents) == 0 {
		return nil
	}
	var lastSource uint32
	for _, ev := range e.splitEvents {
		out.EncodeVarint(uint64(ev.SourceSymbolID - lastSource))
		out.EncodeVarint(uint64(ev.SourceSymbolID - ev.SplitSymbolID))
		lastSource = ev.SourceSymbolID
	}
	if err := out.StartBitEncoding(false); err != nil {
		return err
	}
	for _, ev := range e.splitEvents {
		if err := out.EncodeLeastSignificantBits32(1, uint32(ev.SourceEdge)); err != nil {
			return err
		}
	}
	return out.EndBitEncoding()
}

// initAttributeData builds seam-aware tables for every attribute other
// than position. Single connectivity meshes need none.
func (e *connectivityEncoder[E]) initAttributeData() error {
	e.attributeData = e.attributeData[:0]
	if e.singleConnectivity {
		return nil
	}
	pos := e.mesh.NamedAttributeID(mesh.AttributePosition)
	for i := 0; i < e.mesh.NumAttributes(); i++ {
		if i == pos {
			continue
		}
		conn, err := mesh.NewMeshAttributeCornerTableFromAttribute(e.mesh, e.table, e.mesh.Attribute(i))
		if err != nil {
			return errors.Wrapf(ErrInvalidMesh, "attribute %d: %v", i, err)
		}
		e.attributeData = append(e.attributeData, encoderAttributeData{attributeIndex: i, connectivity: conn})
	}
	if len(e.attributeData) > 255 {
		return errors.Wrapf(ErrInvalidMesh, "%d attributes", len(e.attributeData)+1)
	}
	return nil
}

// encodeAttributeSeamsOnFace emits one seam bit per attribute for every
// interior edge of the face whose neighbor was not processed yet.
func (e *connectivityEncoder[E]) encodeAttributeSeamsOnFace(c mesh.CornerIndex) {
	t := e.table
	corners := [3]mesh.CornerIndex{c, t.Next(c), t.Previous(c)}
	e.visitedFaces[t.Face(c)] = true
	for _, corner := range corners {
		opp := t.Opposite(corner)
		if opp == mesh.InvalidCornerIndex || e.visitedFaces[t.Face(opp)] {
			continue
		}
		for i, data := range e.attributeData {
			e.traversal.EncodeAttributeSeam(i, data.connectivity.IsCornerOppositeToSeamEdge(corner))
		}
	}
}
