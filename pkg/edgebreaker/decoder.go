package edgebreaker

import (
	"math"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// decoderAttributeData is the connectivity of one non-position attribute,
// rebuilt from its seam bits.
type decoderAttributeData struct {
	seamCorners  []mesh.CornerIndex
	connectivity *mesh.MeshAttributeCornerTable
}

// connectivityDecoder rebuilds a corner table from a connectivity block.
type connectivityDecoder[D traversalDecoder] struct {
	log       *zap.Logger
	traversal D

	table              *mesh.CornerTable
	numEncodedVertices int
	numConnectedVerts  int
	isVertHole         []bool
	splitData          []TopologySplitEventData
	initConfigurations []bool
	initCorners        []mesh.CornerIndex
	attributeData      []decoderAttributeData
}

func newConnectivityDecoder[D traversalDecoder](traversal D, log *zap.Logger) *connectivityDecoder[D] {
	return &connectivityDecoder[D]{log: log, traversal: traversal}
}

// CornerTable returns the table being decoded.
func (d *connectivityDecoder[D]) CornerTable() *mesh.CornerTable { return d.table }

// decode reads the connectivity block from in and fills m with faces and
// the number of points.
func (d *connectivityDecoder[D]) decode(in *buffer.DecoderBuffer, m *mesh.Mesh) error {
	numVertices, err := in.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "vertex count")
	}
	numFaces, err := in.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "face count")
	}
	if numFaces > uint64(mesh.MaxFaces) {
		return errors.Wrapf(mesh.ErrTooManyFaces, "%d faces", numFaces)
	}
	if numVertices > numFaces*3 {
		return malformed("%d vertices for %d faces", numVertices, numFaces)
	}
	numAttributeData, err := in.DecodeUint8()
	if err != nil {
		return errors.Wrap(err, "attribute data count")
	}
	numSymbols, err := in.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "symbol count")
	}
	if numFaces < numSymbols {
		return malformed("%d symbols for %d faces", numSymbols, numFaces)
	}
	// Every symbol is a face; only interior initial faces carry none, and
	// each of those needs at least three symbols around it.
	if numFaces > numSymbols+numSymbols/3 {
		return malformed("%d faces cannot come from %d symbols", numFaces, numSymbols)
	}
	numSplitSymbols, err := in.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "split symbol count")
	}
	if numSplitSymbols > numSymbols {
		return malformed("%d split symbols of %d", numSplitSymbols, numSymbols)
	}
	if numVertices+numSplitSymbols > math.MaxInt32 {
		return malformed("%d vertices", numVertices+numSplitSymbols)
	}

	d.numEncodedVertices = int(numVertices)
	maxVertices := int(numVertices + numSplitSymbols)
	d.table = &mesh.CornerTable{}
	if err := d.table.Reset(int(numFaces), maxVertices); err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	d.isVertHole = make([]bool, maxVertices)
	for i := range d.isVertHole {
		d.isVertHole[i] = true
	}
	d.initConfigurations = d.initConfigurations[:0]
	d.initCorners = d.initCorners[:0]
	d.attributeData = make([]decoderAttributeData, numAttributeData)

	if err := d.decodeSplitData(in); err != nil {
		return err
	}

	d.traversal.Init(d)
	d.traversal.SetNumEncodedVertices(maxVertices)
	d.traversal.SetNumAttributeData(int(numAttributeData))
	if err := d.traversal.Start(in); err != nil {
		if errors.Is(err, ErrUnsupported) {
			return err
		}
		return errors.Wrap(ErrMalformed, err.Error())
	}

	n, err := d.decodeConnectivity(int(numSymbols))
	if err != nil {
		return err
	}
	d.numConnectedVerts = n

	if len(d.attributeData) > 0 {
		for c := 0; c < d.table.NumCorners(); c += 3 {
			d.decodeAttributeSeamsOnFace(mesh.CornerIndex(c))
		}
	}
	d.traversal.Done()

	for i := range d.attributeData {
		data := &d.attributeData[i]
		data.connectivity = mesh.NewMeshAttributeCornerTable(d.table)
		for _, c := range data.seamCorners {
			data.connectivity.AddSeamEdge(c)
		}
		if err := data.connectivity.RecomputeVertices(nil, nil); err != nil {
			return errors.Wrap(ErrMalformed, err.Error())
		}
	}
	if err := d.assignPointsToCorners(m); err != nil {
		return err
	}
	d.log.Debug("connectivity decoded",
		zap.Int("vertices", d.numConnectedVerts),
		zap.Int("faces", d.table.NumFaces()),
		zap.Int("symbols", int(numSymbols)),
		zap.Int("split_symbols", int(numSplitSymbols)),
		zap.Int("points", m.NumPoints()),
	)
	return nil
}

// decodeSplitData reads the topology split events. They are kept sorted by
// source symbol so the decoder can pop them from the back.
func (d *connectivityDecoder[D]) decodeSplitData(in *buffer.DecoderBuffer) error {
	num, err := in.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "split event count")
	}
	if num > uint64(d.table.NumFaces()) {
		return malformed("%d split events for %d faces", num, d.table.NumFaces())
	}
	d.splitData = make([]TopologySplitEventData, 0, num)
	if num == 0 {
		return nil
	}
	var lastSource uint32
	for i := uint64(0); i < num; i++ {
		delta, err := in.DecodeVarint32()
		if err != nil {
			return errors.Wrap(err, "split source")
		}
		source := uint64(lastSource) + uint64(delta)
		if source > math.MaxUint32 {
			return malformed("split source symbol %d", source)
		}
		back, err := in.DecodeVarint32()
		if err != nil {
			return errors.Wrap(err, "split symbol")
		}
		if uint64(back) > source {
			return malformed("split symbol before stream start")
		}
		d.splitData = append(d.splitData, TopologySplitEventData{
			SourceSymbolID: uint32(source),
			SplitSymbolID:  uint32(source) - back,
		})
		lastSource = uint32(source)
	}
	if _, err := in.StartBitDecoding(false); err != nil {
		return err
	}
	for i := range d.splitData {
		bit, err := in.DecodeLeastSignificantBits32(1)
		if err != nil {
			return errors.Wrap(err, "split edges")
		}
		d.splitData[i].SourceEdge = EdgeFaceName(bit & 1)
	}
	in.EndBitDecoding()
	return nil
}

// isTopologySplit pops the pending split event whose source is
// encoderSymbolID. A pending event with a larger source means the stream
// skipped it.
func (d *connectivityDecoder[D]) isTopologySplit(encoderSymbolID int) (edge EdgeFaceName, splitID int, ok bool, err error) {
	if len(d.splitData) == 0 {
		return 0, 0, false, nil
	}
	last := d.splitData[len(d.splitData)-1]
	if int64(last.SourceSymbolID) > int64(encoderSymbolID) {
		return 0, 0, false, malformed("split event for symbol %d was skipped", last.SourceSymbolID)
	}
	if int(last.SourceSymbolID) != encoderSymbolID {
		return 0, 0, false, nil
	}
	d.splitData = d.splitData[:len(d.splitData)-1]
	return last.SourceEdge, int(last.SplitSymbolID), true, nil
}

func topCorner(s *arraystack.Stack) mesh.CornerIndex {
	v, _ := s.Peek()
	return v.(mesh.CornerIndex)
}

func setTop(s *arraystack.Stack, c mesh.CornerIndex) {
	s.Pop()
	s.Push(c)
}

// decodeConnectivity replays the symbols last to first. The active corner
// stack holds the open edge new faces attach to; split events park extra
// edges keyed by the decoder id of the S symbol that will consume them.
// Returns the number of vertices left after compaction.
func (d *connectivityDecoder[D]) decodeConnectivity(numSymbols int) (int, error) {
	t := d.table
	active := arraystack.New()
	splitCorners := treemap.NewWith(utils.IntComparator)
	var invalidVertices []mesh.VertexIndex
	removeInvalid := len(d.attributeData) == 0
	maxVertices := len(d.isVertHole)

	numFaces := 0
	for symbolID := 0; symbolID < numSymbols; symbolID++ {
		corner := mesh.CornerIndex(3 * numFaces)
		numFaces++
		checkSplit := false
		symbol := d.traversal.DecodeSymbol()
		switch symbol {
		case SymbolC:
			if active.Empty() {
				return -1, malformed("C symbol %d with empty active stack", symbolID)
			}
			a := topCorner(active)
			x := t.Vertex(t.Next(a))
			b := t.Next(t.LeftMostCorner(x))
			if b == mesh.InvalidCornerIndex || a == b {
				return -1, malformed("C symbol %d closes on itself", symbolID)
			}
			if t.Opposite(a) != mesh.InvalidCornerIndex || t.Opposite(b) != mesh.InvalidCornerIndex {
				return -1, malformed("C symbol %d attaches to a closed edge", symbolID)
			}
			t.SetOppositeCorners(a, corner+1)
			t.SetOppositeCorners(b, corner+2)
			aPrev := t.Vertex(t.Previous(a))
			bNext := t.Vertex(t.Next(b))
			if x == aPrev || x == bNext {
				return -1, malformed("C symbol %d builds a degenerate face", symbolID)
			}
			t.MapCornerToVertex(corner, x)
			t.MapCornerToVertex(corner+1, bNext)
			t.MapCornerToVertex(corner+2, aPrev)
			t.SetLeftMostCorner(aPrev, corner+2)
			d.isVertHole[x] = false
			setTop(active, corner)

		case SymbolR, SymbolL:
			if active.Empty() {
				return -1, malformed("%v symbol %d with empty active stack", symbol, symbolID)
			}
			a := topCorner(active)
			if t.Opposite(a) != mesh.InvalidCornerIndex {
				return -1, malformed("%v symbol %d attaches to a closed edge", symbol, symbolID)
			}
			var opp, left, right mesh.CornerIndex
			if symbol == SymbolR {
				opp, left, right = corner+2, corner+1, corner
			} else {
				opp, left, right = corner+1, corner, corner+2
			}
			t.SetOppositeCorners(opp, a)
			v := t.AddNewVertex()
			if t.NumVertices() > maxVertices {
				return -1, malformed("too many vertices at symbol %d", symbolID)
			}
			t.MapCornerToVertex(opp, v)
			t.SetLeftMostCorner(v, opp)
			vr := t.Vertex(t.Previous(a))
			t.MapCornerToVertex(right, vr)
			t.SetLeftMostCorner(vr, right)
			t.MapCornerToVertex(left, t.Vertex(t.Next(a)))
			setTop(active, corner)
			checkSplit = true

		case SymbolS:
			if active.Empty() {
				return -1, malformed("S symbol %d with empty active stack", symbolID)
			}
			b := topCorner(active)
			active.Pop()
			if c, found := splitCorners.Get(symbolID); found {
				active.Push(c.(mesh.CornerIndex))
			}
			if active.Empty() {
				return -1, malformed("S symbol %d with one active edge", symbolID)
			}
			a := topCorner(active)
			if a == b {
				return -1, malformed("S symbol %d closes on itself", symbolID)
			}
			if t.Opposite(a) != mesh.InvalidCornerIndex || t.Opposite(b) != mesh.InvalidCornerIndex {
				return -1, malformed("S symbol %d attaches to a closed edge", symbolID)
			}
			t.SetOppositeCorners(a, corner+2)
			t.SetOppositeCorners(b, corner+1)
			p := t.Vertex(t.Previous(a))
			t.MapCornerToVertex(corner, p)
			t.MapCornerToVertex(corner+1, t.Vertex(t.Next(a)))
			bPrev := t.Vertex(t.Previous(b))
			t.MapCornerToVertex(corner+2, bPrev)
			t.SetLeftMostCorner(bPrev, corner+2)

			// Merge the vertex at "n" into "p": every corner reachable from n
			// by swinging left now points at p.
			cn := t.Next(b)
			n := t.Vertex(cn)
			if n == p || t.LeftMostCorner(n) == mesh.InvalidCornerIndex {
				return -1, malformed("S symbol %d merges vertex %d into %d", symbolID, n, p)
			}
			d.traversal.MergeVertices(p, n)
			t.SetLeftMostCorner(p, t.LeftMostCorner(n))
			first := cn
			for cn != mesh.InvalidCornerIndex {
				t.MapCornerToVertex(cn, p)
				cn = t.SwingLeft(cn)
				if cn == first {
					return -1, malformed("S symbol %d merges a closed fan", symbolID)
				}
			}
			t.MakeVertexIsolated(n)
			if removeInvalid {
				invalidVertices = append(invalidVertices, n)
			}
			setTop(active, corner)

		case SymbolE:
			v := t.AddNewVertex()
			t.MapCornerToVertex(corner, v)
			t.MapCornerToVertex(corner+1, t.AddNewVertex())
			t.MapCornerToVertex(corner+2, t.AddNewVertex())
			if t.NumVertices() > maxVertices {
				return -1, malformed("too many vertices at symbol %d", symbolID)
			}
			t.SetLeftMostCorner(v, corner)
			t.SetLeftMostCorner(v+1, corner+1)
			t.SetLeftMostCorner(v+2, corner+2)
			active.Push(corner)
			checkSplit = true

		default:
			return -1, malformed("invalid symbol at %d", symbolID)
		}
		d.traversal.NewActiveCornerReached(topCorner(active))

		if !checkSplit {
			continue
		}
		// L, R and E faces may border an S face across an inactive edge.
		encoderSymbolID := numSymbols - symbolID - 1
		for {
			edge, encoderSplitID, ok, err := d.isTopologySplit(encoderSymbolID)
			if err != nil {
				return -1, err
			}
			if !ok {
				break
			}
			top := topCorner(active)
			next := t.Previous(top)
			if edge == RightFaceEdge {
				next = t.Next(top)
			}
			splitCorners.Put(numSymbols-encoderSplitID-1, next)
		}
	}
	if t.NumVertices() > maxVertices {
		return -1, malformed("decoded %d vertices, expected at most %d", t.NumVertices(), maxVertices)
	}

	// Close the components: interior initial faces are synthesized, open
	// ones only remember their boundary corner.
	for !active.Empty() {
		corner := topCorner(active)
		active.Pop()
		interior := d.traversal.DecodeStartFaceConfiguration()
		if !interior {
			d.initConfigurations = append(d.initConfigurations, false)
			d.initCorners = append(d.initCorners, corner)
			continue
		}
		if numFaces >= t.NumFaces() {
			return -1, malformed("initial face exceeds %d faces", t.NumFaces())
		}
		vn := t.Vertex(t.Next(corner))
		b := t.Next(t.LeftMostCorner(vn))
		vx := t.Vertex(t.Next(b))
		c := t.Next(t.LeftMostCorner(vx))
		if b == mesh.InvalidCornerIndex || c == mesh.InvalidCornerIndex || corner == b || corner == c || b == c {
			return -1, malformed("initial face closes on itself")
		}
		if t.Opposite(corner) != mesh.InvalidCornerIndex || t.Opposite(b) != mesh.InvalidCornerIndex ||
			t.Opposite(c) != mesh.InvalidCornerIndex {
			return -1, malformed("initial face attaches to a closed edge")
		}
		vp := t.Vertex(t.Next(c))
		nc := mesh.CornerIndex(3 * numFaces)
		numFaces++
		t.SetOppositeCorners(nc, corner)
		t.SetOppositeCorners(nc+1, b)
		t.SetOppositeCorners(nc+2, c)
		t.MapCornerToVertex(nc, vx)
		t.MapCornerToVertex(nc+1, vp)
		t.MapCornerToVertex(nc+2, vn)
		for k := mesh.CornerIndex(0); k < 3; k++ {
			d.isVertHole[t.Vertex(nc+k)] = false
		}
		d.initConfigurations = append(d.initConfigurations, true)
		d.initCorners = append(d.initCorners, nc)
	}
	if numFaces != t.NumFaces() {
		return -1, malformed("decoded %d faces, expected %d", numFaces, t.NumFaces())
	}
	if len(d.splitData) > 0 {
		return -1, malformed("%d split events left unused", len(d.splitData))
	}

	// Fill the holes left by merged vertices with vertices from the end so
	// the valid range stays contiguous.
	numVertices := t.NumVertices()
	for _, invalid := range invalidVertices {
		src := mesh.VertexIndex(numVertices - 1)
		for t.LeftMostCorner(src) == mesh.InvalidCornerIndex {
			numVertices--
			if numVertices == 0 {
				return -1, malformed("no connected vertices left")
			}
			src = mesh.VertexIndex(numVertices - 1)
		}
		if src < invalid {
			continue
		}
		for it := mesh.NewVertexCornersIterator(t, src); !it.End(); it.Next() {
			c := it.Corner()
			if t.Vertex(c) != src {
				return -1, malformed("vertex %d has a corner of vertex %d", src, t.Vertex(c))
			}
			t.MapCornerToVertex(c, invalid)
		}
		t.SetLeftMostCorner(invalid, t.LeftMostCorner(src))
		t.MakeVertexIsolated(src)
		d.isVertHole[invalid] = d.isVertHole[src]
		d.isVertHole[src] = false
		numVertices--
	}
	if removeInvalid {
		t.SetNumVertices(numVertices)
	}
	return numVertices, nil
}

// decodeAttributeSeamsOnFace reads the seam bits of the face at corner c.
// Boundary edges are always seams and carry no bit.
func (d *connectivityDecoder[D]) decodeAttributeSeamsOnFace(c mesh.CornerIndex) {
	t := d.table
	corners := [3]mesh.CornerIndex{c, t.Next(c), t.Previous(c)}
	face := t.Face(c)
	for _, corner := range corners {
		opp := t.Opposite(corner)
		if opp == mesh.InvalidCornerIndex {
			for i := range d.attributeData {
				d.attributeData[i].seamCorners = append(d.attributeData[i].seamCorners, corner)
			}
			continue
		}
		if t.Face(opp) < face {
			continue
		}
		for i := range d.attributeData {
			if d.traversal.DecodeAttributeSeam(i) {
				d.attributeData[i].seamCorners = append(d.attributeData[i].seamCorners, corner)
			}
		}
	}
}

// assignPointsToCorners writes the decoded faces into m. Without attribute
// connectivity every vertex is a point; otherwise a vertex becomes one
// point per run of corners that agree on all attribute vertices.
func (d *connectivityDecoder[D]) assignPointsToCorners(m *mesh.Mesh) error {
	t := d.table
	m.SetNumFaces(t.NumFaces())
	if len(d.attributeData) == 0 {
		for f := 0; f < t.NumFaces(); f++ {
			vs := t.FaceVertices(mesh.FaceIndex(f))
			m.SetFace(mesh.FaceIndex(f), mesh.Face{mesh.PointIndex(vs[0]), mesh.PointIndex(vs[1]), mesh.PointIndex(vs[2])})
		}
		m.SetNumPoints(d.numConnectedVerts)
		return nil
	}

	cornerToPoint := make([]mesh.PointIndex, t.NumCorners())
	numPoints := 0
	for v := 0; v < t.NumVertices(); v++ {
		c := t.LeftMostCorner(mesh.VertexIndex(v))
		if c == mesh.InvalidCornerIndex {
			continue
		}
		first := c
		if !d.isVertHole[v] {
			// Interior vertices start at a seam of any attribute, if there
			// is one, so that runs are not cut at an arbitrary corner.
			for _, data := range d.attributeData {
				if !data.connectivity.IsCornerOnSeam(c) {
					continue
				}
				vertex := data.connectivity.Vertex(c)
				found := false
				for act := t.SwingRight(c); act != c; act = t.SwingRight(act) {
					if act == mesh.InvalidCornerIndex {
						return malformed("interior vertex %d has an open fan", v)
					}
					if data.connectivity.Vertex(act) != vertex {
						first, found = act, true
						break
					}
				}
				if found {
					break
				}
			}
		}

		cornerToPoint[first] = mesh.PointIndex(numPoints)
		numPoints++
		prev := first
		for c = t.SwingRight(first); c != mesh.InvalidCornerIndex && c != first; c = t.SwingRight(c) {
			seam := false
			for _, data := range d.attributeData {
				if data.connectivity.Vertex(c) != data.connectivity.Vertex(prev) {
					seam = true
					break
				}
			}
			if seam {
				cornerToPoint[c] = mesh.PointIndex(numPoints)
				numPoints++
			} else {
				cornerToPoint[c] = cornerToPoint[prev]
			}
			prev = c
		}
	}
	for f := 0; f < t.NumFaces(); f++ {
		m.SetFace(mesh.FaceIndex(f), mesh.Face{cornerToPoint[3*f], cornerToPoint[3*f+1], cornerToPoint[3*f+2]})
	}
	m.SetNumPoints(numPoints)
	return nil
}

func (d *connectivityDecoder[D]) result() decodedConnectivity {
	conns := make([]*mesh.MeshAttributeCornerTable, len(d.attributeData))
	for i, data := range d.attributeData {
		conns[i] = data.connectivity
	}
	return decodedConnectivity{table: d.table, attributeTables: conns}
}
