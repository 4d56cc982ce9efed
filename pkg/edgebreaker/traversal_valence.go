package edgebreaker

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/entropy"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

const (
	minValence = 2
	maxValence = 7
)

// valenceMode2To7 is the only context layout: valences clamped to [2, 7].
const valenceMode2To7 int8 = 0

// valenceContext maps a vertex valence to one of the symbol contexts.
func valenceContext(valence int) int {
	if valence < minValence {
		valence = minValence
	} else if valence > maxValence {
		valence = maxValence
	}
	return valence - minValence
}

// valenceTraversalEncoder groups symbols by the valence of the vertex that
// the decoder will pivot on and entropy codes every group separately.
type valenceTraversalEncoder struct {
	traversalEncoderBase
	table          *mesh.CornerTable
	valences       []int
	cornerToVertex []int
	contexts       [][]uint32
	prevSymbol     Symbol
	lastCorner     mesh.CornerIndex
	numSymbols     int
}

func newValenceTraversalEncoder() *valenceTraversalEncoder {
	return &valenceTraversalEncoder{}
}

func (t *valenceTraversalEncoder) Init(enc encoderState) {
	t.traversalEncoderBase.Init(enc)
	t.table = enc.CornerTable()
	t.valences = initialValences(t.table)
	// Split symbols remap corners to new vertices, so work on a copy.
	t.cornerToVertex = make([]int, t.table.NumCorners())
	for c := range t.cornerToVertex {
		t.cornerToVertex[c] = int(t.table.Vertex(mesh.CornerIndex(c)))
	}
	t.contexts = make([][]uint32, maxValence-minValence+1)
	t.prevSymbol = SymbolInvalid
	t.lastCorner = mesh.InvalidCornerIndex
	t.numSymbols = 0
}

func (t *valenceTraversalEncoder) NewCornerReached(c mesh.CornerIndex) { t.lastCorner = c }

func (t *valenceTraversalEncoder) EncodeSymbol(s Symbol) {
	t.numSymbols++
	c := t.lastCorner
	next := t.table.Next(c)
	prev := t.table.Previous(c)
	activeValence := t.valences[t.cornerToVertex[next]]

	switch s {
	case SymbolC, SymbolS:
		t.valences[t.cornerToVertex[next]]--
		t.valences[t.cornerToVertex[prev]]--
		if s == SymbolS {
			t.splitVertex(c, next, prev)
		}
	case SymbolR:
		t.valences[t.cornerToVertex[c]]--
		t.valences[t.cornerToVertex[next]]--
		t.valences[t.cornerToVertex[prev]] -= 2
	case SymbolL:
		t.valences[t.cornerToVertex[c]]--
		t.valences[t.cornerToVertex[next]] -= 2
		t.valences[t.cornerToVertex[prev]]--
	case SymbolE:
		t.valences[t.cornerToVertex[c]] -= 2
		t.valences[t.cornerToVertex[next]] -= 2
		t.valences[t.cornerToVertex[prev]] -= 2
	}

	if t.prevSymbol != SymbolInvalid {
		ctx := valenceContext(activeValence)
		t.contexts[ctx] = append(t.contexts[ctx], t.prevSymbol.id())
	}
	t.prevSymbol = s
}

// splitVertex divides the tip vertex of an S face in two, the way the
// decoder sees it before the split is merged. Faces on the left keep the
// vertex, faces on the right move to a new one.
func (t *valenceTraversalEncoder) splitVertex(c, next, prev mesh.CornerIndex) {
	numLeft := 0
	for act := t.table.Opposite(prev); act != mesh.InvalidCornerIndex; {
		if t.enc.IsFaceEncoded(t.table.Face(act)) {
			break
		}
		numLeft++
		act = t.table.Opposite(t.table.Next(act))
	}
	t.valences[t.cornerToVertex[c]] = numLeft + 1

	newVertex := len(t.valences)
	numRight := 0
	for act := t.table.Opposite(next); act != mesh.InvalidCornerIndex; {
		if t.enc.IsFaceEncoded(t.table.Face(act)) {
			break
		}
		numRight++
		t.cornerToVertex[t.table.Next(act)] = newVertex
		act = t.table.Opposite(t.table.Previous(act))
	}
	t.valences = append(t.valences, numRight+1)
}

func (t *valenceTraversalEncoder) Done() error {
	t.encodeStartFaces()
	t.encodeAttributeSeams()
	t.out.EncodeUint8(uint8(valenceMode2To7))
	for _, symbols := range t.contexts {
		t.out.EncodeVarint(uint64(len(symbols)))
		if len(symbols) > 0 {
			if err := entropy.EncodeSymbols(symbols, t.out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *valenceTraversalEncoder) NumEncodedSymbols() int { return t.numSymbols }

// valenceTraversalDecoder mirrors valenceTraversalEncoder. Each context is
// decoded up front and consumed from its back.
type valenceTraversalDecoder struct {
	traversalDecoderBase
	table         *mesh.CornerTable
	valences      []int
	contexts      [][]uint32
	counters      []int
	activeContext int
	lastSymbol    Symbol
}

func newValenceTraversalDecoder() *valenceTraversalDecoder {
	return &valenceTraversalDecoder{}
}

func (t *valenceTraversalDecoder) Init(dec decoderState) {
	t.traversalDecoderBase.Init(dec)
	t.table = dec.CornerTable()
	t.activeContext = -1
	t.lastSymbol = SymbolInvalid
}

func (t *valenceTraversalDecoder) SetNumEncodedVertices(n int) {
	t.traversalDecoderBase.SetNumEncodedVertices(n)
	t.valences = make([]int, n)
}

func (t *valenceTraversalDecoder) Start(in *buffer.DecoderBuffer) error {
	if err := t.decodeStartFaces(in); err != nil {
		return err
	}
	if err := t.decodeAttributeSeams(in); err != nil {
		return err
	}
	mode, err := in.DecodeUint8()
	if err != nil {
		return errors.Wrap(err, "valence mode")
	}
	if int8(mode) != valenceMode2To7 {
		return errors.Wrapf(ErrUnsupported, "valence mode %d", int8(mode))
	}
	n := maxValence - minValence + 1
	t.contexts = make([][]uint32, n)
	t.counters = make([]int, n)
	for i := 0; i < n; i++ {
		num, err := in.DecodeVarint()
		if err != nil {
			return errors.Wrapf(err, "context %d size", i)
		}
		if num > uint64(t.table.NumFaces()) {
			return malformed("context %d holds %d symbols for %d faces", i, num, t.table.NumFaces())
		}
		if num == 0 {
			continue
		}
		symbols, err := entropy.DecodeSymbols(int(num), in)
		if err != nil {
			return errors.Wrapf(err, "context %d symbols", i)
		}
		t.contexts[i] = symbols
		t.counters[i] = int(num)
	}
	return nil
}

// DecodeSymbol returns E for the very first symbol. The encoder never
// stores it since a traversal always ends on E.
func (t *valenceTraversalDecoder) DecodeSymbol() Symbol {
	if t.activeContext < 0 {
		t.lastSymbol = SymbolE
		return t.lastSymbol
	}
	t.counters[t.activeContext]--
	i := t.counters[t.activeContext]
	if i < 0 {
		return SymbolInvalid
	}
	id := t.contexts[t.activeContext][i]
	if int(id) >= len(symbolFromID) {
		return SymbolInvalid
	}
	t.lastSymbol = symbolFromID[id]
	return t.lastSymbol
}

func (t *valenceTraversalDecoder) NewActiveCornerReached(c mesh.CornerIndex) {
	tip := int(t.table.Vertex(c))
	next := int(t.table.Vertex(t.table.Next(c)))
	prev := int(t.table.Vertex(t.table.Previous(c)))
	if tip >= len(t.valences) || next >= len(t.valences) || prev >= len(t.valences) {
		t.activeContext = -1
		return
	}
	switch t.lastSymbol {
	case SymbolC, SymbolS:
		t.valences[next]++
		t.valences[prev]++
	case SymbolR:
		t.valences[tip]++
		t.valences[next]++
		t.valences[prev] += 2
	case SymbolL:
		t.valences[tip]++
		t.valences[next] += 2
		t.valences[prev]++
	case SymbolE:
		t.valences[tip] += 2
		t.valences[next] += 2
		t.valences[prev] += 2
	}
	t.activeContext = valenceContext(t.valences[next])
}

func (t *valenceTraversalDecoder) MergeVertices(dest, source mesh.VertexIndex) {
	if int(dest) < len(t.valences) && int(source) < len(t.valences) {
		t.valences[dest] += t.valences[source]
	}
}
