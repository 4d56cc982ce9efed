package edgebreaker

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/entropy"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// predictiveTraversalEncoder guesses the symbol that follows a C or R from
// the valence of the pivot vertex and stores only a hit/miss bit when the
// guess is checked.
type predictiveTraversalEncoder struct {
	traversalEncoderBase
	table           *mesh.CornerTable
	valences        []int
	predictions     []bool
	prevSymbol      Symbol
	lastCorner      mesh.CornerIndex
	numSymbols      int
	numSplitSymbols int
}

func newPredictiveTraversalEncoder() *predictiveTraversalEncoder {
	return &predictiveTraversalEncoder{}
}

func (t *predictiveTraversalEncoder) Init(enc encoderState) {
	t.traversalEncoderBase.Init(enc)
	t.table = enc.CornerTable()
	t.valences = initialValences(t.table)
	t.predictions = t.predictions[:0]
	t.prevSymbol = SymbolInvalid
	t.lastCorner = mesh.InvalidCornerIndex
	t.numSymbols = 0
	t.numSplitSymbols = 0
}

func (t *predictiveTraversalEncoder) NewCornerReached(c mesh.CornerIndex) { t.lastCorner = c }

// predict returns R for low-valence pivots, C otherwise, and Invalid for
// split vertices.
func predict(valence int) Symbol {
	switch {
	case valence < 0:
		return SymbolInvalid
	case valence < 6:
		return SymbolR
	default:
		return SymbolC
	}
}

func (t *predictiveTraversalEncoder) EncodeSymbol(s Symbol) {
	t.numSymbols++
	predicted := SymbolInvalid
	checked := false
	c := t.lastCorner
	next := t.table.Vertex(t.table.Next(c))
	prev := t.table.Vertex(t.table.Previous(c))
	tip := t.table.Vertex(c)
	switch s {
	case SymbolC, SymbolS:
		if s == SymbolC {
			predicted, checked = predict(t.valences[next]), true
		}
		t.valences[next]--
		t.valences[prev]--
		if s == SymbolS {
			// The decoder only merges the two halves of the tip vertex once it
			// reaches this symbol, so nothing can be predicted from it.
			t.valences[tip] = -1
			t.numSplitSymbols++
		}
	case SymbolR:
		predicted, checked = predict(t.valences[next]), true
		t.valences[tip]--
		t.valences[next]--
		t.valences[prev] -= 2
	case SymbolL:
		t.valences[tip]--
		t.valences[next] -= 2
		t.valences[prev]--
	case SymbolE:
		t.valences[tip] -= 2
		t.valences[next] -= 2
		t.valences[prev] -= 2
	}

	if t.prevSymbol != SymbolInvalid {
		hit := checked && predicted == t.prevSymbol
		if checked {
			t.predictions = append(t.predictions, hit)
		}
		if !hit {
			t.traversalEncoderBase.EncodeSymbol(t.prevSymbol)
		}
	}
	t.prevSymbol = s
}

func (t *predictiveTraversalEncoder) Done() error {
	if t.prevSymbol != SymbolInvalid {
		t.traversalEncoderBase.EncodeSymbol(t.prevSymbol)
	}
	if err := t.encodeTraversalSymbols(); err != nil {
		return err
	}
	t.encodeStartFaces()
	t.encodeAttributeSeams()
	t.out.EncodeUint32(uint32(t.numSplitSymbols))

	predictions := entropy.NewRAnsBitEncoder()
	for i := len(t.predictions) - 1; i >= 0; i-- {
		predictions.EncodeBit(t.predictions[i])
	}
	predictions.EndEncoding(t.out)
	return nil
}

func (t *predictiveTraversalEncoder) NumEncodedSymbols() int { return t.numSymbols }

// predictiveTraversalDecoder mirrors predictiveTraversalEncoder.
type predictiveTraversalDecoder struct {
	traversalDecoderBase
	table       *mesh.CornerTable
	valences    []int
	predictions *entropy.RAnsBitDecoder
	predicted   Symbol
	lastSymbol  Symbol
}

func newPredictiveTraversalDecoder() *predictiveTraversalDecoder {
	return &predictiveTraversalDecoder{}
}

func (t *predictiveTraversalDecoder) Init(dec decoderState) {
	t.traversalDecoderBase.Init(dec)
	t.table = dec.CornerTable()
	t.predictions = entropy.NewRAnsBitDecoder()
	t.predicted = SymbolInvalid
	t.lastSymbol = SymbolInvalid
}

func (t *predictiveTraversalDecoder) Start(in *buffer.DecoderBuffer) error {
	if err := t.traversalDecoderBase.Start(in); err != nil {
		return err
	}
	numSplit, err := in.DecodeUint32()
	if err != nil {
		return errors.Wrap(err, "split symbol count")
	}
	if int64(numSplit) >= int64(t.numVertices) {
		return malformed("%d split symbols for %d vertices", numSplit, t.numVertices)
	}
	t.valences = make([]int, t.numVertices)
	if err := t.predictions.StartDecoding(in); err != nil {
		return errors.Wrap(err, "predictions")
	}
	return nil
}

func (t *predictiveTraversalDecoder) DecodeSymbol() Symbol {
	if t.predicted != SymbolInvalid && t.predictions.DecodeNextBit() {
		t.lastSymbol = t.predicted
		return t.lastSymbol
	}
	t.lastSymbol = t.traversalDecoderBase.DecodeSymbol()
	return t.lastSymbol
}

func (t *predictiveTraversalDecoder) NewActiveCornerReached(c mesh.CornerIndex) {
	tip := t.table.Vertex(c)
	next := t.table.Vertex(t.table.Next(c))
	prev := t.table.Vertex(t.table.Previous(c))
	if !t.inRange(tip, next, prev) {
		t.predicted = SymbolInvalid
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
	if t.lastSymbol == SymbolC || t.lastSymbol == SymbolR {
		if t.valences[next] < 6 {
			t.predicted = SymbolR
		} else {
			t.predicted = SymbolC
		}
	} else {
		t.predicted = SymbolInvalid
	}
}

func (t *predictiveTraversalDecoder) MergeVertices(dest, source mesh.VertexIndex) {
	if t.inRange(dest, source) {
		t.valences[dest] += t.valences[source]
	}
}

func (t *predictiveTraversalDecoder) Done() {
	t.traversalDecoderBase.Done()
	t.predictions.EndDecoding()
}

func (t *predictiveTraversalDecoder) inRange(vs ...mesh.VertexIndex) bool {
	for _, v := range vs {
		if int(v) >= len(t.valences) {
			return false
		}
	}
	return true
}
