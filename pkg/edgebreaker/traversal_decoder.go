package edgebreaker

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/entropy"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// decoderState is the view of the connectivity decoder that traversal
// decoders may query.
type decoderState interface {
	CornerTable() *mesh.CornerTable
}

// traversalDecoder reads back what a traversalEncoder wrote. Symbols come
// out in decoding order, i.e. last encoded first.
type traversalDecoder interface {
	Init(dec decoderState)
	SetNumEncodedVertices(n int)
	SetNumAttributeData(n int)
	Start(in *buffer.DecoderBuffer) error
	DecodeStartFaceConfiguration() bool
	DecodeSymbol() Symbol
	NewActiveCornerReached(c mesh.CornerIndex)
	MergeVertices(dest, source mesh.VertexIndex)
	DecodeAttributeSeam(attribute int) bool
	Done()
}

// traversalDecoderBase reads explicitly stored symbols.
type traversalDecoderBase struct {
	dec              decoderState
	numVertices      int
	symbols          *buffer.DecoderBuffer
	startFaces       *entropy.RAnsBitDecoder
	attributeSeams   []*entropy.RAnsBitDecoder
	numAttributeData int
}

func (t *traversalDecoderBase) Init(dec decoderState) {
	t.dec = dec
	t.startFaces = entropy.NewRAnsBitDecoder()
}

func (t *traversalDecoderBase) SetNumEncodedVertices(n int) { t.numVertices = n }

func (t *traversalDecoderBase) SetNumAttributeData(n int) { t.numAttributeData = n }

func (t *traversalDecoderBase) Start(in *buffer.DecoderBuffer) error {
	if err := t.decodeTraversalSymbols(in); err != nil {
		return err
	}
	if err := t.decodeStartFaces(in); err != nil {
		return err
	}
	return t.decodeAttributeSeams(in)
}

func (t *traversalDecoderBase) DecodeStartFaceConfiguration() bool {
	return t.startFaces.DecodeNextBit()
}

// DecodeSymbol reads one bit and, unless it is C, a two bit suffix.
func (t *traversalDecoderBase) DecodeSymbol() Symbol {
	if t.symbols == nil {
		return SymbolInvalid
	}
	bit, err := t.symbols.DecodeLeastSignificantBits32(1)
	if err != nil {
		return SymbolInvalid
	}
	if Symbol(bit) == SymbolC {
		return SymbolC
	}
	suffix, err := t.symbols.DecodeLeastSignificantBits32(2)
	if err != nil {
		return SymbolInvalid
	}
	return Symbol(bit | suffix<<1)
}

func (t *traversalDecoderBase) NewActiveCornerReached(mesh.CornerIndex) {}

func (t *traversalDecoderBase) MergeVertices(_, _ mesh.VertexIndex) {}

func (t *traversalDecoderBase) DecodeAttributeSeam(attribute int) bool {
	return t.attributeSeams[attribute].DecodeNextBit()
}

func (t *traversalDecoderBase) Done() {
	if t.symbols != nil {
		t.symbols.EndBitDecoding()
	}
	t.startFaces.EndDecoding()
	for _, d := range t.attributeSeams {
		d.EndDecoding()
	}
}

// decodeTraversalSymbols splits the sized symbol bit block off in.
func (t *traversalDecoderBase) decodeTraversalSymbols(in *buffer.DecoderBuffer) error {
	size, err := in.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "traversal size")
	}
	if size > uint64(in.RemainingSize()) {
		return malformed("traversal block of %d bytes exceeds remaining %d", size, in.RemainingSize())
	}
	data, err := in.DecodeBytes(int(size))
	if err != nil {
		return err
	}
	t.symbols = buffer.NewDecoderBuffer(data)
	if _, err := t.symbols.StartBitDecoding(false); err != nil {
		return err
	}
	return nil
}

func (t *traversalDecoderBase) decodeStartFaces(in *buffer.DecoderBuffer) error {
	if err := t.startFaces.StartDecoding(in); err != nil {
		return errors.Wrap(err, "start face configurations")
	}
	return nil
}

func (t *traversalDecoderBase) decodeAttributeSeams(in *buffer.DecoderBuffer) error {
	t.attributeSeams = make([]*entropy.RAnsBitDecoder, t.numAttributeData)
	for i := range t.attributeSeams {
		t.attributeSeams[i] = entropy.NewRAnsBitDecoder()
		if err := t.attributeSeams[i].StartDecoding(in); err != nil {
			return errors.Wrapf(err, "attribute %d seams", i)
		}
	}
	return nil
}

// standardTraversalDecoder reads every symbol explicitly.
type standardTraversalDecoder struct {
	traversalDecoderBase
}

func newStandardTraversalDecoder() *standardTraversalDecoder {
	return &standardTraversalDecoder{}
}
