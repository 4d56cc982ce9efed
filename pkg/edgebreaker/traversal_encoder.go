package edgebreaker

import (
	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/entropy"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// encoderState is the view of the connectivity encoder that traversal
// encoders may query.
type encoderState interface {
	CornerTable() *mesh.CornerTable
	IsFaceEncoded(f mesh.FaceIndex) bool
	NumSplitSymbols() int
}

// traversalEncoder serializes the symbols produced by the connectivity
// encoder, together with start face configurations and attribute seams.
type traversalEncoder interface {
	Init(enc encoderState)
	SetNumAttributeData(n int)
	Start()
	EncodeStartFaceConfiguration(interior bool)
	NewCornerReached(c mesh.CornerIndex)
	EncodeSymbol(s Symbol)
	EncodeAttributeSeam(attribute int, seam bool)
	Done() error
	NumEncodedSymbols() int
	Buffer() *buffer.EncoderBuffer
}

// traversalEncoderBase stores symbols as plain bit patterns.
type traversalEncoderBase struct {
	enc            encoderState
	out            *buffer.EncoderBuffer
	symbols        []Symbol
	startFaces     *entropy.RAnsBitEncoder
	attributeSeams []*entropy.RAnsBitEncoder
}

func (t *traversalEncoderBase) Init(enc encoderState) {
	t.enc = enc
	t.out = buffer.NewEncoderBuffer()
	t.symbols = t.symbols[:0]
	t.startFaces = entropy.NewRAnsBitEncoder()
	t.attributeSeams = nil
}

func (t *traversalEncoderBase) SetNumAttributeData(n int) {
	t.attributeSeams = make([]*entropy.RAnsBitEncoder, n)
	for i := range t.attributeSeams {
		t.attributeSeams[i] = entropy.NewRAnsBitEncoder()
	}
}

func (t *traversalEncoderBase) Start() {}

func (t *traversalEncoderBase) EncodeStartFaceConfiguration(interior bool) {
	t.startFaces.EncodeBit(interior)
}

func (t *traversalEncoderBase) NewCornerReached(mesh.CornerIndex) {}

func (t *traversalEncoderBase) EncodeSymbol(s Symbol) {
	t.symbols = append(t.symbols, s)
}

func (t *traversalEncoderBase) EncodeAttributeSeam(attribute int, seam bool) {
	t.attributeSeams[attribute].EncodeBit(seam)
}

func (t *traversalEncoderBase) NumEncodedSymbols() int { return len(t.symbols) }

func (t *traversalEncoderBase) Buffer() *buffer.EncoderBuffer { return t.out }

// encodeTraversalSymbols writes the collected symbols last to first into a
// sized bit block.
func (t *traversalEncoderBase) encodeTraversalSymbols() error {
	if err := t.out.StartBitEncoding(true); err != nil {
		return err
	}
	for i := len(t.symbols) - 1; i >= 0; i-- {
		s := t.symbols[i]
		if err := t.out.EncodeLeastSignificantBits32(s.bitLength(), uint32(s)); err != nil {
			return err
		}
	}
	return t.out.EndBitEncoding()
}

// initialValences snapshots the valence of every vertex of table through
// its valence cache. The cache is released before returning.
func initialValences(table *mesh.CornerTable) []int {
	cache := table.ValenceCache()
	cache.CacheValences()
	defer cache.ClearValenceCache()
	valences := make([]int, table.NumVertices())
	for v := range valences {
		valences[v] = cache.ValenceFromCache(mesh.VertexIndex(v))
	}
	return valences
}

func (t *traversalEncoderBase) encodeStartFaces() {
	t.startFaces.EndEncoding(t.out)
}

func (t *traversalEncoderBase) encodeAttributeSeams() {
	for _, e := range t.attributeSeams {
		e.EndEncoding(t.out)
	}
}

// standardTraversalEncoder writes every symbol explicitly.
type standardTraversalEncoder struct {
	traversalEncoderBase
}

func newStandardTraversalEncoder() *standardTraversalEncoder {
	return &standardTraversalEncoder{}
}

func (t *standardTraversalEncoder) Done() error {
	if err := t.encodeTraversalSymbols(); err != nil {
		return err
	}
	t.encodeStartFaces()
	t.encodeAttributeSeams()
	return nil
}
