package edgebreaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
)

func TestSymbolBitPatterns(t *testing.T) {
	stream := []Symbol{SymbolC, SymbolS, SymbolC, SymbolL, SymbolR, SymbolE, SymbolC, SymbolE}

	out := buffer.NewEncoderBuffer()
	require.NoError(t, out.StartBitEncoding(false))
	bits := 0
	for _, s := range stream {
		require.NoError(t, out.EncodeLeastSignificantBits32(s.bitLength(), uint32(s)))
		bits += s.bitLength()
	}
	require.NoError(t, out.EndBitEncoding())
	assert.Equal(t, 3+3*5, bits)

	dec := &traversalDecoderBase{symbols: buffer.NewDecoderBuffer(out.Bytes())}
	_, err := dec.symbols.StartBitDecoding(false)
	require.NoError(t, err)
	for i, want := range stream {
		assert.Equal(t, want, dec.DecodeSymbol(), "symbol %d", i)
	}
}

func TestSymbolIDs(t *testing.T) {
	for id, s := range symbolFromID {
		assert.Equal(t, uint32(id), s.id())
	}
	assert.Equal(t, "L", SymbolL.String())
	assert.Equal(t, "Invalid(255)", SymbolInvalid.String())
}

func TestParseTraversalMethod(t *testing.T) {
	for _, m := range []TraversalMethod{TraversalStandard, TraversalPredictive, TraversalValence} {
		got, err := ParseTraversalMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseTraversalMethod("spiral")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPredict(t *testing.T) {
	assert.Equal(t, SymbolInvalid, predict(-1))
	assert.Equal(t, SymbolR, predict(0))
	assert.Equal(t, SymbolR, predict(5))
	assert.Equal(t, SymbolC, predict(6))
	assert.Equal(t, SymbolC, predict(12))
}

func TestValenceContext(t *testing.T) {
	assert.Equal(t, 0, valenceContext(0))
	assert.Equal(t, 0, valenceContext(2))
	assert.Equal(t, 4, valenceContext(6))
	assert.Equal(t, 5, valenceContext(7))
	assert.Equal(t, 5, valenceContext(40))
}
