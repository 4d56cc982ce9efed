package buffer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// EncoderBuffer accumulates encoded bytes.
type EncoderBuffer struct {
	data []byte

	bitMode    bool
	encodeSize bool
	bits       []byte
	bitOffset  int
}

// NewEncoderBuffer creates an empty encoder buffer.
func NewEncoderBuffer() *EncoderBuffer {
	return &EncoderBuffer{}
}

// Bytes returns the encoded data.
func (b *EncoderBuffer) Bytes() []byte { return b.data }

// Len returns the number of encoded bytes.
func (b *EncoderBuffer) Len() int { return len(b.data) }

// Reset clears the buffer.
func (b *EncoderBuffer) Reset() {
	b.data = b.data[:0]
	b.bitMode = false
	b.bits = nil
	b.bitOffset = 0
}

// EncodeUint8 appends one byte.
func (b *EncoderBuffer) EncodeUint8(v uint8) {
	b.data = append(b.data, v)
}

// EncodeUint16 appends a little-endian uint16.
func (b *EncoderBuffer) EncodeUint16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

// EncodeUint32 appends a little-endian uint32.
func (b *EncoderBuffer) EncodeUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// EncodeBytes appends raw bytes.
func (b *EncoderBuffer) EncodeBytes(p []byte) {
	b.data = append(b.data, p...)
}

// EncodeVarint appends v as a base-128 varint, low groups first.
func (b *EncoderBuffer) EncodeVarint(v uint64) {
	for v >= 0x80 {
		b.data = append(b.data, byte(v)|0x80)
		v >>= 7
	}
	b.data = append(b.data, byte(v))
}

// EncodeVarintSigned appends v zig-zag mapped to an unsigned varint.
func (b *EncoderBuffer) EncodeVarintSigned(v int64) {
	b.EncodeVarint(uint64(v<<1) ^ uint64(v>>63))
}

// StartBitEncoding switches to bit mode. With encodeSize the byte length of
// the bit block is written as a varint before the block.
func (b *EncoderBuffer) StartBitEncoding(encodeSize bool) error {
	if b.bitMode {
		return errors.Wrap(ErrBitMode, "bit encoding already started")
	}
	b.bitMode = true
	b.encodeSize = encodeSize
	b.bits = b.bits[:0]
	b.bitOffset = 0
	return nil
}

// EncodeLeastSignificantBits32 writes the low n bits of v, least significant first.
func (b *EncoderBuffer) EncodeLeastSignificantBits32(n int, v uint32) error {
	if !b.bitMode {
		return errors.Wrap(ErrBitMode, "bit encoding not started")
	}
	for i := 0; i < n; i++ {
		if b.bitOffset>>3 >= len(b.bits) {
			b.bits = append(b.bits, 0)
		}
		if (v>>i)&1 != 0 {
			b.bits[b.bitOffset>>3] |= 1 << (b.bitOffset & 7)
		}
		b.bitOffset++
	}
	return nil
}

// EndBitEncoding flushes the bit block into the byte stream.
func (b *EncoderBuffer) EndBitEncoding() error {
	if !b.bitMode {
		return errors.Wrap(ErrBitMode, "bit encoding not started")
	}
	b.bitMode = false
	n := (b.bitOffset + 7) / 8
	if b.encodeSize {
		b.EncodeVarint(uint64(n))
	}
	b.data = append(b.data, b.bits[:n]...)
	return nil
}
