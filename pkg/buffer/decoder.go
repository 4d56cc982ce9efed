package buffer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DecoderBuffer reads from an in-memory byte slice. Every read checks the
// remaining length first.
type DecoderBuffer struct {
	data    []byte
	pos     int
	version Version

	bitMode   bool
	bitSized  bool
	bitStart  int
	bitEnd    int
	bitOffset int
}

// NewDecoderBuffer wraps data for decoding.
func NewDecoderBuffer(data []byte) *DecoderBuffer {
	return &DecoderBuffer{data: data, version: CurrentVersion}
}

// SetVersion records the bitstream version being decoded.
func (b *DecoderBuffer) SetVersion(v Version) { b.version = v }

// Version returns the bitstream version being decoded.
func (b *DecoderBuffer) Version() Version { return b.version }

// RemainingSize returns the number of unread bytes.
func (b *DecoderBuffer) RemainingSize() int { return len(b.data) - b.pos }

// RemainingData returns the unread bytes without consuming them.
func (b *DecoderBuffer) RemainingData() []byte { return b.data[b.pos:] }

// DecodedSize returns the number of consumed bytes.
func (b *DecoderBuffer) DecodedSize() int { return b.pos }

// Advance skips n bytes.
func (b *DecoderBuffer) Advance(n int) error {
	if n < 0 || n > b.RemainingSize() {
		return errors.Wrapf(ErrTruncated, "advance by %d with %d remaining", n, b.RemainingSize())
	}
	b.pos += n
	return nil
}

// DecodeBytes consumes n bytes. The result aliases the buffer.
func (b *DecoderBuffer) DecodeBytes(n int) ([]byte, error) {
	if n < 0 || n > b.RemainingSize() {
		return nil, errors.Wrapf(ErrTruncated, "need %d bytes, have %d", n, b.RemainingSize())
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

// DecodeUint8 reads one byte.
func (b *DecoderBuffer) DecodeUint8() (uint8, error) {
	p, err := b.DecodeBytes(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// PeekUint8 reads one byte without consuming it.
func (b *DecoderBuffer) PeekUint8() (uint8, error) {
	if b.RemainingSize() < 1 {
		return 0, errors.Wrap(ErrTruncated, "peek")
	}
	return b.data[b.pos], nil
}

// DecodeUint16 reads a little-endian uint16.
func (b *DecoderBuffer) DecodeUint16() (uint16, error) {
	p, err := b.DecodeBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// DecodeUint32 reads a little-endian uint32.
func (b *DecoderBuffer) DecodeUint32() (uint32, error) {
	p, err := b.DecodeBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// DecodeVarint reads a base-128 varint of at most 64 bits.
func (b *DecoderBuffer) DecodeVarint() (uint64, error) {
	var v uint64
	for shift := uint(0); ; shift += 7 {
		if shift >= 64 {
			return 0, ErrVarintOverflow
		}
		c, err := b.DecodeUint8()
		if err != nil {
			return 0, err
		}
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, nil
		}
	}
}

// DecodeVarint32 reads a varint that must fit in 32 bits.
func (b *DecoderBuffer) DecodeVarint32() (uint32, error) {
	v, err := b.DecodeVarint()
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, errors.Wrapf(ErrVarintOverflow, "value %d", v)
	}
	return uint32(v), nil
}

// DecodeVarintSigned reads a zig-zag mapped varint.
func (b *DecoderBuffer) DecodeVarintSigned() (int64, error) {
	v, err := b.DecodeVarint()
	if err != nil {
		return 0, err
	}
	return int64(v>>1) ^ -int64(v&1), nil
}

// StartBitDecoding switches to bit mode. With decodeSize the block length is
// read as a varint and returned; otherwise the block extends to the end of
// the buffer and its length is 0 until EndBitDecoding.
func (b *DecoderBuffer) StartBitDecoding(decodeSize bool) (uint64, error) {
	if b.bitMode {
		return 0, errors.Wrap(ErrBitMode, "bit decoding already started")
	}
	var size uint64
	b.bitEnd = len(b.data)
	if decodeSize {
		var err error
		if size, err = b.DecodeVarint(); err != nil {
			return 0, err
		}
		if size > uint64(b.RemainingSize()) {
			return 0, errors.Wrapf(ErrTruncated, "bit block of %d bytes", size)
		}
		b.bitEnd = b.pos + int(size)
	}
	b.bitMode = true
	b.bitSized = decodeSize
	b.bitStart = b.pos
	b.bitOffset = 0
	return size, nil
}

// DecodeLeastSignificantBits32 reads n bits, least significant first.
func (b *DecoderBuffer) DecodeLeastSignificantBits32(n int) (uint32, error) {
	if !b.bitMode {
		return 0, errors.Wrap(ErrBitMode, "bit decoding not started")
	}
	var v uint32
	for i := 0; i < n; i++ {
		off := b.bitStart + b.bitOffset>>3
		if off >= b.bitEnd {
			return 0, errors.Wrap(ErrTruncated, "bit block exhausted")
		}
		v |= uint32((b.data[off]>>(b.bitOffset&7))&1) << i
		b.bitOffset++
	}
	return v, nil
}

// EndBitDecoding leaves bit mode. A sized block is skipped entirely;
// otherwise the cursor moves past the consumed bits rounded up to bytes.
func (b *DecoderBuffer) EndBitDecoding() {
	b.bitMode = false
	if b.bitSized {
		b.pos = b.bitEnd
		return
	}
	b.pos = b.bitStart + (b.bitOffset+7)/8
}
