package entropy

import (
	"github.com/klauspost/compress/fse"
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
)

// Symbol block schemes.
const (
	schemeRaw uint8 = 0
	schemeFSE uint8 = 1
	schemeRLE uint8 = 2
)

// EncodeSymbols writes symbols as a varint byte stream compressed with FSE.
// The symbol count is not written; the decoder must know it.
//
// Layout: scheme byte, varint raw length, then the payload (raw bytes,
// varint-length-prefixed FSE block, or a single repeated byte).
func EncodeSymbols(symbols []uint32, out *buffer.EncoderBuffer) error {
	raw := buffer.NewEncoderBuffer()
	for _, s := range symbols {
		raw.EncodeVarint(uint64(s))
	}
	data := raw.Bytes()

	var s fse.Scratch
	compressed, err := fse.Compress(data, &s)
	switch {
	case err == nil:
		out.EncodeUint8(schemeFSE)
		out.EncodeVarint(uint64(len(data)))
		out.EncodeVarint(uint64(len(compressed)))
		out.EncodeBytes(compressed)
	case errors.Is(err, fse.ErrUseRLE):
		out.EncodeUint8(schemeRLE)
		out.EncodeVarint(uint64(len(data)))
		out.EncodeUint8(data[0])
	case errors.Is(err, fse.ErrIncompressible):
		out.EncodeUint8(schemeRaw)
		out.EncodeVarint(uint64(len(data)))
		out.EncodeBytes(data)
	default:
		return errors.Wrap(err, "compressing symbols")
	}
	return nil
}

// DecodeSymbols reads n symbols written by EncodeSymbols.
func DecodeSymbols(n int, in *buffer.DecoderBuffer) ([]uint32, error) {
	scheme, err := in.DecodeUint8()
	if err != nil {
		return nil, err
	}
	rawLen, err := in.DecodeVarint32()
	if err != nil {
		return nil, err
	}
	// Each symbol takes between one and five varint bytes.
	if uint64(rawLen) < uint64(n) || uint64(rawLen) > 5*uint64(n) {
		return nil, errors.Wrapf(ErrCorruptStream, "%d symbol bytes for %d symbols", rawLen, n)
	}

	var data []byte
	switch scheme {
	case schemeRaw:
		if data, err = in.DecodeBytes(int(rawLen)); err != nil {
			return nil, err
		}
	case schemeRLE:
		b, err := in.DecodeUint8()
		if err != nil {
			return nil, err
		}
		data = make([]byte, rawLen)
		for i := range data {
			data[i] = b
		}
	case schemeFSE:
		size, err := in.DecodeVarint32()
		if err != nil {
			return nil, err
		}
		block, err := in.DecodeBytes(int(size))
		if err != nil {
			return nil, err
		}
		s := fse.Scratch{DecompressLimit: int(rawLen)}
		if data, err = fse.Decompress(block, &s); err != nil {
			return nil, errors.Wrapf(ErrCorruptStream, "fse: %v", err)
		}
		if len(data) != int(rawLen) {
			return nil, errors.Wrapf(ErrCorruptStream, "fse produced %d bytes, want %d", len(data), rawLen)
		}
	default:
		return nil, errors.Wrapf(ErrCorruptStream, "unknown symbol scheme %d", scheme)
	}

	dec := buffer.NewDecoderBuffer(data)
	symbols := make([]uint32, n)
	for i := range symbols {
		if symbols[i], err = dec.DecodeVarint32(); err != nil {
			return nil, errors.Wrapf(ErrCorruptStream, "symbol %d: %v", i, err)
		}
	}
	if dec.RemainingSize() != 0 {
		return nil, errors.Wrapf(ErrCorruptStream, "%d trailing symbol bytes", dec.RemainingSize())
	}
	return symbols, nil
}
