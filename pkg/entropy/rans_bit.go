// Package entropy provides the entropy coders used by the connectivity
// codec: a binary rANS coder for flag streams and an FSE-backed coder for
// symbol arrays.
package entropy

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
)

// Entropy coding errors.
var (
	ErrCorruptStream = errors.New("corrupt entropy stream")
)

const (
	ansPrecision = 256
	ansLBase     = 4096
	ansIOBase    = 256
)

// RAnsBitEncoder collects bits and codes them with a single static
// probability estimated from the bit counts.
type RAnsBitEncoder struct {
	counts   [2]uint64
	words    []uint32
	local    uint32
	numLocal int
}

// NewRAnsBitEncoder creates an empty bit encoder.
func NewRAnsBitEncoder() *RAnsBitEncoder {
	return &RAnsBitEncoder{}
}

// EncodeBit appends one bit.
func (e *RAnsBitEncoder) EncodeBit(bit bool) {
	if bit {
		e.counts[1]++
		e.local |= 1 << e.numLocal
	} else {
		e.counts[0]++
	}
	e.numLocal++
	if e.numLocal == 32 {
		e.words = append(e.words, e.local)
		e.local = 0
		e.numLocal = 0
	}
}

// EncodeLeastSignificantBits32 appends the low n bits of v, most significant first.
func (e *RAnsBitEncoder) EncodeLeastSignificantBits32(n int, v uint32) {
	for i := n - 1; i >= 0; i-- {
		e.EncodeBit((v>>i)&1 != 0)
	}
}

// EndEncoding writes the zero probability, the coded size and the coded bytes.
func (e *RAnsBitEncoder) EndEncoding(out *buffer.EncoderBuffer) {
	total := e.counts[0] + e.counts[1]
	if total == 0 {
		total = 1
	}
	raw := uint32(float64(e.counts[0])/float64(total)*256.0 + 0.5)
	zeroProb := uint8(255)
	if raw < 255 {
		zeroProb = uint8(raw)
	}
	if zeroProb == 0 {
		zeroProb = 1
	}

	w := ansWriter{state: ansLBase}
	// Bits are written last to first so the decoder reads them in order.
	for i := e.numLocal - 1; i >= 0; i-- {
		w.write((e.local>>i)&1 != 0, zeroProb)
	}
	for j := len(e.words) - 1; j >= 0; j-- {
		for i := 31; i >= 0; i-- {
			w.write((e.words[j]>>i)&1 != 0, zeroProb)
		}
	}
	data := w.end()

	out.EncodeUint8(zeroProb)
	out.EncodeVarint(uint64(len(data)))
	out.EncodeBytes(data)
	e.Clear()
}

// Clear resets the encoder.
func (e *RAnsBitEncoder) Clear() {
	e.counts = [2]uint64{}
	e.words = e.words[:0]
	e.local = 0
	e.numLocal = 0
}

type ansWriter struct {
	buf   []byte
	state uint32
}

func (w *ansWriter) write(bit bool, p0 uint8) {
	p := ansPrecision - uint32(p0)
	ls := uint32(p0)
	if bit {
		ls = p
	}
	if w.state >= ansLBase/ansPrecision*ansIOBase*ls {
		w.buf = append(w.buf, byte(w.state%ansIOBase))
		w.state /= ansIOBase
	}
	quot, rem := w.state/ls, w.state%ls
	w.state = quot*ansPrecision + rem
	if !bit {
		w.state += p
	}
}

func (w *ansWriter) end() []byte {
	s := w.state - ansLBase
	switch {
	case s < 1<<6:
		return append(w.buf, byte(s))
	case s < 1<<14:
		v := 1<<14 + s
		return append(w.buf, byte(v), byte(v>>8))
	default:
		v := 2<<22 + s
		return append(w.buf, byte(v), byte(v>>8), byte(v>>16))
	}
}

// RAnsBitDecoder reads bits written by RAnsBitEncoder.
type RAnsBitDecoder struct {
	zeroProb uint8
	buf      []byte
	offset   int
	state    uint32
}

// NewRAnsBitDecoder creates a bit decoder.
func NewRAnsBitDecoder() *RAnsBitDecoder {
	return &RAnsBitDecoder{}
}

// StartDecoding reads the coder header and consumes the coded bytes from in.
func (d *RAnsBitDecoder) StartDecoding(in *buffer.DecoderBuffer) error {
	zeroProb, err := in.DecodeUint8()
	if err != nil {
		return err
	}
	size, err := in.DecodeVarint32()
	if err != nil {
		return err
	}
	data, err := in.DecodeBytes(int(size))
	if err != nil {
		return err
	}
	d.zeroProb = zeroProb
	return d.readInit(data)
}

func (d *RAnsBitDecoder) readInit(buf []byte) error {
	n := len(buf)
	if n < 1 {
		return errors.Wrap(ErrCorruptStream, "empty rANS payload")
	}
	d.buf = buf
	switch buf[n-1] >> 6 {
	case 0:
		d.offset = n - 1
		d.state = uint32(buf[n-1] & 0x3F)
	case 1:
		if n < 2 {
			return errors.Wrap(ErrCorruptStream, "short rANS state")
		}
		d.offset = n - 2
		d.state = (uint32(buf[n-2]) | uint32(buf[n-1])<<8) & 0x3FFF
	case 2:
		if n < 3 {
			return errors.Wrap(ErrCorruptStream, "short rANS state")
		}
		d.offset = n - 3
		d.state = (uint32(buf[n-3]) | uint32(buf[n-2])<<8 | uint32(buf[n-1])<<16) & 0x3FFFFF
	default:
		return errors.Wrap(ErrCorruptStream, "invalid rANS state tag")
	}
	d.state += ansLBase
	if d.state >= ansLBase*ansIOBase {
		return errors.Wrap(ErrCorruptStream, "rANS state out of range")
	}
	return nil
}

// DecodeNextBit returns the next bit.
func (d *RAnsBitDecoder) DecodeNextBit() bool {
	p := ansPrecision - uint32(d.zeroProb)
	if d.state < ansLBase && d.offset > 0 {
		d.offset--
		d.state = d.state*ansIOBase + uint32(d.buf[d.offset])
	}
	x := d.state
	quot, rem := x/ansPrecision, x%ansPrecision
	xn := quot * p
	if rem < p {
		d.state = xn + rem
		return true
	}
	d.state = x - xn - p
	return false
}

// DecodeLeastSignificantBits32 reads n bits, most significant first.
func (d *RAnsBitDecoder) DecodeLeastSignificantBits32(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v <<= 1
		if d.DecodeNextBit() {
			v |= 1
		}
	}
	return v
}

// EndDecoding releases the coded bytes.
func (d *RAnsBitDecoder) EndDecoding() {
	d.buf = nil
	d.offset = 0
}
