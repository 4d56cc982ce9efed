package entropy

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
)

func TestRAnsBit_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tests := []struct {
		name string
		bits []bool
	}{
		{"empty", nil},
		{"single one", []bool{true}},
		{"all zero", make([]bool, 100)},
		{"alternating", func() []bool {
			b := make([]bool, 77)
			for i := range b {
				b[i] = i%2 == 0
			}
			return b
		}()},
		{"skewed random", func() []bool {
			b := make([]bool, 5000)
			for i := range b {
				b[i] = rng.Intn(10) == 0
			}
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewRAnsBitEncoder()
			for _, b := range tt.bits {
				enc.EncodeBit(b)
			}
			out := buffer.NewEncoderBuffer()
			enc.EndEncoding(out)
			out.EncodeUint8(0x5A)

			in := buffer.NewDecoderBuffer(out.Bytes())
			dec := NewRAnsBitDecoder()
			if err := dec.StartDecoding(in); err != nil {
				t.Fatalf("StartDecoding failed: %v", err)
			}
			for i, want := range tt.bits {
				if got := dec.DecodeNextBit(); got != want {
					t.Fatalf("bit %d: expected %v, got %v", i, want, got)
				}
			}
			dec.EndDecoding()
			if v, err := in.DecodeUint8(); err != nil || v != 0x5A {
				t.Errorf("expected trailing marker, got %#x (%v)", v, err)
			}
		})
	}
}

func TestRAnsBit_SkewedCompresses(t *testing.T) {
	enc := NewRAnsBitEncoder()
	for i := 0; i < 8000; i++ {
		enc.EncodeBit(i%50 == 0)
	}
	out := buffer.NewEncoderBuffer()
	enc.EndEncoding(out)
	if out.Len() >= 1000 {
		t.Errorf("expected skewed bits to compress below 1000 bytes, got %d", out.Len())
	}
}

func TestRAnsBit_MultiBitValues(t *testing.T) {
	enc := NewRAnsBitEncoder()
	values := []uint32{0, 5, 17, 31, 1}
	for _, v := range values {
		enc.EncodeLeastSignificantBits32(5, v)
	}
	out := buffer.NewEncoderBuffer()
	enc.EndEncoding(out)

	dec := NewRAnsBitDecoder()
	if err := dec.StartDecoding(buffer.NewDecoderBuffer(out.Bytes())); err != nil {
		t.Fatal(err)
	}
	for _, want := range values {
		if got := dec.DecodeLeastSignificantBits32(5); got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestRAnsBit_CorruptHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no size", []byte{128}},
		{"empty payload", []byte{128, 0}},
		{"bad tag", []byte{128, 1, 0xC0}},
		{"short state", []byte{128, 1, 0x40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRAnsBitDecoder().StartDecoding(buffer.NewDecoderBuffer(tt.data))
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

const anyScheme = 0xFF

func TestSymbols_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tests := []struct {
		name    string
		symbols []uint32
		scheme  uint8
	}{
		{"empty", nil, schemeRaw},
		{"single", []uint32{4}, schemeRaw},
		{"repeated", []uint32{2, 2, 2, 2, 2, 2, 2, 2}, schemeRLE},
		{"skewed", func() []uint32 {
			s := make([]uint32, 4000)
			for i := range s {
				if rng.Intn(8) == 0 {
					s[i] = uint32(rng.Intn(5))
				}
			}
			return s
		}(), schemeFSE},
		{"wide values", []uint32{0, 300, 70000, 1 << 31, 5}, anyScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := buffer.NewEncoderBuffer()
			if err := EncodeSymbols(tt.symbols, out); err != nil {
				t.Fatalf("EncodeSymbols failed: %v", err)
			}
			if tt.scheme != anyScheme && out.Bytes()[0] != tt.scheme {
				t.Errorf("expected scheme %d, got %d", tt.scheme, out.Bytes()[0])
			}
			got, err := DecodeSymbols(len(tt.symbols), buffer.NewDecoderBuffer(out.Bytes()))
			if err != nil {
				t.Fatalf("DecodeSymbols failed: %v", err)
			}
			if len(got) != len(tt.symbols) {
				t.Fatalf("expected %d symbols, got %d", len(tt.symbols), len(got))
			}
			for i := range got {
				if got[i] != tt.symbols[i] {
					t.Fatalf("symbol %d: expected %d, got %d", i, tt.symbols[i], got[i])
				}
			}
		})
	}
}

func TestSymbols_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		n    int
	}{
		{"unknown scheme", []byte{9, 1, 0}, 1},
		{"length too small", []byte{schemeRaw, 1, 0}, 2},
		{"length too large", []byte{schemeRaw, 11, 0}, 2},
		{"short symbol data", []byte{schemeRaw, 2, 0x80, 0x01}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSymbols(tt.n, buffer.NewDecoderBuffer(tt.data))
			if !errors.Is(err, ErrCorruptStream) {
				t.Errorf("expected ErrCorruptStream, got %v", err)
			}
		})
	}
}
