package buffer

import (
	"errors"
	"testing"
)

func TestVarint(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		size  int
	}{
		{"zero", 0, 1},
		{"one byte max", 127, 1},
		{"two bytes", 128, 2},
		{"uint32 max", 0xFFFFFFFF, 5},
		{"uint64 max", ^uint64(0), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoderBuffer()
			enc.EncodeVarint(tt.value)
			if enc.Len() != tt.size {
				t.Errorf("expected %d bytes, got %d", tt.size, enc.Len())
			}
			dec := NewDecoderBuffer(enc.Bytes())
			got, err := dec.DecodeVarint()
			if err != nil {
				t.Fatalf("DecodeVarint failed: %v", err)
			}
			if got != tt.value {
				t.Errorf("expected %d, got %d", tt.value, got)
			}
		})
	}
}

func TestVarintSigned(t *testing.T) {
	enc := NewEncoderBuffer()
	values := []int64{0, -1, 1, -64, 64, -1 << 40}
	for _, v := range values {
		enc.EncodeVarintSigned(v)
	}
	dec := NewDecoderBuffer(enc.Bytes())
	for _, want := range values {
		got, err := dec.DecodeVarintSigned()
		if err != nil {
			t.Fatalf("DecodeVarintSigned failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestDecodeVarint32_Overflow(t *testing.T) {
	enc := NewEncoderBuffer()
	enc.EncodeVarint(1 << 33)
	_, err := NewDecoderBuffer(enc.Bytes()).DecodeVarint32()
	if !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("expected ErrVarintOverflow, got %v", err)
	}
}

func TestDecoder_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*DecoderBuffer) error
	}{
		{"uint8", nil, func(d *DecoderBuffer) error { _, err := d.DecodeUint8(); return err }},
		{"uint16", []byte{1}, func(d *DecoderBuffer) error { _, err := d.DecodeUint16(); return err }},
		{"uint32", []byte{1, 2, 3}, func(d *DecoderBuffer) error { _, err := d.DecodeUint32(); return err }},
		{"varint", []byte{0x80, 0x80}, func(d *DecoderBuffer) error { _, err := d.DecodeVarint(); return err }},
		{"bytes", []byte{1, 2}, func(d *DecoderBuffer) error { _, err := d.DecodeBytes(3); return err }},
		{"sized bits", []byte{5, 1}, func(d *DecoderBuffer) error { _, err := d.StartBitDecoding(true); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewDecoderBuffer(tt.data))
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("expected ErrTruncated, got %v", err)
			}
		})
	}
}

func TestBitRoundTrip(t *testing.T) {
	type field struct {
		bits  int
		value uint32
	}
	fields := []field{{1, 0}, {3, 5}, {1, 1}, {3, 7}, {8, 0xA5}, {2, 2}, {32, 0xDEADBEEF}}

	for _, sized := range []bool{true, false} {
		enc := NewEncoderBuffer()
		enc.EncodeUint8(0x42)
		if err := enc.StartBitEncoding(sized); err != nil {
			t.Fatal(err)
		}
		for _, f := range fields {
			if err := enc.EncodeLeastSignificantBits32(f.bits, f.value); err != nil {
				t.Fatal(err)
			}
		}
		if err := enc.EndBitEncoding(); err != nil {
			t.Fatal(err)
		}
		enc.EncodeUint16(0xBEEF)

		dec := NewDecoderBuffer(enc.Bytes())
		if v, _ := dec.DecodeUint8(); v != 0x42 {
			t.Fatalf("expected leading byte 0x42, got %#x", v)
		}
		size, err := dec.StartBitDecoding(sized)
		if err != nil {
			t.Fatal(err)
		}
		if sized && size != 7 {
			t.Errorf("expected 7 byte bit block, got %d", size)
		}
		for _, f := range fields {
			got, err := dec.DecodeLeastSignificantBits32(f.bits)
			if err != nil {
				t.Fatal(err)
			}
			if got != f.value {
				t.Errorf("sized=%v: expected %#x, got %#x", sized, f.value, got)
			}
		}
		dec.EndBitDecoding()
		if v, err := dec.DecodeUint16(); err != nil || v != 0xBEEF {
			t.Errorf("sized=%v: expected trailing 0xBEEF, got %#x (%v)", sized, v, err)
		}
	}
}

func TestBitMode_Transitions(t *testing.T) {
	enc := NewEncoderBuffer()
	if err := enc.EncodeLeastSignificantBits32(1, 1); !errors.Is(err, ErrBitMode) {
		t.Errorf("expected ErrBitMode, got %v", err)
	}
	_ = enc.StartBitEncoding(false)
	if err := enc.StartBitEncoding(false); !errors.Is(err, ErrBitMode) {
		t.Errorf("expected ErrBitMode, got %v", err)
	}
}

func TestVersion_AtLeast(t *testing.T) {
	v := Version{Major: 2, Minor: 2}
	if !v.AtLeast(2, 2) || !v.AtLeast(1, 9) || v.AtLeast(2, 3) || v.AtLeast(3, 0) {
		t.Errorf("unexpected AtLeast results for %s", v)
	}
	if v.Uint16() != 0x0202 {
		t.Errorf("expected 0x0202, got %#x", v.Uint16())
	}
}
