package main

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

func wrapXZ(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "xz writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "xz write")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "xz close")
	}
	return buf.Bytes(), nil
}

// unwrap strips an xz layer if data has one.
func unwrap(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, xzMagic) {
		return data, nil
	}
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "xz reader")
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "xz read")
	}
	return out, nil
}
