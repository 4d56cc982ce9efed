// Package buffer provides the byte cursors used by the codec: an append-only
// EncoderBuffer and a bounds-checked DecoderBuffer, both with a bit mode and
// base-128 varints.
package buffer

import (
	"fmt"

	"github.com/pkg/errors"
)

// Buffer errors.
var (
	ErrTruncated      = errors.New("buffer truncated")
	ErrVarintOverflow = errors.New("varint overflows target type")
	ErrBitMode        = errors.New("invalid bit mode transition")
)

// Version is a bitstream version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// Uint16 packs the version as major<<8 | minor.
func (v Version) Uint16() uint16 {
	return uint16(v.Major)<<8 | uint16(v.Minor)
}

// CurrentVersion is the only mesh bitstream version produced and accepted.
var CurrentVersion = Version{Major: 2, Minor: 2}
