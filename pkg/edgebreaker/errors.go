package edgebreaker

import "github.com/pkg/errors"

// Codec errors. Every failure wraps one of these.
var (
	// ErrMalformed reports a corrupt or truncated stream: impossible counts,
	// stack underflow, invalid symbols or inconsistent topology.
	ErrMalformed = errors.New("malformed edgebreaker stream")
	// ErrUnsupported reports an unknown method, traversal or version.
	ErrUnsupported = errors.New("unsupported edgebreaker configuration")
	// ErrInvalidMesh reports a mesh that cannot be encoded.
	ErrInvalidMesh = errors.New("invalid mesh for edgebreaker encoding")
)

func malformed(format string, args ...any) error {
	return errors.Wrapf(ErrMalformed, format, args...)
}
