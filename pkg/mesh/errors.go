package mesh

import "errors"

// Mesh construction errors.
var (
	ErrTooManyFaces = errors.New("too many faces for 32-bit corner indices")
	ErrInvalidMesh  = errors.New("invalid mesh")
)
