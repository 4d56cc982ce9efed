// Package mesh provides the triangle mesh container and the corner table
// connectivity structures used by the edgebreaker codec.
package mesh

import "fmt"

// PointIndex identifies a point (a unique tuple of attribute values).
type PointIndex uint32

// VertexIndex identifies a vertex of a corner table.
type VertexIndex uint32

// CornerIndex identifies one (face, local vertex) incidence.
type CornerIndex uint32

// FaceIndex identifies a triangle.
type FaceIndex uint32

// AttributeValueIndex identifies an entry in an attribute's value array.
type AttributeValueIndex uint32

// Invalid sentinels.
const (
	InvalidPointIndex          = PointIndex(0xFFFFFFFF)
	InvalidVertexIndex         = VertexIndex(0xFFFFFFFF)
	InvalidCornerIndex         = CornerIndex(0xFFFFFFFF)
	InvalidFaceIndex           = FaceIndex(0xFFFFFFFF)
	InvalidAttributeValueIndex = AttributeValueIndex(0xFFFFFFFF)
)

// MaxFaces is the largest face count whose corners still fit a CornerIndex.
const MaxFaces = uint32(InvalidCornerIndex) / 3

func (i PointIndex) String() string  { return indexString("p", uint32(i)) }
func (i VertexIndex) String() string { return indexString("v", uint32(i)) }
func (i CornerIndex) String() string { return indexString("c", uint32(i)) }
func (i FaceIndex) String() string   { return indexString("f", uint32(i)) }

func indexString(prefix string, v uint32) string {
	if v == 0xFFFFFFFF {
		return prefix + "(invalid)"
	}
	return fmt.Sprintf("%s%d", prefix, v)
}

// Face is a triangle given by three point indices.
type Face [3]PointIndex

// IsDegenerate reports whether the face references the same point twice.
func (f Face) IsDegenerate() bool {
	return f[0] == f[1] || f[0] == f[2] || f[1] == f[2]
}

// VertexFace is a triangle expressed in corner-table vertex indices.
type VertexFace [3]VertexIndex
