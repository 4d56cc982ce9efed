package obj

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// Vec3 is a position read back from a float32 position attribute.
type Vec3 struct {
	X, Y, Z float32
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func minVec(a, b Vec3) Vec3 {
	return Vec3{math32.Min(a.X, b.X), math32.Min(a.Y, b.Y), math32.Min(a.Z, b.Z)}
}

func maxVec(a, b Vec3) Vec3 {
	return Vec3{math32.Max(a.X, b.X), math32.Max(a.Y, b.Y), math32.Max(a.Z, b.Z)}
}

func position(a *mesh.Attribute, p mesh.PointIndex) Vec3 {
	f := decodeFloats(a.PointValue(p))
	return Vec3{f[0], f[1], f[2]}
}

// Geometry summarizes the shape of a mesh.
type Geometry struct {
	Min, Max Vec3
	Area     float32
}

// Measure computes the bounding box and surface area of m from its
// position attribute. Meshes without float32 positions return false.
func Measure(m *mesh.Mesh) (Geometry, bool) {
	pos := m.NamedAttribute(mesh.AttributePosition)
	if pos == nil || pos.ByteStride != PositionStride || m.NumFaces() == 0 {
		return Geometry{}, false
	}
	inf := math32.Inf(1)
	g := Geometry{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
	for _, f := range m.Faces() {
		a, b, c := position(pos, f[0]), position(pos, f[1]), position(pos, f[2])
		for _, v := range [3]Vec3{a, b, c} {
			g.Min = minVec(g.Min, v)
			g.Max = maxVec(g.Max, v)
		}
		g.Area += b.Sub(a).Cross(c.Sub(a)).Length() / 2
	}
	return g, true
}
