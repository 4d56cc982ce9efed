// Package meshtest builds small meshes used by tests across the module.
package meshtest

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// PositionStride is the byte size of a float32 xyz position.
const PositionStride = 12

// EncodePosition packs a position into little-endian float32 bytes.
func EncodePosition(p [3]float32) []byte {
	b := make([]byte, PositionStride)
	for i, v := range p {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodePosition unpacks little-endian float32 bytes.
func DecodePosition(b []byte) [3]float32 {
	var p [3]float32
	for i := range p {
		p[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return p
}

// FromFaces builds a mesh with one point per position and identity mapping.
func FromFaces(positions [][3]float32, faces [][3]int) *mesh.Mesh {
	m := mesh.New()
	att := mesh.NewAttribute(mesh.AttributePosition, PositionStride)
	for _, p := range positions {
		att.AddValue(EncodePosition(p))
	}
	m.AddAttribute(att)
	m.SetNumPoints(len(positions))
	for _, f := range faces {
		m.AddFace(mesh.Face{mesh.PointIndex(f[0]), mesh.PointIndex(f[1]), mesh.PointIndex(f[2])})
	}
	return m
}

// VertexFaces converts integer triples to corner-table faces.
func VertexFaces(faces [][3]int) []mesh.VertexFace {
	out := make([]mesh.VertexFace, len(faces))
	for i, f := range faces {
		out[i] = mesh.VertexFace{mesh.VertexIndex(f[0]), mesh.VertexIndex(f[1]), mesh.VertexIndex(f[2])}
	}
	return out
}

// TriangleFaces is a single triangle.
var TriangleFaces = [][3]int{{0, 1, 2}}

// TetrahedronFaces is a closed tetrahedron with consistent winding.
var TetrahedronFaces = [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}}

// BowtieFaces are two fans that share only vertex 0.
var BowtieFaces = [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 4, 5}, {0, 5, 6}}

// Triangle returns a single-triangle mesh.
func Triangle() *mesh.Mesh {
	return FromFaces([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, TriangleFaces)
}

// Tetrahedron returns a closed tetrahedron.
func Tetrahedron() *mesh.Mesh {
	return FromFaces([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, TetrahedronFaces)
}

// Bowtie returns two triangle fans joined at one point.
func Bowtie() *mesh.Mesh {
	return FromFaces([][3]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {-1, 0, 0}, {-1, -1, 0}, {0, -1, 0},
	}, BowtieFaces)
}

// GridFaces returns a w x h grid of quads split into triangles. Vertex
// (x, y) has index y*(w+1)+x.
func GridFaces(w, h int) [][3]int {
	var faces [][3]int
	idx := func(x, y int) int { return y*(w+1) + x }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a, b, c, d := idx(x, y), idx(x+1, y), idx(x+1, y+1), idx(x, y+1)
			faces = append(faces, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return faces
}

// Grid returns an open w x h grid with a single boundary loop.
func Grid(w, h int) *mesh.Mesh {
	var pos [][3]float32
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			pos = append(pos, [3]float32{float32(x), float32(y), 0})
		}
	}
	return FromFaces(pos, GridFaces(w, h))
}

// QuadStrip returns an open strip of n quads.
func QuadStrip(n int) *mesh.Mesh {
	return Grid(n, 1)
}

// TorusFaces returns a closed genus-1 surface of u x v quads.
func TorusFaces(u, v int) [][3]int {
	var faces [][3]int
	idx := func(i, j int) int { return (j%v)*u + i%u }
	for j := 0; j < v; j++ {
		for i := 0; i < u; i++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			faces = append(faces, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return faces
}

// Torus returns a closed torus with u x v quads.
func Torus(u, v int) *mesh.Mesh {
	var pos [][3]float32
	for j := 0; j < v; j++ {
		for i := 0; i < u; i++ {
			a := 2 * math.Pi * float64(i) / float64(u)
			b := 2 * math.Pi * float64(j) / float64(v)
			r := 2 + math.Cos(b)
			pos = append(pos, [3]float32{float32(r * math.Cos(a)), float32(r * math.Sin(a)), float32(math.Sin(b))})
		}
	}
	return FromFaces(pos, TorusFaces(u, v))
}

// GridWithHole returns a w x h grid with the quad at (hx, hy) removed.
func GridWithHole(w, h, hx, hy int) *mesh.Mesh {
	m := Grid(w, h)
	out := mesh.New()
	out.AddAttribute(m.Attribute(0))
	out.SetNumPoints(m.NumPoints())
	skip := 2 * (hy*w + hx)
	for i, f := range m.Faces() {
		if i == skip || i == skip+1 {
			continue
		}
		out.AddFace(f)
	}
	return out
}
