package obj

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/mesh/meshtest"
)

const cubeOBJ = `# unit cube
mtllib cube.mtl
o cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
usemtl grey
s off
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func TestRead_Cube(t *testing.T) {
	m, err := Read(strings.NewReader(cubeOBJ))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if m.NumFaces() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.NumFaces())
	}
	if m.NumPoints() != 8 {
		t.Errorf("expected 8 points, got %d", m.NumPoints())
	}
	if m.NumAttributes() != 1 {
		t.Fatalf("expected only positions, got %d attributes", m.NumAttributes())
	}
	got := meshtest.DecodePosition(m.Attribute(0).PointValue(m.Face(2)[1]))
	if got != [3]float32{1, 0, 1} {
		t.Errorf("unexpected position %v", got)
	}

	ct, err := mesh.CreateCornerTableFromPositionAttribute(m)
	if err != nil {
		t.Fatalf("corner table: %v", err)
	}
	for c := 0; c < ct.NumCorners(); c++ {
		if ct.Opposite(mesh.CornerIndex(c)) == mesh.InvalidCornerIndex {
			t.Fatalf("cube should be closed, corner %d has no opposite", c)
		}
	}
}

func TestRead_FullLayout(t *testing.T) {
	src := "v 0 0 0\r\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1 0\nvn 0 0 1\nf 1/1/1 2/2/1 3/3/1\nf -3/-3/-1 -1/-1/-1 -2/-2/-1"
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if m.NumAttributes() != 3 {
		t.Fatalf("expected 3 attributes, got %d", m.NumAttributes())
	}
	if m.NumPoints() != 3 {
		t.Errorf("expected shared points, got %d", m.NumPoints())
	}
	if m.Attribute(1).Type != mesh.AttributeTexCoord || m.Attribute(1).ByteStride != TexCoordStride {
		t.Errorf("unexpected texcoord attribute %v/%d", m.Attribute(1).Type, m.Attribute(1).ByteStride)
	}
	if m.Face(1) != (mesh.Face{0, 2, 1}) {
		t.Errorf("negative indices resolved to %v", m.Face(1))
	}
}

func TestRead_LastLineWithoutNewline(t *testing.T) {
	for _, src := range []string{
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n# end",
		"\n\nv 0 0 0\n\nv 1 0 0\nv 0 1 0\n\nf 1 2 3\n\n",
	} {
		m, err := Read(strings.NewReader(src))
		if err != nil {
			t.Fatalf("Read(%q) failed: %v", src, err)
		}
		if m.NumFaces() != 1 {
			t.Errorf("Read(%q): expected 1 face, got %d", src, m.NumFaces())
		}
	}
}

func TestRead_NormalsWithoutTexCoords(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nvn 0 0 -1\nf 1//1 2//1 3//1\nf 1//2 3//2 2//2\n"
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if m.NumAttributes() != 2 || m.Attribute(1).Type != mesh.AttributeNormal {
		t.Fatalf("expected position and normal attributes")
	}
	if m.NumPoints() != 6 {
		t.Errorf("expected 6 points, got %d", m.NumPoints())
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{"no faces", "v 0 0 0\n", ErrNoFaces},
		{"index out of range", "v 0 0 0\nv 1 0 0\nf 1 2 3\n", ErrBadIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrBadIndex},
		{"short vertex", "v 0 0\nf 1 1 1\n", ErrSyntax},
		{"two vertex face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrSyntax},
		{"garbage", "v 0 0 0\n@\n", ErrSyntax},
		{"mixed layout", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3/1\nf 1 3 2\n", ErrMixedLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	src := "v 0.5 -1.25 3e-3\nv 1 0 0\nv 0 1 0\nv 1 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nvt 1 1\nvn 0 0 1\n" +
		"f 1/1/1 2/2/1 3/3/1\nf 2/2/1 4/4/1 3/3/1\n"
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("re-reading written obj: %v", err)
	}
	if !mesh.Equivalent(m, back) {
		t.Errorf("round trip changed the mesh")
	}
}

func TestWrite_Shapes(t *testing.T) {
	for name, m := range map[string]*mesh.Mesh{
		"torus": meshtest.Torus(5, 4),
		"grid":  meshtest.Grid(3, 3),
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, m); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			back, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !mesh.Equivalent(m, back) {
				t.Errorf("round trip changed the mesh")
			}
		})
	}
}

func TestWrite_RejectsOpaqueAttributes(t *testing.T) {
	m := meshtest.Triangle()
	m.AddAttribute(mesh.NewAttribute(mesh.AttributeGeneric, 1))
	if err := Write(&bytes.Buffer{}, m); !errors.Is(err, ErrBadAttribute) {
		t.Errorf("expected ErrBadAttribute, got %v", err)
	}
}
