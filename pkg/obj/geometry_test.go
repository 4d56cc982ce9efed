package obj

import (
	"strings"
	"testing"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/mesh/meshtest"
)

func TestMeasure_Cube(t *testing.T) {
	m, err := Read(strings.NewReader(cubeOBJ))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	g, ok := Measure(m)
	if !ok {
		t.Fatal("Measure rejected the cube")
	}
	if g.Min != (Vec3{0, 0, 0}) || g.Max != (Vec3{1, 1, 1}) {
		t.Errorf("unexpected bounds %v..%v", g.Min, g.Max)
	}
	if g.Area < 5.999 || g.Area > 6.001 {
		t.Errorf("expected area 6, got %f", g.Area)
	}
}

func TestMeasure_Grid(t *testing.T) {
	g, ok := Measure(meshtest.Grid(4, 2))
	if !ok {
		t.Fatal("Measure rejected the grid")
	}
	if g.Max != (Vec3{4, 2, 0}) {
		t.Errorf("unexpected max %v", g.Max)
	}
	if g.Area != 8 {
		t.Errorf("expected area 8, got %f", g.Area)
	}
}

func TestMeasure_NoPositions(t *testing.T) {
	m := mesh.New()
	m.AddAttribute(mesh.NewAttribute(mesh.AttributeNormal, NormalStride))
	m.AddFace(mesh.Face{0, 1, 2})
	if _, ok := Measure(m); ok {
		t.Error("expected Measure to fail without positions")
	}
}
