package mesh

import (
	"bytes"
	"sort"
)

// Mesh is a triangle mesh: faces over points, and attributes that assign
// values to points.
type Mesh struct {
	faces      []Face
	numPoints  int
	attributes []*Attribute
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// NumFaces returns the number of faces.
func (m *Mesh) NumFaces() int { return len(m.faces) }

// NumPoints returns the number of points.
func (m *Mesh) NumPoints() int { return m.numPoints }

// SetNumPoints sets the number of points.
func (m *Mesh) SetNumPoints(n int) { m.numPoints = n }

// Face returns face f.
func (m *Mesh) Face(f FaceIndex) Face { return m.faces[f] }

// Faces returns the face list. The slice aliases internal storage.
func (m *Mesh) Faces() []Face { return m.faces }

// AddFace appends a face.
func (m *Mesh) AddFace(f Face) { m.faces = append(m.faces, f) }

// SetFace overwrites face f, growing the face list if needed.
func (m *Mesh) SetFace(fi FaceIndex, f Face) {
	if int(fi) >= len(m.faces) {
		m.SetNumFaces(int(fi) + 1)
	}
	m.faces[fi] = f
}

// SetNumFaces resizes the face list.
func (m *Mesh) SetNumFaces(n int) {
	if n <= len(m.faces) {
		m.faces = m.faces[:n]
		return
	}
	m.faces = append(m.faces, make([]Face, n-len(m.faces))...)
}

// CornerToPointID returns the point referenced by corner c.
func (m *Mesh) CornerToPointID(c CornerIndex) PointIndex {
	if c == InvalidCornerIndex {
		return InvalidPointIndex
	}
	return m.faces[c/3][c%3]
}

// AddAttribute adds an attribute and returns its id.
func (m *Mesh) AddAttribute(a *Attribute) int {
	m.attributes = append(m.attributes, a)
	return len(m.attributes) - 1
}

// NumAttributes returns the number of attributes.
func (m *Mesh) NumAttributes() int { return len(m.attributes) }

// Attribute returns attribute i.
func (m *Mesh) Attribute(i int) *Attribute { return m.attributes[i] }

// NamedAttributeID returns the id of the first attribute of type t, or -1.
func (m *Mesh) NamedAttributeID(t AttributeType) int {
	for i, a := range m.attributes {
		if a.Type == t {
			return i
		}
	}
	return -1
}

// NamedAttribute returns the first attribute of type t, or nil.
func (m *Mesh) NamedAttribute(t AttributeType) *Attribute {
	if id := m.NamedAttributeID(t); id >= 0 {
		return m.attributes[id]
	}
	return nil
}

// DeduplicatePointIDs merges attribute values that are byte-equal and then
// merges points whose attribute value tuples are equal. Faces are rewritten
// to use the surviving point ids.
func (m *Mesh) DeduplicatePointIDs() {
	for _, a := range m.attributes {
		a.deduplicateValues(m.numPoints)
	}

	type tuple string
	key := func(p PointIndex) tuple {
		var b bytes.Buffer
		for _, a := range m.attributes {
			v := a.MappedIndex(p)
			b.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
		}
		return tuple(b.String())
	}

	seen := make(map[tuple]PointIndex, m.numPoints)
	remap := make([]PointIndex, m.numPoints)
	var unique []PointIndex
	for p := 0; p < m.numPoints; p++ {
		k := key(PointIndex(p))
		if id, ok := seen[k]; ok {
			remap[p] = id
			continue
		}
		id := PointIndex(len(unique))
		seen[k] = id
		remap[p] = id
		unique = append(unique, PointIndex(p))
	}
	if len(unique) == m.numPoints {
		return
	}

	for _, a := range m.attributes {
		old := make([]AttributeValueIndex, len(unique))
		for i, p := range unique {
			old[i] = a.MappedIndex(p)
		}
		a.SetExplicitMapping(len(unique))
		for i, v := range old {
			a.SetPointMapEntry(PointIndex(i), v)
		}
	}
	for f := range m.faces {
		for k := 0; k < 3; k++ {
			m.faces[f][k] = remap[m.faces[f][k]]
		}
	}
	m.numPoints = len(unique)
}

// Equivalent reports whether a and b describe the same faces once points
// are identified by their attribute values. Face order, point numbering and
// the starting corner of each face are ignored; winding is not.
func Equivalent(a, b *Mesh) bool {
	if a.NumFaces() != b.NumFaces() || a.NumAttributes() != b.NumAttributes() {
		return false
	}
	for i := 0; i < a.NumAttributes(); i++ {
		if a.Attribute(i).Type != b.Attribute(i).Type ||
			a.Attribute(i).ByteStride != b.Attribute(i).ByteStride {
			return false
		}
	}
	fa, fb := faceKeys(a), faceKeys(b)
	for i := range fa {
		if fa[i] != fb[i] {
			return false
		}
	}
	return true
}

func faceKeys(m *Mesh) []string {
	pointKey := func(p PointIndex) string {
		var b bytes.Buffer
		for _, a := range m.attributes {
			b.Write(a.PointValue(p))
		}
		return b.String()
	}
	keys := make([]string, 0, len(m.faces))
	for _, f := range m.faces {
		k := [3]string{pointKey(f[0]), pointKey(f[1]), pointKey(f[2])}
		// Rotate so the smallest point key comes first.
		r := 0
		for i := 1; i < 3; i++ {
			if k[i] < k[r] {
				r = i
			}
		}
		keys = append(keys, k[r]+"|"+k[(r+1)%3]+"|"+k[(r+2)%3])
	}
	sort.Strings(keys)
	return keys
}
