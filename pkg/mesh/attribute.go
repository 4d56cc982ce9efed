package mesh

import "fmt"

// AttributeType describes the role of an attribute. Values are opaque to
// the codec; only Position drives connectivity.
type AttributeType uint8

// Attribute types.
const (
	AttributePosition AttributeType = 0
	AttributeNormal   AttributeType = 1
	AttributeColor    AttributeType = 2
	AttributeTexCoord AttributeType = 3
	AttributeGeneric  AttributeType = 4
)

// String returns a human-readable attribute type name.
func (t AttributeType) String() string {
	switch t {
	case AttributePosition:
		return "Position"
	case AttributeNormal:
		return "Normal"
	case AttributeColor:
		return "Color"
	case AttributeTexCoord:
		return "TexCoord"
	case AttributeGeneric:
		return "Generic"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Attribute stores fixed-size opaque values and a mapping from points to
// value entries. The mapping is the identity until SetExplicitMapping is
// called.
type Attribute struct {
	Type       AttributeType
	ByteStride int

	data     []byte
	identity bool
	pointMap []AttributeValueIndex
}

// NewAttribute creates an empty attribute with identity point mapping.
func NewAttribute(t AttributeType, byteStride int) *Attribute {
	return &Attribute{Type: t, ByteStride: byteStride, identity: true}
}

// NumValues returns the number of stored values.
func (a *Attribute) NumValues() int {
	if a.ByteStride == 0 {
		return 0
	}
	return len(a.data) / a.ByteStride
}

// Value returns the bytes of value i. The slice aliases internal storage.
func (a *Attribute) Value(i AttributeValueIndex) []byte {
	off := int(i) * a.ByteStride
	return a.data[off : off+a.ByteStride]
}

// AddValue appends a value and returns its index.
func (a *Attribute) AddValue(v []byte) AttributeValueIndex {
	idx := AttributeValueIndex(a.NumValues())
	buf := make([]byte, a.ByteStride)
	copy(buf, v)
	a.data = append(a.data, buf...)
	return idx
}

// SetValue overwrites value i.
func (a *Attribute) SetValue(i AttributeValueIndex, v []byte) {
	copy(a.Value(i), v)
}

// Resize sets the number of values, zero-filling new entries.
func (a *Attribute) Resize(n int) {
	size := n * a.ByteStride
	if size <= len(a.data) {
		a.data = a.data[:size]
		return
	}
	a.data = append(a.data, make([]byte, size-len(a.data))...)
}

// Data returns the raw value storage.
func (a *Attribute) Data() []byte {
	return a.data
}

// SetData replaces the raw value storage.
func (a *Attribute) SetData(b []byte) {
	a.data = b
}

// IsMappingIdentity reports whether point i maps to value i.
func (a *Attribute) IsMappingIdentity() bool {
	return a.identity
}

// SetIdentityMapping drops any explicit point mapping.
func (a *Attribute) SetIdentityMapping() {
	a.identity = true
	a.pointMap = nil
}

// SetExplicitMapping switches to an explicit mapping sized for numPoints.
func (a *Attribute) SetExplicitMapping(numPoints int) {
	a.identity = false
	a.pointMap = make([]AttributeValueIndex, numPoints)
	for i := range a.pointMap {
		a.pointMap[i] = InvalidAttributeValueIndex
	}
}

// SetPointMapEntry maps point p to value v. Requires an explicit mapping.
func (a *Attribute) SetPointMapEntry(p PointIndex, v AttributeValueIndex) {
	a.pointMap[p] = v
}

// MappedIndex returns the value index used by point p.
func (a *Attribute) MappedIndex(p PointIndex) AttributeValueIndex {
	if a.identity {
		return AttributeValueIndex(p)
	}
	if int(p) >= len(a.pointMap) {
		return InvalidAttributeValueIndex
	}
	return a.pointMap[p]
}

// PointValue returns the value bytes used by point p.
func (a *Attribute) PointValue(p PointIndex) []byte {
	return a.Value(a.MappedIndex(p))
}

// deduplicateValues merges equal values and rewrites the point mapping.
// Returns the number of removed values.
func (a *Attribute) deduplicateValues(numPoints int) int {
	n := a.NumValues()
	seen := make(map[string]AttributeValueIndex, n)
	remap := make([]AttributeValueIndex, n)
	var out []byte
	for i := 0; i < n; i++ {
		v := a.Value(AttributeValueIndex(i))
		if id, ok := seen[string(v)]; ok {
			remap[i] = id
			continue
		}
		id := AttributeValueIndex(len(out) / a.ByteStride)
		seen[string(v)] = id
		remap[i] = id
		out = append(out, v...)
	}
	removed := n - len(out)/a.ByteStride
	if removed == 0 {
		return 0
	}
	if a.identity {
		a.SetExplicitMapping(numPoints)
		for p := 0; p < numPoints && p < n; p++ {
			a.pointMap[p] = remap[p]
		}
	} else {
		for p, v := range a.pointMap {
			if v != InvalidAttributeValueIndex {
				a.pointMap[p] = remap[v]
			}
		}
	}
	a.data = out
	return removed
}
