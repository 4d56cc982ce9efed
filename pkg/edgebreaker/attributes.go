package edgebreaker

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
	"github.com/Faultbox/edgebreaker/pkg/traverser"
)

// Value traversal kinds stored per attribute.
const (
	valueTraversalDepthFirst       uint8 = 0
	valueTraversalPredictionDegree uint8 = 1
)

// sequence orders the vertices of table with the given traversal and
// returns the encoding data. m must describe the same faces as table.
func sequence[T mesh.Topology](m *mesh.Mesh, table T, kind uint8, order []mesh.CornerIndex) (*traverser.MeshTraversalSequencer[T], []mesh.PointIndex, error) {
	var tr traverser.Traverser[T]
	if kind == valueTraversalPredictionDegree {
		tr = &traverser.MaxPredictionDegree[T]{}
	} else {
		tr = &traverser.DepthFirst[T]{}
	}
	var data traverser.EncodingData
	seq := traverser.NewMeshTraversalSequencer(m, table, tr, &data)
	seq.SetCornerOrder(order)
	points, err := seq.GenerateSequence()
	if err != nil {
		return nil, nil, err
	}
	return seq, points, nil
}

// encodeAttributes writes attribute values in the order the decoder will
// reach their vertices. Each attribute names the connectivity it follows:
// 0 for the base table, i+1 for attribute data i.
func (e *Encoder) encodeAttributes(m *mesh.Mesh, conn encodedConnectivity, out *buffer.EncoderBuffer) error {
	slots := make([]int, m.NumAttributes())
	for i, data := range conn.attributeData {
		slots[data.attributeIndex] = i + 1
	}
	pos := m.NamedAttributeID(mesh.AttributePosition)

	out.EncodeUint8(uint8(m.NumAttributes()))
	for i := 0; i < m.NumAttributes(); i++ {
		att := m.Attribute(i)
		kind := valueTraversalDepthFirst
		if i == pos && e.opts.Speed == 0 {
			kind = valueTraversalPredictionDegree
		}
		var (
			points []mesh.PointIndex
			err    error
		)
		if slots[i] == 0 {
			_, points, err = sequence(m, conn.table, kind, conn.corners)
		} else {
			_, points, err = sequence(m, conn.attributeData[slots[i]-1].connectivity, kind, conn.corners)
		}
		if err != nil {
			return errors.Wrapf(ErrInvalidMesh, "attribute %d: %v", i, err)
		}

		out.EncodeUint8(uint8(att.Type))
		out.EncodeVarint(uint64(att.ByteStride))
		out.EncodeVarint(uint64(slots[i]))
		out.EncodeUint8(kind)
		out.EncodeVarint(uint64(len(points)))
		for _, p := range points {
			v := att.PointValue(p)
			if v == nil {
				return errors.Wrapf(ErrInvalidMesh, "attribute %d has no value for point %d", i, p)
			}
			out.EncodeBytes(v)
		}
	}
	return nil
}

// decodeAttributes reads the values written by encodeAttributes and maps
// every decoded point to its value.
func (d *Decoder) decodeAttributes(in *buffer.DecoderBuffer, m *mesh.Mesh, conn decodedConnectivity) error {
	n, err := in.DecodeUint8()
	if err != nil {
		return errors.Wrap(err, "attribute count")
	}
	for i := 0; i < int(n); i++ {
		typ, err := in.DecodeUint8()
		if err != nil {
			return errors.Wrapf(err, "attribute %d type", i)
		}
		stride, err := in.DecodeVarint()
		if err != nil {
			return errors.Wrapf(err, "attribute %d stride", i)
		}
		slot, err := in.DecodeVarint()
		if err != nil {
			return errors.Wrapf(err, "attribute %d connectivity", i)
		}
		if slot > uint64(len(conn.attributeTables)) {
			return malformed("attribute %d uses connectivity %d of %d", i, slot, len(conn.attributeTables))
		}
		kind, err := in.DecodeUint8()
		if err != nil {
			return errors.Wrapf(err, "attribute %d traversal", i)
		}
		if kind > valueTraversalPredictionDegree {
			return errors.Wrapf(ErrUnsupported, "attribute %d traversal %d", i, kind)
		}
		numValues, err := in.DecodeVarint()
		if err != nil {
			return errors.Wrapf(err, "attribute %d value count", i)
		}
		if stride == 0 || stride > uint64(in.RemainingSize()) || numValues > uint64(in.RemainingSize())/stride {
			return malformed("attribute %d: %d values of %d bytes", i, numValues, stride)
		}
		values, err := in.DecodeBytes(int(numValues * stride))
		if err != nil {
			return err
		}

		att := mesh.NewAttribute(mesh.AttributeType(typ), int(stride))
		att.SetData(append([]byte(nil), values...))
		if slot == 0 {
			err = mapValues(m, conn.table, kind, att)
		} else {
			err = mapValues(m, conn.attributeTables[slot-1], kind, att)
		}
		if err != nil {
			return errors.Wrapf(err, "attribute %d", i)
		}
		m.AddAttribute(att)
	}
	return nil
}

func mapValues[T mesh.Topology](m *mesh.Mesh, table T, kind uint8, att *mesh.Attribute) error {
	seq, points, err := sequence(m, table, kind, nil)
	if err != nil {
		return err
	}
	if len(points) != att.NumValues() {
		return malformed("traversal reached %d vertices for %d values", len(points), att.NumValues())
	}
	return seq.UpdatePointToAttributeIndexMapping(att)
}
