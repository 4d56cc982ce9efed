package edgebreaker

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/edgebreaker/pkg/buffer"
	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// Container constants.
const (
	magic = "DRACO"

	// EncoderTypeMesh marks a triangle mesh payload.
	EncoderTypeMesh uint8 = 1
	// MethodSequential is recognized but not supported.
	MethodSequential uint8 = 0
	// MethodEdgebreaker is the only supported connectivity method.
	MethodEdgebreaker uint8 = 1

	// FlagMetadata marks a metadata block, which is not supported.
	FlagMetadata uint16 = 0x8000

	// TraversalAuto picks the traversal from the speed setting.
	TraversalAuto TraversalMethod = 0xFF

	// MaxSpeed is the fastest, least compact setting.
	MaxSpeed = 10
)

// Options control encoding.
type Options struct {
	// Speed trades size for time, 0 (smallest) to 10 (fastest). Speeds of
	// 5 and above use the standard traversal, lower ones use valence
	// coding. Speed 0 also orders positions by prediction degree.
	Speed int
	// Traversal overrides the speed based choice unless TraversalAuto.
	Traversal TraversalMethod
	// SingleConnectivity cuts the mesh along every attribute seam and
	// shares that connectivity between all attributes.
	SingleConnectivity bool
	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns balanced settings.
func DefaultOptions() Options {
	return Options{Speed: 5, Traversal: TraversalAuto}
}

func (o Options) traversal() TraversalMethod {
	if o.Traversal != TraversalAuto {
		return o.Traversal
	}
	if o.Speed >= 5 {
		return TraversalStandard
	}
	return TraversalValence
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Stats describes the last encoding.
type Stats struct {
	Traversal TraversalMethod
	// Symbols in the order they were produced, before reversal.
	Symbols             []Symbol
	NumSplitSymbols     int
	SplitEvents         []TopologySplitEventData
	HoleEvents          []HoleEventData
	NumHoles            int
	NumComponents       int
	NumDegeneratedFaces int
	Size                int
}

// Header is the fixed container prefix.
type Header struct {
	Version     buffer.Version
	EncoderType uint8
	Method      uint8
	Flags       uint16
}

type encodedConnectivity struct {
	table         *mesh.CornerTable
	attributeData []encoderAttributeData
	corners       []mesh.CornerIndex
	stats         Stats
}

type decodedConnectivity struct {
	table           *mesh.CornerTable
	attributeTables []*mesh.MeshAttributeCornerTable
}

// Encoder compresses meshes.
type Encoder struct {
	opts  Options
	log   *zap.Logger
	stats Stats
}

// NewEncoder creates an encoder.
func NewEncoder(opts Options) *Encoder {
	return &Encoder{opts: opts, log: opts.logger()}
}

// Stats returns statistics of the last successful Encode.
func (e *Encoder) Stats() Stats { return e.stats }

// Encode compresses m.
func (e *Encoder) Encode(m *mesh.Mesh) ([]byte, error) {
	if e.opts.Speed < 0 || e.opts.Speed > MaxSpeed {
		return nil, errors.Wrapf(ErrUnsupported, "speed %d", e.opts.Speed)
	}
	method := e.opts.traversal()
	if method > TraversalValence {
		return nil, errors.Wrapf(ErrUnsupported, "traversal %v", method)
	}
	if m == nil || m.NumFaces() == 0 {
		return nil, errors.Wrap(ErrInvalidMesh, "mesh has no faces")
	}
	if uint64(m.NumFaces()) > uint64(mesh.MaxFaces) {
		return nil, errors.Wrapf(mesh.ErrTooManyFaces, "%d faces", m.NumFaces())
	}
	if m.NumAttributes() > 255 {
		return nil, errors.Wrapf(ErrInvalidMesh, "%d attributes", m.NumAttributes())
	}
	if m.NamedAttribute(mesh.AttributePosition) == nil {
		return nil, errors.Wrap(ErrInvalidMesh, "mesh has no position attribute")
	}

	out := buffer.NewEncoderBuffer()
	out.EncodeBytes([]byte(magic))
	out.EncodeUint8(buffer.CurrentVersion.Major)
	out.EncodeUint8(buffer.CurrentVersion.Minor)
	out.EncodeUint8(EncoderTypeMesh)
	out.EncodeUint8(MethodEdgebreaker)
	out.EncodeUint16(0)
	out.EncodeUint8(uint8(method))

	var (
		conn encodedConnectivity
		err  error
	)
	switch method {
	case TraversalStandard:
		conn, err = encodeConnectivity(m, newStandardTraversalEncoder(), e.opts.SingleConnectivity, e.log, out)
	case TraversalPredictive:
		conn, err = encodeConnectivity(m, newPredictiveTraversalEncoder(), e.opts.SingleConnectivity, e.log, out)
	case TraversalValence:
		conn, err = encodeConnectivity(m, newValenceTraversalEncoder(), e.opts.SingleConnectivity, e.log, out)
	}
	if err != nil {
		return nil, err
	}
	if err := e.encodeAttributes(m, conn, out); err != nil {
		return nil, err
	}

	e.stats = conn.stats
	e.stats.Traversal = method
	e.stats.Size = out.Len()
	e.log.Debug("mesh encoded",
		zap.Stringer("traversal", method),
		zap.Int("faces", m.NumFaces()),
		zap.Int("points", m.NumPoints()),
		zap.Int("bytes", out.Len()),
	)
	return out.Bytes(), nil
}

func encodeConnectivity[E traversalEncoder](m *mesh.Mesh, traversal E, single bool, log *zap.Logger, out *buffer.EncoderBuffer) (encodedConnectivity, error) {
	enc := newConnectivityEncoder(m, traversal, single, log)
	if err := enc.encode(out); err != nil {
		return encodedConnectivity{}, err
	}
	return enc.result(), nil
}

// Decoder decompresses meshes.
type Decoder struct {
	log *zap.Logger
}

// NewDecoder creates a decoder. A nil logger disables logging.
func NewDecoder(log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{log: log}
}

// Decode rebuilds a mesh from data.
func (d *Decoder) Decode(data []byte) (*mesh.Mesh, error) {
	in := buffer.NewDecoderBuffer(data)
	if _, err := decodeHeader(in); err != nil {
		return nil, err
	}
	b, err := in.DecodeUint8()
	if err != nil {
		return nil, malformed("traversal method: %v", err)
	}
	method := TraversalMethod(b)

	m := mesh.New()
	var conn decodedConnectivity
	switch method {
	case TraversalStandard:
		conn, err = decodeConnectivity(in, m, newStandardTraversalDecoder(), d.log)
	case TraversalPredictive:
		conn, err = decodeConnectivity(in, m, newPredictiveTraversalDecoder(), d.log)
	case TraversalValence:
		conn, err = decodeConnectivity(in, m, newValenceTraversalDecoder(), d.log)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "traversal %v", method)
	}
	if err != nil {
		return nil, asMalformed(err)
	}
	if err := d.decodeAttributes(in, m, conn); err != nil {
		return nil, asMalformed(err)
	}
	return m, nil
}

func decodeConnectivity[D traversalDecoder](in *buffer.DecoderBuffer, m *mesh.Mesh, traversal D, log *zap.Logger) (decodedConnectivity, error) {
	dec := newConnectivityDecoder(traversal, log)
	if err := dec.decode(in, m); err != nil {
		return decodedConnectivity{}, err
	}
	return dec.result(), nil
}

// asMalformed makes sure low level read failures surface as ErrMalformed.
func asMalformed(err error) error {
	switch {
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrUnsupported), errors.Is(err, mesh.ErrTooManyFaces):
		return err
	}
	return errors.Wrap(ErrMalformed, err.Error())
}

func decodeHeader(in *buffer.DecoderBuffer) (Header, error) {
	var h Header
	prefix, err := in.DecodeBytes(len(magic))
	if err != nil || !bytes.Equal(prefix, []byte(magic)) {
		return h, malformed("missing %s magic", magic)
	}
	if h.Version.Major, err = in.DecodeUint8(); err != nil {
		return h, malformed("version: %v", err)
	}
	if h.Version.Minor, err = in.DecodeUint8(); err != nil {
		return h, malformed("version: %v", err)
	}
	if h.Version != buffer.CurrentVersion {
		return h, errors.Wrapf(ErrUnsupported, "bitstream version %v", h.Version)
	}
	in.SetVersion(h.Version)
	if h.EncoderType, err = in.DecodeUint8(); err != nil {
		return h, malformed("encoder type: %v", err)
	}
	if h.EncoderType != EncoderTypeMesh {
		return h, errors.Wrapf(ErrUnsupported, "encoder type %d", h.EncoderType)
	}
	if h.Method, err = in.DecodeUint8(); err != nil {
		return h, malformed("method: %v", err)
	}
	if h.Method != MethodEdgebreaker {
		return h, errors.Wrapf(ErrUnsupported, "method %d", h.Method)
	}
	if h.Flags, err = in.DecodeUint16(); err != nil {
		return h, malformed("flags: %v", err)
	}
	if h.Flags&FlagMetadata != 0 {
		return h, errors.Wrap(ErrUnsupported, "metadata")
	}
	return h, nil
}

// Info summarizes an encoded stream without decoding it.
type Info struct {
	Header
	Traversal        TraversalMethod
	NumVertices      int
	NumFaces         int
	NumAttributeData int
	NumSymbols       int
	NumSplitSymbols  int
}

// Inspect reads the container header and connectivity counts.
func Inspect(data []byte) (Info, error) {
	var info Info
	in := buffer.NewDecoderBuffer(data)
	h, err := decodeHeader(in)
	if err != nil {
		return info, err
	}
	info.Header = h
	b, err := in.DecodeUint8()
	if err != nil {
		return info, malformed("traversal method: %v", err)
	}
	info.Traversal = TraversalMethod(b)
	counts := []*int{&info.NumVertices, &info.NumFaces, &info.NumAttributeData, &info.NumSymbols, &info.NumSplitSymbols}
	for i, dst := range counts {
		var v uint64
		if i == 2 {
			var b uint8
			b, err = in.DecodeUint8()
			v = uint64(b)
		} else {
			v, err = in.DecodeVarint()
		}
		if err != nil {
			return info, malformed("connectivity counts: %v", err)
		}
		*dst = int(v)
	}
	return info, nil
}

// Encode compresses m with opts.
func Encode(m *mesh.Mesh, opts Options) ([]byte, error) {
	return NewEncoder(opts).Encode(m)
}

// Decode decompresses data without logging.
func Decode(data []byte) (*mesh.Mesh, error) {
	return NewDecoder(nil).Decode(data)
}
