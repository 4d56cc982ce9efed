// Package obj reads and writes Wavefront OBJ meshes.
//
// Only geometry is kept: positions, texture coordinates, normals and faces.
// Polygons are fan triangulated. Materials, groups and smoothing statements
// are accepted and ignored.
package obj

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// OBJ errors.
var (
	ErrSyntax       = errors.New("obj syntax error")
	ErrBadIndex     = errors.New("obj index out of range")
	ErrMixedLayout  = errors.New("obj faces mix vertex layouts")
	ErrNoFaces      = errors.New("obj has no faces")
	ErrBadAttribute = errors.New("attribute cannot be written as obj")
)

// Attribute strides of the float32 values produced by Read.
const (
	PositionStride = 12
	TexCoordStride = 8
	NormalStride   = 12
)

type file struct {
	Statements []*statement `parser:"( @@ | EOL )*"`
}

type statement struct {
	Position []string      `parser:"  'v' @Number+"`
	TexCoord []string      `parser:"| 'vt' @Number+"`
	Normal   []string      `parser:"| 'vn' @Number+"`
	Face     []*faceVertex `parser:"| 'f' @@+"`
	Other    string        `parser:"| @Ident ( Ident | Number | Slash )*"`
}

type faceVertex struct {
	Position string  `parser:"@Number"`
	TexCoord *string `parser:"( Slash @Number?"`
	Normal   *string `parser:"  ( Slash @Number )? )?"`
}

var objLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][\w.\-]*`},
	{Name: "Slash", Pattern: `/`},
})

var objParser = participle.MustBuild[file](
	participle.Lexer(objLexer),
	participle.Elide("Comment", "Whitespace"),
)

// corner is one face vertex after index resolution. Missing components
// are -1.
type corner struct {
	pos, tex, nrm int
}

// Read parses an OBJ document into a mesh. Points are the distinct
// position/texcoord/normal index tuples referenced by faces.
func Read(r io.Reader) (*mesh.Mesh, error) {
	f, err := objParser.Parse("", r)
	if err != nil {
		return nil, errors.Wrap(ErrSyntax, err.Error())
	}

	var positions, texCoords, normals [][]float32
	var faces [][]corner
	for _, st := range f.Statements {
		switch {
		case st.Position != nil:
			v, err := parseFloats(st.Position, 3)
			if err != nil {
				return nil, err
			}
			positions = append(positions, v)
		case st.TexCoord != nil:
			v, err := parseFloats(st.TexCoord, 2)
			if err != nil {
				return nil, err
			}
			texCoords = append(texCoords, v)
		case st.Normal != nil:
			v, err := parseFloats(st.Normal, 3)
			if err != nil {
				return nil, err
			}
			normals = append(normals, v)
		case st.Face != nil:
			poly := make([]corner, len(st.Face))
			for i, fv := range st.Face {
				c, err := resolve(fv, len(positions), len(texCoords), len(normals))
				if err != nil {
					return nil, errors.Wrapf(err, "face %d", len(faces))
				}
				poly[i] = c
			}
			if len(poly) < 3 {
				return nil, errors.Wrapf(ErrSyntax, "face %d has %d vertices", len(faces), len(poly))
			}
			faces = append(faces, poly)
		}
	}
	if len(faces) == 0 {
		return nil, ErrNoFaces
	}
	return build(positions, texCoords, normals, faces)
}

// ReadFile parses the OBJ file at path.
func ReadFile(path string) (*mesh.Mesh, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening obj file")
	}
	defer fd.Close()
	return Read(fd)
}

func parseFloats(tokens []string, n int) ([]float32, error) {
	if len(tokens) < n {
		return nil, errors.Wrapf(ErrSyntax, "expected %d coordinates, got %d", n, len(tokens))
	}
	out := make([]float32, n)
	for i := range out {
		v, err := strconv.ParseFloat(tokens[i], 32)
		if err != nil {
			return nil, errors.Wrap(ErrSyntax, err.Error())
		}
		out[i] = float32(v)
	}
	return out, nil
}

// resolveIndex turns a one based, possibly negative, OBJ index into a zero
// based one.
func resolveIndex(token string, count int) (int, error) {
	i, err := strconv.Atoi(token)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "index %q", token)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, errors.Wrapf(ErrBadIndex, "%d of %d", i, count)
}

func resolve(fv *faceVertex, numPos, numTex, numNrm int) (corner, error) {
	c := corner{tex: -1, nrm: -1}
	var err error
	if c.pos, err = resolveIndex(fv.Position, numPos); err != nil {
		return c, err
	}
	if fv.TexCoord != nil && *fv.TexCoord != "" {
		if c.tex, err = resolveIndex(*fv.TexCoord, numTex); err != nil {
			return c, err
		}
	}
	if fv.Normal != nil {
		if c.nrm, err = resolveIndex(*fv.Normal, numNrm); err != nil {
			return c, err
		}
	}
	return c, nil
}

func build(positions, texCoords, normals [][]float32, faces [][]corner) (*mesh.Mesh, error) {
	first := faces[0][0]
	hasTex, hasNrm := first.tex >= 0, first.nrm >= 0

	pos := mesh.NewAttribute(mesh.AttributePosition, PositionStride)
	for _, p := range positions {
		pos.AddValue(encodeFloats(p))
	}
	var tex, nrm *mesh.Attribute
	if hasTex {
		tex = mesh.NewAttribute(mesh.AttributeTexCoord, TexCoordStride)
		for _, t := range texCoords {
			tex.AddValue(encodeFloats(t))
		}
	}
	if hasNrm {
		nrm = mesh.NewAttribute(mesh.AttributeNormal, NormalStride)
		for _, n := range normals {
			nrm.AddValue(encodeFloats(n))
		}
	}

	points := make(map[corner]mesh.PointIndex)
	var order []corner
	m := mesh.New()
	for fi, poly := range faces {
		ids := make([]mesh.PointIndex, len(poly))
		for i, c := range poly {
			if (c.tex >= 0) != hasTex || (c.nrm >= 0) != hasNrm {
				return nil, errors.Wrapf(ErrMixedLayout, "face %d", fi)
			}
			id, ok := points[c]
			if !ok {
				id = mesh.PointIndex(len(order))
				points[c] = id
				order = append(order, c)
			}
			ids[i] = id
		}
		for i := 1; i+1 < len(ids); i++ {
			m.AddFace(mesh.Face{ids[0], ids[i], ids[i+1]})
		}
	}

	pos.SetExplicitMapping(len(order))
	if tex != nil {
		tex.SetExplicitMapping(len(order))
	}
	if nrm != nil {
		nrm.SetExplicitMapping(len(order))
	}
	for i, c := range order {
		p := mesh.PointIndex(i)
		pos.SetPointMapEntry(p, mesh.AttributeValueIndex(c.pos))
		if tex != nil {
			tex.SetPointMapEntry(p, mesh.AttributeValueIndex(c.tex))
		}
		if nrm != nil {
			nrm.SetPointMapEntry(p, mesh.AttributeValueIndex(c.nrm))
		}
	}
	m.AddAttribute(pos)
	if tex != nil {
		m.AddAttribute(tex)
	}
	if nrm != nil {
		m.AddAttribute(nrm)
	}
	m.SetNumPoints(len(order))
	return m, nil
}

func encodeFloats(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

// Write stores m as OBJ. Only position, texture coordinate and normal
// attributes with float32 strides are written; anything else is an error.
func Write(w io.Writer, m *mesh.Mesh) error {
	if m.NumFaces() == 0 {
		return ErrNoFaces
	}
	var pos, tex, nrm *mesh.Attribute
	for i := 0; i < m.NumAttributes(); i++ {
		a := m.Attribute(i)
		var slot **mesh.Attribute
		switch {
		case a.Type == mesh.AttributePosition && a.ByteStride == PositionStride:
			slot = &pos
		case a.Type == mesh.AttributeTexCoord && a.ByteStride == TexCoordStride:
			slot = &tex
		case a.Type == mesh.AttributeNormal && a.ByteStride == NormalStride:
			slot = &nrm
		default:
			return errors.Wrapf(ErrBadAttribute, "%v with stride %d", a.Type, a.ByteStride)
		}
		if *slot != nil {
			return errors.Wrapf(ErrBadAttribute, "second %v attribute", a.Type)
		}
		*slot = a
	}
	if pos == nil {
		return errors.Wrap(ErrBadAttribute, "no position attribute")
	}

	bw := bufio.NewWriter(w)
	writeValues(bw, "v", pos)
	writeValues(bw, "vt", tex)
	writeValues(bw, "vn", nrm)

	index := func(a *mesh.Attribute, p mesh.PointIndex) string {
		return strconv.Itoa(int(a.MappedIndex(p)) + 1)
	}
	for _, f := range m.Faces() {
		bw.WriteByte('f')
		for _, p := range f {
			bw.WriteByte(' ')
			bw.WriteString(index(pos, p))
			switch {
			case tex != nil && nrm != nil:
				bw.WriteString("/" + index(tex, p) + "/" + index(nrm, p))
			case tex != nil:
				bw.WriteString("/" + index(tex, p))
			case nrm != nil:
				bw.WriteString("//" + index(nrm, p))
			}
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "writing obj")
	}
	return nil
}

func writeValues(bw *bufio.Writer, keyword string, a *mesh.Attribute) {
	if a == nil {
		return
	}
	for v := 0; v < a.NumValues(); v++ {
		bw.WriteString(keyword)
		for _, f := range decodeFloats(a.Value(mesh.AttributeValueIndex(v))) {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
}

// WriteFile stores m as an OBJ file at path.
func WriteFile(path string, m *mesh.Mesh) error {
	fd, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating obj file")
	}
	if err := Write(fd, m); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// Summary returns a one line description of m.
func Summary(m *mesh.Mesh) string {
	var names []string
	for i := 0; i < m.NumAttributes(); i++ {
		names = append(names, m.Attribute(i).Type.String())
	}
	return fmt.Sprintf("%d faces, %d points, attributes [%s]", m.NumFaces(), m.NumPoints(), strings.Join(names, " "))
}
