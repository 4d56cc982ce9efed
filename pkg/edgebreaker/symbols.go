// Package edgebreaker implements the edgebreaker connectivity codec for
// triangle meshes.
//
// The encoder walks the corner table and describes how every face attaches
// to the already processed region with one of five symbols (C, S, L, R, E).
// Symbols are stored last to first so the decoder can rebuild the table in
// a single reverse pass ("Spirale Reversi").
package edgebreaker

import (
	"fmt"

	"github.com/pkg/errors"
)

// Symbol is a topology symbol stored as its bit pattern. C takes one bit,
// the others three, read least significant bit first.
type Symbol uint32

// Topology symbols.
const (
	SymbolC       Symbol = 0x0
	SymbolS       Symbol = 0x1
	SymbolL       Symbol = 0x3
	SymbolR       Symbol = 0x5
	SymbolE       Symbol = 0x7
	SymbolInvalid Symbol = 0xFF
)

// String returns the symbol letter.
func (s Symbol) String() string {
	switch s {
	case SymbolC:
		return "C"
	case SymbolS:
		return "S"
	case SymbolL:
		return "L"
	case SymbolR:
		return "R"
	case SymbolE:
		return "E"
	default:
		return fmt.Sprintf("Invalid(%d)", uint32(s))
	}
}

// bitLength returns the number of bits used to store s.
func (s Symbol) bitLength() int {
	if s == SymbolC {
		return 1
	}
	return 3
}

// id returns the dense symbol index used by context coders.
func (s Symbol) id() uint32 {
	switch s {
	case SymbolC:
		return 0
	case SymbolS:
		return 1
	case SymbolL:
		return 2
	case SymbolR:
		return 3
	default:
		return 4
	}
}

var symbolFromID = [...]Symbol{SymbolC, SymbolS, SymbolL, SymbolR, SymbolE}

// EdgeFaceName selects one of the two inactive edges of a face.
type EdgeFaceName uint8

// Edge names.
const (
	LeftFaceEdge  EdgeFaceName = 0
	RightFaceEdge EdgeFaceName = 1
)

// TopologySplitEventData records that the face encoded as SourceSymbolID
// touches, across SourceEdge, a face that was encoded with the S symbol
// SplitSymbolID.
type TopologySplitEventData struct {
	SplitSymbolID  uint32
	SourceSymbolID uint32
	SourceEdge     EdgeFaceName
}

// HoleEventData records the symbol at which a hole was first reached.
type HoleEventData struct {
	SymbolID int
}

// TraversalMethod selects how the symbol stream is serialized.
type TraversalMethod uint8

// Traversal methods.
const (
	TraversalStandard   TraversalMethod = 0
	TraversalPredictive TraversalMethod = 1
	TraversalValence    TraversalMethod = 2
)

// String returns the method name.
func (m TraversalMethod) String() string {
	switch m {
	case TraversalStandard:
		return "standard"
	case TraversalPredictive:
		return "predictive"
	case TraversalValence:
		return "valence"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseTraversalMethod parses a method name.
func ParseTraversalMethod(s string) (TraversalMethod, error) {
	switch s {
	case "standard":
		return TraversalStandard, nil
	case "predictive":
		return TraversalPredictive, nil
	case "valence":
		return TraversalValence, nil
	}
	return 0, errors.Wrapf(ErrUnsupported, "traversal method %q", s)
}
