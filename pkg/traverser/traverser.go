// Package traverser walks corner-table faces in a deterministic order and
// reports newly reached faces and vertices to an observer.
//
// Walks use explicit stacks; meshes can be deep enough to overflow the
// goroutine stack if recursion were used.
package traverser

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// ErrInvalidCorner is returned when a walk reaches a corner without a vertex.
var ErrInvalidCorner = errors.New("traversal reached an invalid corner")

// Observer receives traversal events.
type Observer interface {
	OnNewFaceVisited(f mesh.FaceIndex)
	OnNewVertexVisited(v mesh.VertexIndex, c mesh.CornerIndex)
}

// Traverser is a face walk over a topology.
type Traverser[T mesh.Topology] interface {
	Init(table T, observer Observer)
	Table() T
	OnTraversalStart()
	OnTraversalEnd()
	TraverseFromCorner(c mesh.CornerIndex) error
}

// Base holds the visitation state shared by traversers.
type Base[T mesh.Topology] struct {
	table         T
	faceVisited   []bool
	vertexVisited []bool
	observer      Observer
}

// Init resets visitation state for table.
func (b *Base[T]) Init(table T, observer Observer) {
	b.table = table
	b.faceVisited = make([]bool, table.NumFaces())
	b.vertexVisited = make([]bool, table.NumVertices())
	b.observer = observer
}

// Table returns the traversed topology.
func (b *Base[T]) Table() T { return b.table }

// Observer returns the event receiver.
func (b *Base[T]) Observer() Observer { return b.observer }

// IsFaceVisited reports whether f was visited. Invalid faces count as visited.
func (b *Base[T]) IsFaceVisited(f mesh.FaceIndex) bool {
	if f == mesh.InvalidFaceIndex {
		return true
	}
	return b.faceVisited[f]
}

// IsCornerFaceVisited reports whether the face of c was visited.
func (b *Base[T]) IsCornerFaceVisited(c mesh.CornerIndex) bool {
	if c == mesh.InvalidCornerIndex {
		return true
	}
	return b.faceVisited[c/3]
}

// MarkFaceVisited marks f as visited.
func (b *Base[T]) MarkFaceVisited(f mesh.FaceIndex) { b.faceVisited[f] = true }

// IsVertexVisited reports whether v was visited.
func (b *Base[T]) IsVertexVisited(v mesh.VertexIndex) bool { return b.vertexVisited[v] }

// MarkVertexVisited marks v as visited.
func (b *Base[T]) MarkVertexVisited(v mesh.VertexIndex) { b.vertexVisited[v] = true }

// visitVertex marks v and notifies the observer if it was new.
func (b *Base[T]) visitVertex(v mesh.VertexIndex, c mesh.CornerIndex) bool {
	if b.vertexVisited[v] {
		return false
	}
	b.vertexVisited[v] = true
	b.observer.OnNewVertexVisited(v, c)
	return true
}

func faceOf(c mesh.CornerIndex) mesh.FaceIndex {
	if c == mesh.InvalidCornerIndex {
		return mesh.InvalidFaceIndex
	}
	return mesh.FaceIndex(c / 3)
}
