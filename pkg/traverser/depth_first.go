package traverser

import (
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

// DepthFirst visits faces depth first, preferring the face to the right of
// the current corner.
type DepthFirst[T mesh.Topology] struct {
	Base[T]
	stack *arraystack.Stack
}

// NewDepthFirst creates a depth-first traverser over table.
func NewDepthFirst[T mesh.Topology](table T, observer Observer) *DepthFirst[T] {
	d := &DepthFirst[T]{}
	d.Init(table, observer)
	return d
}

// Init resets the traverser.
func (d *DepthFirst[T]) Init(table T, observer Observer) {
	d.Base.Init(table, observer)
	d.stack = arraystack.New()
}

// OnTraversalStart is a no-op.
func (d *DepthFirst[T]) OnTraversalStart() {}

// OnTraversalEnd is a no-op.
func (d *DepthFirst[T]) OnTraversalEnd() {}

// TraverseFromCorner visits every face reachable from c that was not
// visited yet.
func (d *DepthFirst[T]) TraverseFromCorner(c mesh.CornerIndex) error {
	if d.IsCornerFaceVisited(c) {
		return nil
	}
	t := d.table
	d.stack.Clear()
	d.stack.Push(c)

	// The first face's other two vertices are not reached by the walk.
	next, prev := t.Vertex(t.Next(c)), t.Vertex(t.Previous(c))
	if next == mesh.InvalidVertexIndex || prev == mesh.InvalidVertexIndex {
		return ErrInvalidCorner
	}
	d.visitVertex(next, t.Next(c))
	d.visitVertex(prev, t.Previous(c))

	for !d.stack.Empty() {
		top, _ := d.stack.Peek()
		c = top.(mesh.CornerIndex)
		f := faceOf(c)
		if c == mesh.InvalidCornerIndex || d.IsFaceVisited(f) {
			d.stack.Pop()
			continue
		}
		for {
			d.MarkFaceVisited(f)
			d.observer.OnNewFaceVisited(f)
			v := t.Vertex(c)
			if v == mesh.InvalidVertexIndex {
				return ErrInvalidCorner
			}
			if !d.IsVertexVisited(v) {
				onBoundary := t.IsOnBoundary(v)
				d.visitVertex(v, c)
				if !onBoundary {
					c = t.GetRightCorner(c)
					f = faceOf(c)
					continue
				}
			}

			right, left := t.GetRightCorner(c), t.GetLeftCorner(c)
			rightFace, leftFace := faceOf(right), faceOf(left)
			if d.IsFaceVisited(rightFace) {
				if d.IsFaceVisited(leftFace) {
					d.stack.Pop()
					break
				}
				c, f = left, leftFace
				continue
			}
			if d.IsFaceVisited(leftFace) {
				c, f = right, rightFace
				continue
			}
			// Split: the left face is handled after the right one.
			d.stack.Pop()
			d.stack.Push(left)
			d.stack.Push(right)
			break
		}
	}
	return nil
}
