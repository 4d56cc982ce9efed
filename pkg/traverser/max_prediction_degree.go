package traverser

import (
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/Faultbox/edgebreaker/pkg/mesh"
)

const maxPriority = 3

// MaxPredictionDegree prefers faces whose tip vertex is already visited or
// can be predicted from several visited neighbors.
//
// Priority 0 goes to visited tips, 1 to tips reached for at least the second
// time and 2 to tips reached for the first time.
type MaxPredictionDegree[T mesh.Topology] struct {
	Base[T]
	stacks           [maxPriority]*arraystack.Stack
	bestPriority     int
	predictionDegree []int
}

// NewMaxPredictionDegree creates a prediction-degree traverser over table.
func NewMaxPredictionDegree[T mesh.Topology](table T, observer Observer) *MaxPredictionDegree[T] {
	m := &MaxPredictionDegree[T]{}
	m.Init(table, observer)
	return m
}

// Init resets the traverser.
func (m *MaxPredictionDegree[T]) Init(table T, observer Observer) {
	m.Base.Init(table, observer)
	for i := range m.stacks {
		m.stacks[i] = arraystack.New()
	}
	m.bestPriority = 0
	m.predictionDegree = nil
}

// OnTraversalStart allocates the prediction degree counters.
func (m *MaxPredictionDegree[T]) OnTraversalStart() {
	m.predictionDegree = make([]int, m.table.NumVertices())
}

// OnTraversalEnd is a no-op.
func (m *MaxPredictionDegree[T]) OnTraversalEnd() {}

// TraverseFromCorner visits every face reachable from c.
func (m *MaxPredictionDegree[T]) TraverseFromCorner(c mesh.CornerIndex) error {
	if len(m.predictionDegree) == 0 {
		return nil
	}
	t := m.table
	m.stacks[0].Push(c)
	m.bestPriority = 0

	for _, k := range []mesh.CornerIndex{t.Next(c), t.Previous(c), c} {
		v := t.Vertex(k)
		if v == mesh.InvalidVertexIndex {
			return ErrInvalidCorner
		}
		m.visitVertex(v, k)
	}

	for c = m.popNext(); c != mesh.InvalidCornerIndex; c = m.popNext() {
		if m.IsFaceVisited(faceOf(c)) {
			continue
		}
		for {
			f := faceOf(c)
			m.MarkFaceVisited(f)
			m.observer.OnNewFaceVisited(f)
			v := t.Vertex(c)
			if v == mesh.InvalidVertexIndex {
				return ErrInvalidCorner
			}
			m.visitVertex(v, c)

			right, left := t.GetRightCorner(c), t.GetLeftCorner(c)
			rightVisited := m.IsFaceVisited(faceOf(right))
			leftVisited := m.IsFaceVisited(faceOf(left))
			if !leftVisited {
				p := m.priority(left)
				if rightVisited && p <= m.bestPriority {
					c = left
					continue
				}
				m.push(left, p)
			}
			if !rightVisited {
				p := m.priority(right)
				if p <= m.bestPriority {
					c = right
					continue
				}
				m.push(right, p)
			}
			break
		}
	}
	return nil
}

func (m *MaxPredictionDegree[T]) popNext() mesh.CornerIndex {
	for i := m.bestPriority; i < maxPriority; i++ {
		if v, ok := m.stacks[i].Pop(); ok {
			m.bestPriority = i
			return v.(mesh.CornerIndex)
		}
	}
	return mesh.InvalidCornerIndex
}

func (m *MaxPredictionDegree[T]) push(c mesh.CornerIndex, priority int) {
	m.stacks[priority].Push(c)
	if priority < m.bestPriority {
		m.bestPriority = priority
	}
}

func (m *MaxPredictionDegree[T]) priority(c mesh.CornerIndex) int {
	tip := m.table.Vertex(c)
	p := 0
	if !m.IsVertexVisited(tip) {
		m.predictionDegree[tip]++
		if m.predictionDegree[tip] > 1 {
			p = 1
		} else {
			p = 2
		}
	}
	if p >= maxPriority {
		p = maxPriority - 1
	}
	return p
}
