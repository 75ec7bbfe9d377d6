// Package deferred collects mutations during a read-only pass and applies
// them together once the pass is over.
package deferred

// Queue holds mutations against T in submission order.
type Queue[T any] struct {
	ops []func(T)
}

func (q *Queue[T]) Push(op func(T)) {
	if op == nil {
		return
	}
	q.ops = append(q.ops, op)
}

func (q *Queue[T]) Len() int { return len(q.ops) }

// Flush applies every queued mutation in order. Mutations pushed while
// flushing run in the same flush, after the ones already queued.
func (q *Queue[T]) Flush(target T) int {
	n := 0
	for len(q.ops) > 0 {
		ops := q.ops
		q.ops = nil
		for _, op := range ops {
			op(target)
			n++
		}
	}
	return n
}
