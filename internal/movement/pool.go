package movement

// Pool is a free list of reusable values. It is not safe for concurrent use;
// all pools in this package belong to the simulation goroutine.
type Pool[T any] struct {
	free  []*T
	newFn func() *T
}

func NewPool[T any](newFn func() *T) *Pool[T] {
	return &Pool[T]{newFn: newFn}
}

// Get returns a recycled value or a fresh one.
func (p *Pool[T]) Get() *T {
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return v
	}
	return p.newFn()
}

// Put hands v back. v must already be cleared by the caller.
func (p *Pool[T]) Put(v *T) {
	p.free = append(p.free, v)
}

// Len returns the number of idle values.
func (p *Pool[T]) Len() int { return len(p.free) }
