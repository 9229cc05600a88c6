package constraint

// Pool is a free list of equations owned by its caller. It is not safe for concurrent use.
type Pool[T any] struct {
	free  []*T
	alloc func() *T
}

// NewPool returns an empty pool, alloc is called whenever it runs dry
func NewPool[T any](alloc func() *T) *Pool[T] {
	return &Pool[T]{alloc: alloc}
}

// Get pops a released item, or allocates one. The item keeps its previous state.
func (p *Pool[T]) Get() *T {
	if n := len(p.free); n > 0 {
		item := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return item
	}

	return p.alloc()
}

// Put releases items back to the pool
func (p *Pool[T]) Put(items ...*T) {
	p.free = append(p.free, items...)
}

// Len is the number of items ready for reuse
func (p *Pool[T]) Len() int {
	return len(p.free)
}
