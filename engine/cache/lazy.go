// Package cache holds small memoization helpers used by scene objects.
package cache

// Lazy memoizes a single value until it is marked dirty.
//
// The first Get after construction or Dirty runs the builder; every later Get
// returns that same value, even when a different builder is passed. Lazy is
// meant for a single owner on a single goroutine.
type Lazy[T any] struct {
	val   T
	built bool
}

// Get returns the cached value, building it first if needed.
func (c *Lazy[T]) Get(build func() T) T {
	if !c.built {
		c.val = build()
		c.built = true
	}
	return c.val
}

// Dirty drops the cached value so the next Get rebuilds it.
func (c *Lazy[T]) Dirty() {
	var zero T
	c.val = zero
	c.built = false
}

// Peek returns the value only if it is currently built.
func (c *Lazy[T]) Peek() (T, bool) { return c.val, c.built }

// Take returns the value (if any) and leaves the cache empty.
func (c *Lazy[T]) Take() (T, bool) {
	v, ok := c.val, c.built
	c.Dirty()
	return v, ok
}
