package cache

import "context"

// GetAs returns the cached payload when it is present and of type T.
// A payload of another type counts as absent.
func GetAs[T any](c *Cache, op OpType, subject string, opts Options) (T, bool) {
	var zero T
	v, ok := c.Get(op, subject, opts)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Fetch returns the cached value for the key or computes, stores and returns
// it. Errors from compute are not cached. The bool reports a cache hit.
func Fetch[T any](ctx context.Context, c *Cache, op OpType, subject string, opts Options, compute func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := GetAs[T](c, op, subject, opts); ok {
		return v, true, nil
	}
	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Set(op, subject, opts, v)
	return v, false, nil
}
