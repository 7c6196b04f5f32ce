package memoize

import "context"

// Get returns the cached value for key, computing and storing it on a
// miss. Concurrent callers for the same missing key wait for the first
// caller's computation and all observe the same value.
func (c *Cache[K, V]) Get(key K, compute func() V) V {
	for {
		val, hit, existing, created := c.lookup(key)
		if hit {
			return val
		}
		if existing != nil {
			<-existing.done
			if existing.resolved {
				return existing.val
			}
			continue
		}
		return c.computePlain(key, created, compute)
	}
}

// GetContext is Get for context-taking functions. The context is forwarded
// to the computation; waiting for another caller's in-flight computation
// is not interruptible, matching Get. Any cancellation behavior of the
// computation itself is the computation's concern.
func (c *Cache[K, V]) GetContext(ctx context.Context, key K, compute func(context.Context) V) V {
	return c.Get(key, func() V { return compute(ctx) })
}

func (c *Cache[K, V]) computePlain(key K, f *flight[V], compute func() V) V {
	defer func() { c.finish(key, f, f.resolved && f.present) }()
	v := compute()
	f.val, f.present, f.resolved = v, true, true
	return v
}

// TryGet returns the cached value for key, computing and storing it on a
// miss. A computation error is returned to the computing caller and to
// every caller already waiting on that computation, and nothing is stored:
// the next call with the same key computes again.
func (c *Cache[K, V]) TryGet(key K, compute func() (V, error)) (V, error) {
	for {
		val, hit, existing, created := c.lookup(key)
		if hit {
			return val, nil
		}
		if existing != nil {
			<-existing.done
			if existing.resolved {
				return existing.val, existing.err
			}
			continue
		}
		return c.computeFallible(key, created, compute)
	}
}

// TryGetContext is TryGet for context-taking functions. The context is
// forwarded to the computation. A caller waiting on another caller's
// in-flight computation gives up when its context is done and returns
// the context's error.
func (c *Cache[K, V]) TryGetContext(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	for {
		val, hit, existing, created := c.lookup(key)
		if hit {
			return val, nil
		}
		if existing != nil {
			select {
			case <-existing.done:
			case <-ctx.Done():
				var zero V
				return zero, ctx.Err()
			}
			if existing.resolved {
				return existing.val, existing.err
			}
			continue
		}
		return c.computeFallible(key, created, func() (V, error) { return compute(ctx) })
	}
}

func (c *Cache[K, V]) computeFallible(key K, f *flight[V], compute func() (V, error)) (V, error) {
	defer func() { c.finish(key, f, f.resolved && f.present) }()
	v, err := compute()
	if err != nil {
		var zero V
		f.err, f.resolved = err, true
		return zero, err
	}
	f.val, f.present, f.resolved = v, true, true
	return v, nil
}

// GetOptional returns the cached value for key, computing it on a miss. A
// computation that reports absence (ok false) is observed by the computing
// caller and every waiting caller, and nothing is stored: the next call
// with the same key computes again. Presence is stored.
func (c *Cache[K, V]) GetOptional(key K, compute func() (V, bool)) (V, bool) {
	for {
		val, hit, existing, created := c.lookup(key)
		if hit {
			return val, true
		}
		if existing != nil {
			<-existing.done
			if existing.resolved {
				return existing.val, existing.present
			}
			continue
		}
		return c.computeOptional(key, created, compute)
	}
}

// GetOptionalContext is GetOptional for context-taking functions. The
// context is forwarded to the computation. A caller waiting on another
// caller's in-flight computation gives up when its context is done and
// reports absence.
func (c *Cache[K, V]) GetOptionalContext(ctx context.Context, key K, compute func(context.Context) (V, bool)) (V, bool) {
	for {
		val, hit, existing, created := c.lookup(key)
		if hit {
			return val, true
		}
		if existing != nil {
			select {
			case <-existing.done:
			case <-ctx.Done():
				var zero V
				return zero, false
			}
			if existing.resolved {
				return existing.val, existing.present
			}
			continue
		}
		return c.computeOptional(key, created, func() (V, bool) { return compute(ctx) })
	}
}

func (c *Cache[K, V]) computeOptional(key K, f *flight[V], compute func() (V, bool)) (V, bool) {
	defer func() { c.finish(key, f, f.resolved && f.present) }()
	v, ok := compute()
	if !ok {
		var zero V
		f.resolved = true
		return zero, false
	}
	f.val, f.present, f.resolved = v, true, true
	return v, true
}
