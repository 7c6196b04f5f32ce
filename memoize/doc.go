// Package memoize provides the bounded, time-aware, single-flight cache
// that rewritten functions call into.
//
// Code produced by the cachedfn rewriter declares one lazily-constructed
// [Cache] per function and routes every call through one of its six access
// operations. The package is a thin layer: storage — capacity eviction and
// TTL expiration — is delegated to [github.com/hashicorp/golang-lru/v2/expirable],
// and the layer adds only keyed in-flight deduplication.
//
// # Access Operations
//
// The operation matches the wrapped function's return shape and whether it
// takes a context:
//
//   - [Cache.Get] / [Cache.GetContext] — plain value results
//   - [Cache.TryGet] / [Cache.TryGetContext] — (value, error) results
//   - [Cache.GetOptional] / [Cache.GetOptionalContext] — (value, present) results
//
// All six guarantee at most one concurrent computation per key. Callers
// that find a computation already in flight wait for it and observe its
// outcome, whatever that outcome is. Only successful (present) values are
// stored: an error or an absence reaches the current waiters but the next
// call computes again.
//
// # Keys
//
// Keys must be comparable; the rewriter derives a comparable key struct
// from the wrapped function's arguments (or a configured subset of them).
// Arguments that are not comparable — contexts, slices, function values —
// are excluded via the directive's key list.
//
// # Direct Use
//
// Nothing here depends on generated code; the package is usable on its
// own as a memoization primitive:
//
//	var users = memoize.New[int64, User](memoize.WithCapacity(500), memoize.WithTTL(time.Minute))
//
//	func LookupUser(ctx context.Context, id int64) (User, error) {
//	    return users.TryGetContext(ctx, id, func(ctx context.Context) (User, error) {
//	        return store.FetchUser(ctx, id)
//	    })
//	}
package memoize
