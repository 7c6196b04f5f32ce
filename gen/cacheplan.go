package gen

import (
	"fmt"
	"go/parser"
	"go/token"
	"strings"
	"time"
)

// memoizePath is the import path of the runtime package generated code
// calls into.
const memoizePath = "github.com/cachedfn/cachedfn/memoize"

// cachePlan is the concrete cache: the type of the lazily-initialized
// variable and the expression constructing it.
type cachePlan struct {
	typeExpr  string
	construct string
	// needsTime reports that the construction expression references the
	// time package (a derived TTL).
	needsTime bool
	// needsMemoize reports that the declaration references the memoize
	// package.
	needsMemoize bool
}

// buildCachePlan derives the cache type and construction expression.
// Capacity is always set: the configured size, or 1 for a unit key (a
// zero-argument function has exactly one possible entry), or the runtime
// default otherwise. A create override replaces the construction
// expression verbatim but never the derived type; a type override (the
// convert-without-key configuration) replaces the type and requires
// create, since a construction expression cannot be derived for an opaque
// type.
func buildCachePlan(opts Options, key keyPlan, storedType string, pos token.Position) (cachePlan, error) {
	if opts.CacheType != nil {
		if _, err := parser.ParseExpr(*opts.CacheType); err != nil {
			return cachePlan{}, configErrorf(pos, "type is not a valid type expression: %v", err)
		}
		if opts.Create == nil {
			return cachePlan{}, configErrorf(pos, "type requires create: a construction expression cannot be derived for an opaque cache type")
		}
		return cachePlan{typeExpr: *opts.CacheType, construct: *opts.Create}, nil
	}

	plan := cachePlan{
		typeExpr:     fmt.Sprintf("*memoize.Cache[%s, %s]", key.typeExpr, storedType),
		needsMemoize: true,
	}
	if opts.Create != nil {
		plan.construct = *opts.Create
		return plan, nil
	}

	capacity := "1"
	switch {
	case opts.Size != nil:
		capacity = fmt.Sprintf("%d", *opts.Size)
	case !key.unit:
		capacity = "memoize.DefaultCapacity"
	}
	args := []string{fmt.Sprintf("memoize.WithCapacity(%s)", capacity)}
	if opts.TTL != nil {
		args = append(args, fmt.Sprintf("memoize.WithTTL(%s)", durationExpr(*opts.TTL)))
		plan.needsTime = true
	}
	plan.construct = fmt.Sprintf("memoize.New[%s, %s](%s)", key.typeExpr, storedType, strings.Join(args, ", "))
	return plan, nil
}

// durationExpr renders a duration as readable Go source: whole seconds
// when possible, nanoseconds otherwise.
func durationExpr(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d*time.Second", d/time.Second)
	}
	return fmt.Sprintf("%d*time.Nanosecond", d.Nanoseconds())
}
