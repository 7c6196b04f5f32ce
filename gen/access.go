package gen

import "fmt"

// accessStatement emits the wrapper's final statement: the cache access
// mediating the inner function call. One literal case per (return shape x
// context mode) combination; the cache's own single-flight guarantee does
// the deduplication, the emitted code only routes the call.
//
// cacheRef is the evaluated cache expression (the once-value call),
// keyVar the key variable, innerCall the inner function invocation,
// stored the stored value type, and ctxName the forwarded context
// parameter's name in context mode. unit marks a function with no results:
// it has nothing to return, so the access is a bare statement whose
// computation wraps the inner call.
func accessStatement(s shape, ctxMode, unit bool, cacheRef, keyVar, stored, innerCall, ctxName string) string {

	switch {
	case s == shapePlain && !ctxMode && unit:
		return fmt.Sprintf("%s.Get(%s, func() struct{} {\n\t\t%s\n\t\treturn struct{}{}\n\t})", cacheRef, keyVar, innerCall)
	case s == shapePlain && !ctxMode:
		return fmt.Sprintf("return %s.Get(%s, func() %s {\n\t\treturn %s\n\t})", cacheRef, keyVar, stored, innerCall)
	case s == shapePlain && unit:
		return fmt.Sprintf("%s.GetContext(%s, %s, func(%s context.Context) struct{} {\n\t\t%s\n\t\treturn struct{}{}\n\t})", cacheRef, ctxName, keyVar, ctxName, innerCall)
	case s == shapePlain:
		return fmt.Sprintf("return %s.GetContext(%s, %s, func(%s context.Context) %s {\n\t\treturn %s\n\t})", cacheRef, ctxName, keyVar, ctxName, stored, innerCall)
	case s == shapeFallible && !ctxMode:
		return fmt.Sprintf("return %s.TryGet(%s, func() (%s, error) {\n\t\treturn %s\n\t})", cacheRef, keyVar, stored, innerCall)
	case s == shapeFallible:
		return fmt.Sprintf("return %s.TryGetContext(%s, %s, func(%s context.Context) (%s, error) {\n\t\treturn %s\n\t})", cacheRef, ctxName, keyVar, ctxName, stored, innerCall)
	case !ctxMode:
		return fmt.Sprintf("return %s.GetOptional(%s, func() (%s, bool) {\n\t\treturn %s\n\t})", cacheRef, keyVar, stored, innerCall)
	default:
		return fmt.Sprintf("return %s.GetOptionalContext(%s, %s, func(%s context.Context) (%s, bool) {\n\t\treturn %s\n\t})", cacheRef, ctxName, keyVar, ctxName, stored, innerCall)
	}
}
