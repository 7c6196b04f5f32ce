package gen

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// Directive marks a function for rewriting. It appears on its own line in
// the function's doc comment, optionally followed by key=value options:
//
//	//cachedfn:memoize size=100 ttl=5m key="host, port"
const Directive = "//cachedfn:memoize"

// Options are the parsed directive arguments. Every field is optional; nil
// means "not given". Combination rules are enforced where the fields are
// consumed (key synthesis and cache planning), not here.
type Options struct {
	// Size is the cache capacity. Defaults to 1 for a unit key, else
	// memoize.DefaultCapacity.
	Size *int
	// TTL is the time-to-live for cached values. Absent means no expiration.
	TTL *time.Duration
	// Key is either the filter list of argument paths forming the default
	// key (when Convert is absent) or the explicit key type (when Convert
	// is present).
	Key *string
	// Convert is an expression producing a key instance from the arguments.
	Convert *string
	// CacheType is the full cache type, used only together with Convert
	// and Create when Key is absent.
	CacheType *string
	// Create is a full override of the cache construction expression.
	Create *string
	// Name overrides the generated cache variable's name.
	Name *string
}

// findDirective returns the directive's argument string and the position of
// the directive comment. ok is false when the doc comment carries no
// directive.
func findDirective(fset *token.FileSet, doc *ast.CommentGroup) (args string, pos token.Position, ok bool) {
	if doc == nil {
		return "", token.Position{}, false
	}
	for _, c := range doc.List {
		rest, found := strings.CutPrefix(c.Text, Directive)
		if !found {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue // some longer directive, e.g. //cachedfn:memoized
		}
		return strings.TrimSpace(rest), fset.Position(c.Pos()), true
	}
	return "", token.Position{}, false
}

// parseOptions parses the directive's argument string. Arguments are
// key=value pairs separated by whitespace; a value may be double-quoted to
// contain spaces (quoted values follow Go string literal syntax). Unknown
// names, malformed pairs, and duplicates are configuration errors.
func parseOptions(args string, pos token.Position) (Options, error) {
	var opts Options
	seen := make(map[string]bool)
	rest := strings.TrimSpace(args)
	for rest != "" {
		var name, value string
		var err error
		name, value, rest, err = cutArg(rest, pos)
		if err != nil {
			return Options{}, err
		}
		if seen[name] {
			return Options{}, configErrorf(pos, "duplicate option %q", name)
		}
		seen[name] = true
		if err := opts.set(name, value, pos); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

// cutArg splits one name=value pair off the front of s.
func cutArg(s string, pos token.Position) (name, value, rest string, err error) {
	eq := strings.IndexByte(s, '=')
	sp := strings.IndexAny(s, " \t")
	if eq < 0 || (sp >= 0 && sp < eq) {
		return "", "", "", configErrorf(pos, "malformed directive argument near %q: expected name=value", s)
	}
	name = s[:eq]
	s = s[eq+1:]
	if name == "" {
		return "", "", "", configErrorf(pos, "malformed directive argument: empty option name")
	}
	if strings.HasPrefix(s, `"`) {
		// Quoted value: scan to the closing quote, honoring escapes.
		end := -1
		for i := 1; i < len(s); i++ {
			if s[i] == '\\' {
				i++
				continue
			}
			if s[i] == '"' {
				end = i
				break
			}
		}
		if end < 0 {
			return "", "", "", configErrorf(pos, "unterminated quoted value for option %q", name)
		}
		unquoted, uerr := strconv.Unquote(s[:end+1])
		if uerr != nil {
			return "", "", "", configErrorf(pos, "invalid quoted value for option %q: %v", name, uerr)
		}
		return name, unquoted, strings.TrimSpace(s[end+1:]), nil
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		value, rest = s[:i], strings.TrimSpace(s[i+1:])
	} else {
		value = s
	}
	if value == "" {
		return "", "", "", configErrorf(pos, "missing value for option %q", name)
	}
	return name, value, rest, nil
}

func (o *Options) set(name, value string, pos token.Position) error {
	switch name {
	case "size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return configErrorf(pos, "size must be a positive integer, got %q", value)
		}
		o.Size = &n
	case "ttl":
		d, err := parseTTL(value)
		if err != nil {
			return configErrorf(pos, "ttl must be an integer number of seconds or a duration, got %q", value)
		}
		if d <= 0 {
			return configErrorf(pos, "ttl must be positive, got %q", value)
		}
		o.TTL = &d
	case "key":
		o.Key = &value
	case "convert":
		o.Convert = &value
	case "type":
		o.CacheType = &value
	case "create":
		o.Create = &value
	case "name":
		if !token.IsIdentifier(value) {
			return configErrorf(pos, "name must be a valid identifier, got %q", value)
		}
		o.Name = &value
	default:
		return configErrorf(pos, "unknown option %q", name)
	}
	return nil
}

// parseTTL accepts a bare integer (seconds, matching the directive table)
// or any duration string str2duration understands ("90s", "1h30m", "2d").
func parseTTL(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return str2duration.ParseDuration(value)
}
