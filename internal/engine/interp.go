package engine

import (
	"html"
	"strconv"
	"strings"
)

// Context carries everything Interpolate needs to resolve one string
// argument against the node currently being evaluated (spec §4.D). It is
// deliberately narrower than State: State is shared across the whole
// compilation, Context is rebuilt for every node.
type Context struct {
	LineText  string
	Marker    string
	Sibling   int
	Token     string
	Media     string
	Unescaped bool
	Scratch   map[string]string
	Stacks    map[string][]string
}

// isIdentByte reports whether b can appear in a `$name` stack/scratch key.
func isIdentByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Interpolate performs the single-pass substitution described in spec §4.D:
// `\v`/`\n`/`\i`/`\r`/`\m` built-ins and `$name`/`$name:j` stack/scratch
// references. Single-pass matters — scanning left to right and never
// revisiting already-emitted output means a substituted value that happens
// to contain "\v" or "$x" is never re-interpreted, unlike a naive sequence
// of strings.ReplaceAll calls.
func Interpolate(s string, ctx *Context) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			switch s[i+1] {
			case 'v':
				out.WriteString(escapeValue(ctx.LineText, ctx))
				i += 2
				continue
			case 'n':
				out.WriteByte('\n')
				i += 2
				continue
			case 'i':
				// Sibling is the 0-based loop index walk.go threads through;
				// spec §3 defines \i as the 1-based position within a Section.
				out.WriteString(strconv.Itoa(ctx.Sibling + 1))
				i += 2
				continue
			case 'r':
				out.WriteString(ctx.Token)
				i += 2
				continue
			case 'm':
				out.WriteString(ctx.Marker)
				i += 2
				continue
			default:
				out.WriteByte(c)
				i++
				continue
			}
		case c == '$' && i+1 < len(s) && isIdentByte(s[i+1]):
			j := i + 1
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			name := s[i+1 : j]
			joinMode := false
			if j+1 < len(s) && s[j] == ':' && s[j+1] == 'j' {
				joinMode = true
				j += 2
			}
			out.WriteString(resolveVar(name, joinMode, ctx))
			i = j
			continue
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func resolveVar(name string, joinMode bool, ctx *Context) string {
	stack := ctx.Stacks[name]
	if joinMode {
		sep := " "
		if v, ok := ctx.Scratch["join"]; ok {
			sep = v
		}
		return strings.Join(stack, sep)
	}
	if len(stack) > 0 {
		return stack[len(stack)-1]
	}
	if v, ok := ctx.Scratch[name]; ok {
		return v
	}
	return ""
}

// escapeValue applies HTML escaping to \v's raw line text unless the rule
// carries UNESCAPED_VALUE or the target media isn't HTML (spec §8 property
// 6, "escape invariance").
func escapeValue(raw string, ctx *Context) string {
	if ctx.Unescaped || ctx.Media != "text/html" {
		return raw
	}
	return html.EscapeString(raw)
}
