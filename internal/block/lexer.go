package block

import (
	"fmt"
	"strings"
)

// blockStartChars is the set of characters from spec §4.A that introduce a
// nested block: `{ | > * # + - }`.
const blockStartChars = "|>*#+-"

// splitSourceLines splits src into lines on "\n", tolerating a trailing "\r"
// per line even though spec §6 mandates LF endings — accepting CRLF costs
// nothing and avoids surprising failures on checked-out-on-Windows sources.
func splitSourceLines(src string) []string {
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	// A trailing newline produces one spurious empty final element; drop it
	// so it doesn't get parsed as a stray blank top-level line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// detectVariant picks the root grammar variant for the whole document: A
// (block-start prefix characters) if the first non-blank line begins with
// one, else B (four-space indentation).
func detectVariant(lines []string) byte {
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if len(l) > 0 && strings.ContainsRune(blockStartChars, rune(l[0])) {
			return 'A'
		}
		return 'B'
	}
	return 'A'
}

// findMatchingParen returns the index of the ')' matching the '(' at
// openIdx, honoring `\"`-escaped quotes so a ')' inside a quoted prop value
// doesn't close the group early.
func findMatchingParen(s string, openIdx int) (int, bool) {
	inQuotes := false
	for i := openIdx + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++ // skip the escaped character
		case c == '"':
			inQuotes = !inQuotes
		case c == ')' && !inQuotes:
			return i, true
		}
	}
	return -1, false
}

// parsePropsBody parses the content between a header's parentheses: a
// whitespace-separated sequence of key="value" pairs with \" and \= escapes
// inside values, per spec §4.A.
func parsePropsBody(body string) (*Props, error) {
	props := NewProps()
	i, n := 0, len(body)
	for i < n {
		for i < n && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		keyStart := i
		for i < n && body[i] != '=' && body[i] != ' ' && body[i] != '\t' {
			i++
		}
		key := body[keyStart:i]
		if key == "" {
			return nil, fmt.Errorf("block: empty prop key")
		}
		if i >= n || body[i] != '=' {
			return nil, fmt.Errorf("block: prop %q: expected '='", key)
		}
		i++
		if i >= n || body[i] != '"' {
			return nil, fmt.Errorf("block: prop %q: expected opening quote", key)
		}
		i++
		var val strings.Builder
		closed := false
		for i < n {
			c := body[i]
			if c == '\\' && i+1 < n && (body[i+1] == '"' || body[i+1] == '=') {
				val.WriteByte(body[i+1])
				i += 2
				continue
			}
			if c == '"' {
				i++
				closed = true
				break
			}
			val.WriteByte(c)
			i++
		}
		if !closed {
			return nil, fmt.Errorf("block: prop %q: unterminated value", key)
		}
		props.Set(key, val.String())
	}
	return props, nil
}

// headerParse is the result of scanning a `[!NAME]`/`[!NAME](props)`-style
// header from the start of a payload string.
type headerParse struct {
	name  string
	props *Props
	rest  string // text remaining on the line after the header
}

// parseHeaderPayload scans a directive or section header starting at
// payload[0:2] (either "[!" or "[~"). The grammar is:
//
//	"[!" NAME "]"                 -- no props
//	"[!" NAME "]" "(" props ")"   -- props follow the closing "]"
//
// per spec §4.A: the header always closes with "]", and an optional
// "(props)" group may follow it — e.g. `[!CODE](language="python" id="f")`
// carries both the "]" (right after "CODE") and the props group. NAME stops
// at the first "]", so a literal "]" cannot appear in a name.
func parseHeaderPayload(payload string) (headerParse, error) {
	i := 2
	nameStart := i
	for i < len(payload) && payload[i] != ']' {
		i++
	}
	if i >= len(payload) {
		return headerParse{}, fmt.Errorf("block: header %q: missing ']'", payload)
	}
	name := payload[nameStart:i]
	rest := payload[i+1:]
	if len(rest) == 0 || rest[0] != '(' {
		return headerParse{name: name, props: NewProps(), rest: rest}, nil
	}
	closeIdx, ok := findMatchingParen(rest, 0)
	if !ok {
		return headerParse{}, fmt.Errorf("block: header %q: unterminated '('", payload)
	}
	props, err := parsePropsBody(rest[1:closeIdx])
	if err != nil {
		return headerParse{}, err
	}
	return headerParse{name: name, props: props, rest: rest[closeIdx+1:]}, nil
}
