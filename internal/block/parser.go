package block

import (
	"strconv"
	"strings"
)

// ParseResult is what Parse/ParseFile return: the tree plus any
// warning-level issues encountered (currently only EmptyDirectiveName,
// which spec §4.A says to warn on and keep rather than fail the parse).
type ParseResult struct {
	Root     *Root
	Warnings []string
}

// Parse parses src as an anonymous document.
func Parse(src string) (*ParseResult, error) {
	return ParseFile("<input>", src)
}

// ParseFile parses src, attributing errors to file.
func ParseFile(file, src string) (*ParseResult, error) {
	lines := splitSourceLines(src)
	p := &parser{file: file, lines: lines, variant: detectVariant(lines)}
	children, next, err := p.parseAt("")
	if err != nil {
		return nil, err
	}
	if next != len(lines) {
		// Should not happen: parseAt("") only stops at EOF since every line
		// has the empty prefix. Guarded for defensiveness against future
		// changes to the dispatch loop.
		return nil, newParseError(file, next+1, 1, BadIndent, "unconsumed input")
	}
	return &ParseResult{Root: &Root{Children: children}, Warnings: p.warnings}, nil
}

// parser holds the mutable state of a single parse: the source lines, the
// detected grammar variant, and accumulated warnings. curToken/peekToken-
// style lookahead isn't needed at this granularity — the grammar is driven
// line by line, with parseHeaderPayload handling the finer-grained header
// tokens (see lexer.go), the same split the teacher's dslyaml package makes
// between line/document-level structure and field-level parsing.
type parser struct {
	file     string
	lines    []string
	variant  byte
	pos      int
	warnings []string
}

// deeperToken returns the block-start token that would begin a nested block
// immediately within local (the unconsumed remainder of the current line
// after stripping the caller's prefix), or "" if local does not open one.
func (p *parser) deeperToken(local string) string {
	if p.variant == 'A' {
		if local != "" && strings.ContainsRune(blockStartChars, rune(local[0])) {
			return local[:1]
		}
		return ""
	}
	if strings.HasPrefix(local, "    ") {
		return "    "
	}
	return ""
}

// parseAt parses every line at column offset len(prefix) whose text starts
// with prefix, starting from p.pos, and returns the resulting sibling nodes
// plus the index of the first line that did not match. A header (Directive
// or Section) absorbs subsequent same-prefix content/ellipsis lines and any
// more deeply nested blocks as its body, until either the run ends or
// another header appears at the exact same prefix (which starts a new
// sibling rather than extending the previous header's body).
func (p *parser) parseAt(prefix string) ([]Node, int, error) {
	var nodes []Node
	var pending []Node
	openIdx := -1

	closeOpen := func() {
		if openIdx < 0 {
			return
		}
		if len(pending) > 0 {
			switch n := nodes[openIdx].(type) {
			case *Directive:
				n.Children = []Node{&Section{Props: NewProps(), Children: pending, Marker: n.Marker}}
			case *Section:
				n.Children = pending
			}
		}
		pending = nil
		openIdx = -1
	}

	appendNode := func(n Node) {
		if openIdx >= 0 {
			pending = append(pending, n)
			return
		}
		nodes = append(nodes, n)
	}

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if !strings.HasPrefix(line, prefix) {
			break
		}
		local := line[len(prefix):]

		if token := p.deeperToken(local); token != "" {
			children, _, err := p.parseAt(prefix + token)
			if err != nil {
				return nil, p.pos, err
			}
			if openIdx >= 0 {
				pending = append(pending, children...)
			} else {
				nodes = append(nodes, children...)
			}
			continue
		}

		payload := local
		// Variant A block-start characters need a following space to
		// separate the marker from its payload ("> text"); variant B's
		// four-space indent is already a separator, and top-level lines
		// (prefix == "") have no marker at all, so payload is used as-is.
		if prefix != "" && p.variant == 'A' {
			if payload == "" {
				appendNode(&Line{})
				p.pos++
				continue
			}
			if payload[0] != ' ' {
				return nil, p.pos, newParseError(p.file, p.pos+1, len(prefix)+1, BadIndent,
					"expected a space after block prefix "+quotePrefix(prefix))
			}
			payload = payload[1:]
		} else if prefix == "" && strings.TrimSpace(payload) == "" {
			p.pos++
			continue
		} else if prefix != "" && payload == "" {
			appendNode(&Line{})
			p.pos++
			continue
		}

		switch {
		case strings.HasPrefix(payload, "[!"):
			hp, err := parseHeaderPayload(payload)
			if err != nil {
				return nil, p.pos, newParseError(p.file, p.pos+1, len(prefix)+1, UnterminatedProps, err.Error())
			}
			if strings.TrimSpace(hp.rest) != "" {
				return nil, p.pos, newParseError(p.file, p.pos+1, len(prefix)+1, TrailingGarbageAfterHeader, hp.rest)
			}
			if hp.name == "" {
				p.warnings = append(p.warnings, p.file+": empty directive name at line "+strconv.Itoa(p.pos+1))
			}
			closeOpen()
			nodes = append(nodes, &Directive{Name: hp.name, Props: hp.props, Marker: prefix})
			openIdx = len(nodes) - 1
			p.pos++

		case strings.HasPrefix(payload, "[~"):
			hp, err := parseHeaderPayload(payload)
			if err != nil {
				return nil, p.pos, newParseError(p.file, p.pos+1, len(prefix)+1, UnterminatedProps, err.Error())
			}
			if strings.TrimSpace(hp.rest) != "" {
				return nil, p.pos, newParseError(p.file, p.pos+1, len(prefix)+1, TrailingGarbageAfterHeader, hp.rest)
			}
			closeOpen()
			props := hp.props
			if hp.name != "" {
				props.Set("name", hp.name)
			}
			nodes = append(nodes, &Section{Props: props, Marker: prefix})
			openIdx = len(nodes) - 1
			p.pos++

		default:
			text := payload
			escaped := false
			if strings.HasPrefix(text, `\`) {
				after := text[1:]
				if strings.HasPrefix(after, "[~") || strings.HasPrefix(after, "[!") {
					text = after
					escaped = true
				}
			}
			if text == "..." {
				appendNode(&Ellipsis{})
			} else {
				appendNode(&Line{Text: text, Escaped: escaped})
			}
			p.pos++
		}
	}

	closeOpen()
	return nodes, p.pos, nil
}

func quotePrefix(prefix string) string {
	return "\"" + prefix + "\""
}
