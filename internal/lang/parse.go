package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses the contents of a .lang file into a Ruleset (spec §4.B).
func Parse(file, src string) (*Ruleset, error) {
	cleaned := stripComments(src)
	lines := strings.Split(cleaned, "\n")
	// stripComments keeps every newline, so origLines[i] is the source text
	// of lines[i].
	origLines := strings.Split(src, "\n")

	rs := &Ruleset{}
	preambleFound := false
	var section Phase
	var current *Rule

	finalize := func() {
		if current == nil {
			return
		}
		switch section {
		case PhasePreprocess:
			rs.Preprocess = append(rs.Preprocess, current)
		case PhaseCompile:
			rs.Compile = append(rs.Compile, current)
		}
		current = nil
	}

	for i, raw := range lines {
		lineNo := i + 1
		trimmedRight := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(trimmedRight) == "" {
			// A line that held only a comment does not end the open rule;
			// a line that was blank in the source does.
			if strings.TrimSpace(origLines[i]) == "" {
				finalize()
			}
			continue
		}

		if !preambleFound {
			name, media, err := parsePreamble(trimmedRight)
			if err != nil {
				return nil, newParseError(file, lineNo, "%s", err)
			}
			rs.Name, rs.MediaType = name, media
			preambleFound = true
			continue
		}

		switch strings.TrimSpace(trimmedRight) {
		case "PREPROCESS RULES:":
			finalize()
			section = PhasePreprocess
			continue
		case "COMPILE RULES:":
			finalize()
			section = PhaseCompile
			continue
		}

		if strings.HasPrefix(trimmedRight, "  ") {
			if current == nil {
				return nil, newParseError(file, lineNo, "indented line outside any rule: %q", trimmedRight)
			}
			body := strings.TrimSpace(trimmedRight)
			if strings.HasPrefix(body, "IS ") {
				current.Flags[Flag(strings.TrimSpace(body[len("IS "):]))] = true
				continue
			}
			cmd, err := parseCommandLine(body)
			if err != nil {
				return nil, newParseError(file, lineNo, "%s", err)
			}
			current.Commands = append(current.Commands, cmd)
			continue
		}

		// A new rule's Path line: zero leading spaces.
		finalize()
		if section == "" {
			return nil, newParseError(file, lineNo, "rule path %q outside PREPROCESS/COMPILE RULES section", trimmedRight)
		}
		pat, err := CompilePattern(trimmedRight)
		if err != nil {
			return nil, newParseError(file, lineNo, "%s", err)
		}
		current = &Rule{PathSrc: trimmedRight, Pattern: pat, Flags: map[Flag]bool{}}
	}
	finalize()

	if !preambleFound {
		return nil, newParseError(file, 1, "missing 'RULES FOR <name> PRODUCE <media-type>' preamble")
	}
	return rs, nil
}

// stripComments removes /* ... */ comments, including ones spanning several
// lines, while preserving line breaks outside the comment so error line
// numbers stay accurate.
func stripComments(src string) string {
	var out strings.Builder
	inComment := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inComment {
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inComment = false
				i++
				continue
			}
			if c == '\n' {
				out.WriteByte('\n')
			}
			continue
		}
		if c == '/' && i+1 < len(src) && src[i+1] == '*' {
			inComment = true
			i++
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// parsePreamble parses "RULES FOR <name> PRODUCE <media-type>".
func parsePreamble(line string) (name, media string, err error) {
	const prefix = "RULES FOR "
	if !strings.HasPrefix(line, prefix) {
		return "", "", fmt.Errorf("expected preamble %q, got %q", prefix+"<name> PRODUCE <media-type>", line)
	}
	rest := line[len(prefix):]
	idx := strings.Index(rest, " PRODUCE ")
	if idx < 0 {
		return "", "", fmt.Errorf("preamble %q missing ' PRODUCE '", line)
	}
	name = strings.TrimSpace(rest[:idx])
	media = strings.TrimSpace(rest[idx+len(" PRODUCE "):])
	if name == "" || media == "" {
		return "", "", fmt.Errorf("preamble %q has an empty name or media type", line)
	}
	return name, media, nil
}

// parseCommandLine parses one instruction body (opcode + arguments). EXEC has
// its own fixed shape (spec §4.D: `EXEC "cmd" TO <media> AS "name"`) and is
// parsed specially rather than through the generic tokenizer, since its `TO`/
// `AS` keywords aren't ordinary arguments.
func parseCommandLine(body string) (Command, error) {
	op, rest := splitOp(body)
	if op == "EXEC" {
		return parseExec(rest)
	}
	args, err := tokenizeArgs(rest)
	if err != nil {
		return Command{}, fmt.Errorf("%s: %w", op, err)
	}
	return Command{Op: op, Args: args}, nil
}

func splitOp(body string) (op, rest string) {
	body = strings.TrimSpace(body)
	i := strings.IndexAny(body, " \t")
	if i < 0 {
		return body, ""
	}
	return body[:i], strings.TrimSpace(body[i:])
}

func parseExec(rest string) (Command, error) {
	cmdArg, rest, err := scanOneArg(rest)
	if err != nil {
		return Command{}, fmt.Errorf("EXEC: %w", err)
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "TO ") {
		return Command{}, fmt.Errorf("EXEC: expected 'TO <media>', got %q", rest)
	}
	rest = strings.TrimSpace(rest[len("TO "):])
	i := strings.IndexAny(rest, " \t")
	if i < 0 {
		return Command{}, fmt.Errorf("EXEC: expected 'AS \"name\"' after media type")
	}
	media := rest[:i]
	rest = strings.TrimSpace(rest[i:])
	if !strings.HasPrefix(rest, "AS ") {
		return Command{}, fmt.Errorf("EXEC: expected 'AS \"name\"', got %q", rest)
	}
	nameArg, rest, err := scanOneArg(strings.TrimSpace(rest[len("AS "):]))
	if err != nil {
		return Command{}, fmt.Errorf("EXEC: %w", err)
	}
	if strings.TrimSpace(rest) != "" {
		return Command{}, fmt.Errorf("EXEC: trailing garbage %q", rest)
	}
	return Command{Op: "EXEC", Args: []Arg{cmdArg, {Kind: ArgRef, Str: media}, nameArg}}, nil
}

// tokenizeArgs splits a whitespace-separated argument list, honoring double
// quoted strings with \" and \\ escapes.
func tokenizeArgs(rest string) ([]Arg, error) {
	var args []Arg
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return args, nil
		}
		var a Arg
		var err error
		a, rest, err = scanOneArg(rest)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
}

func scanOneArg(rest string) (Arg, string, error) {
	if rest == "" {
		return Arg{}, "", fmt.Errorf("expected an argument")
	}
	if rest[0] == '"' {
		var val strings.Builder
		i := 1
		for i < len(rest) {
			c := rest[i]
			// Only \" and \\ are string-literal escapes here. Any other
			// backslash sequence (\v, \n, \i, \r, \m) is an interpolation
			// marker the engine resolves later and must survive intact.
			if c == '\\' && i+1 < len(rest) && (rest[i+1] == '"' || rest[i+1] == '\\') {
				val.WriteByte(rest[i+1])
				i += 2
				continue
			}
			if c == '"' {
				return Arg{Kind: ArgStr, Str: val.String()}, rest[i+1:], nil
			}
			val.WriteByte(c)
			i++
		}
		return Arg{}, "", fmt.Errorf("unterminated string argument")
	}
	i := strings.IndexAny(rest, " \t")
	var tok string
	if i < 0 {
		tok, rest = rest, ""
	} else {
		tok, rest = rest[:i], rest[i:]
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Arg{Kind: ArgInt, Int: n}, rest, nil
	}
	return Arg{Kind: ArgRef, Str: tok}, rest, nil
}
