package engine

import (
	"fmt"
	"strconv"
	"strings"

	"murkdown/internal/lang"
)

// YieldFunc produces the already-compiled output of the current node's
// children, matched afresh against the ruleset (spec §4.D: "YIELD —
// recursively process the node's children ... output is appended at the
// YIELD point"). internal/engine/walk.go supplies the real implementation;
// tests supply a stub.
//
// Unlike the Rust original's Lang::evaluate, which has to stop and hand back
// a Cursor mid-command-list because it drives a single shared mutable
// iterator across an async boundary, Eval here is an ordinary synchronous Go
// function: EXEC blocks on Executor.Exec and YIELD blocks on YieldFunc, so a
// plain top-to-bottom loop already gives "pre-YIELD output, then children,
// then post-YIELD output" for free, including multiple YIELDs in one rule.
type YieldFunc func() (string, error)

func Eval(cmds []lang.Command, ctx *Context, state *State, yield YieldFunc) (string, error) {
	var out strings.Builder
	for _, cmd := range cmds {
		switch cmd.Op {
		case "WRITE":
			s, err := argStr(cmd, 0)
			if err != nil {
				return "", err
			}
			out.WriteString(Interpolate(s, ctx))

		case "WRITEALL":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			for _, v := range state.Stacks[k] {
				out.WriteString(v)
			}

		case "SET":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			v, err := argStr(cmd, 1)
			if err != nil {
				return "", err
			}
			ctx.Scratch[k] = Interpolate(v, ctx)

		case "PUSH":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			v, err := argStr(cmd, 1)
			if err != nil {
				return "", err
			}
			val := Interpolate(v, ctx)
			state.push(k, val)
			ctx.Stacks[k] = state.Stacks[k]

		case "POP":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			state.pop(k)
			ctx.Stacks[k] = state.Stacks[k]

		case "DRAIN":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			state.drain(k)
			ctx.Stacks[k] = state.Stacks[k]

		case "INC", "DEC":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			n, _ := strconv.Atoi(ctx.Scratch[k])
			if cmd.Op == "INC" {
				n++
			} else {
				n--
			}
			ctx.Scratch[k] = strconv.Itoa(n)

		case "SWAP":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			state.swap(k)
			ctx.Stacks[k] = state.Stacks[k]

		case "LOAD":
			k, err := argRef(cmd, 0)
			if err != nil {
				return "", err
			}
			src := ctx.Scratch["ref"]
			if src == "" {
				src = strings.TrimPrefix(ctx.Scratch["src"], "exec:")
			}
			ctx.Scratch[k] = state.Artifacts[src]

		case "EXEC":
			if len(cmd.Args) != 3 {
				return "", fmt.Errorf("EXEC: want 3 args, got %d", len(cmd.Args))
			}
			cmdLine := Interpolate(cmd.Args[0].Str, ctx)
			media := cmd.Args[1].Str
			name := Interpolate(cmd.Args[2].Str, ctx)
			if state.Exec == nil {
				return "", fmt.Errorf("EXEC %q: no Executor configured", cmdLine)
			}
			result, err := state.Exec.Exec(cmdLine, ctx.Scratch["stdin"], media, name)
			if err != nil {
				return "", fmt.Errorf("EXEC %q: %w", cmdLine, err)
			}
			state.Artifacts[name] = result

		case "YIELD":
			if yield == nil {
				continue
			}
			childOut, err := yield()
			if err != nil {
				return "", err
			}
			out.WriteString(childOut)

		case "NOOP":
			// Deliberately does nothing; a rule uses this to match and
			// silence a node without producing output or descending.

		default:
			return "", fmt.Errorf("unknown command %q", cmd.Op)
		}
	}
	return out.String(), nil
}

func argStr(cmd lang.Command, i int) (string, error) {
	if i >= len(cmd.Args) {
		return "", fmt.Errorf("%s: missing argument %d", cmd.Op, i)
	}
	return cmd.Args[i].Str, nil
}

func argRef(cmd lang.Command, i int) (string, error) {
	return argStr(cmd, i)
}
