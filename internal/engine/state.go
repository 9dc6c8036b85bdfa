// Package engine implements the Execution Engine (spec §4.D): it evaluates a
// matched Rule's Commands against one node, threading process-global stacks
// and node-scoped scratch through a pre-order, YIELD-driven tree walk.
package engine

import (
	"murkdown/internal/block"
	"murkdown/internal/resolve"
)

// Executor runs an EXEC command's shell-out and returns the captured output.
// cmd/murkdown's execAdapter supplies the real implementation (backed by
// internal/subproc, bounded by the subprocess concurrency cap); tests use a
// stub. Keeping this as an injected interface — rather than engine reaching
// into internal/subproc/internal/graph itself — is the Go-idiomatic stand-in
// for the Rust original's `Lang::evaluate` merely collecting a `Dependency`
// for something else to run later.
type Executor interface {
	Exec(cmd, stdin, media, name string) (string, error)
}

// RefCopier materialises a REF-BY-COPY reference (spec §6/§8 S5): given the
// value of the matched node's `src` prop and the ruleset's media type, it
// resolves and copies the referenced content and returns the path the
// output should link to (e.g. "assets/logo.png"). cmd/murkdown's
// refCopyAdapter supplies the real implementation over
// graph.WriteRefByCopy; tests use a stub. Left unset,
// a rule flagged IS REF-BY-COPY fails with a clear error rather than
// silently skipping the copy.
type RefCopier interface {
	CopyRef(src, media string) (string, error)
}

// State is process-global to one compilation: stacks persist and are shared
// across the whole tree walk (spec §4.D — "stacks are process-global to the
// compilation so PUSH/POP in parents affect children"), while scratch is
// created fresh per node by NewScratch.
type State struct {
	Stacks    map[string][]string
	Artifacts map[string]string
	Exec      Executor
	RefCopy   RefCopier

	// Resolver, DocID, and Chain wire the Reference Resolver (spec §4.F)
	// into preprocess: a nil Resolver leaves src=/ref= splicing off (the
	// default for tests that don't exercise cross-document references).
	// DocID is this document's registry key, the "context" ResolvePath
	// searches from. Chain is created lazily and shared across the whole
	// preprocess pass so a reference loop is caught rather than recursed
	// forever.
	Resolver *resolve.Resolver
	DocID    string
	Chain    *resolve.Chain
}

// NewState returns an empty State ready for one Preprocess or Compile pass.
func NewState(exec Executor) *State {
	return &State{
		Stacks:    make(map[string][]string),
		Artifacts: make(map[string]string),
		Exec:      exec,
	}
}

func (s *State) push(k, v string) {
	s.Stacks[k] = append(s.Stacks[k], v)
}

func (s *State) pop(k string) {
	st := s.Stacks[k]
	if len(st) == 0 {
		return
	}
	s.Stacks[k] = st[:len(st)-1]
}

func (s *State) top(k string) (string, bool) {
	st := s.Stacks[k]
	if len(st) == 0 {
		return "", false
	}
	return st[len(st)-1], true
}

func (s *State) drain(k string) {
	delete(s.Stacks, k)
}

// swap exchanges the top two elements of stack k; a no-op below size 2 (spec
// §9 Open Question 2).
func (s *State) swap(k string) {
	st := s.Stacks[k]
	if len(st) < 2 {
		return
	}
	n := len(st)
	st[n-1], st[n-2] = st[n-2], st[n-1]
}

// NewScratch seeds a node's scratch overlay from its own props (spec §4.D:
// "each node gets a fresh overlay of scratch seeded by its props").
func NewScratch(props *block.Props) map[string]string {
	if props == nil {
		return map[string]string{}
	}
	m := make(map[string]string, props.Len())
	for _, k := range props.Keys() {
		v, _ := props.Get(k)
		m[k] = v
	}
	return m
}
