// Package resolve implements the Reference Resolver (spec §4.F): it turns a
// node's `src=`/`ref=` prop into either a pending `Exec` dependency or a
// concrete subtree to splice in, using a three-tier context/sibling/root
// search over the artifact and document registries.
package resolve

import (
	"fmt"
	"sort"
	"strings"
)

// ResolvePath finds the entry in paths that best matches path given the
// search is happening from context, per spec §4.F step 2. It is a
// line-for-line port of original_source/src/lib/preprocessor.rs's
// resolve_path: search within context first, then within context's top-level
// sibling, then from the root; ties are broken by sorting each candidate set
// so results are deterministic regardless of map/slice iteration order.
func ResolvePath(path string, paths []string, context string) (string, bool) {
	var within, without []string
	for _, p := range paths {
		if strings.HasPrefix(p, context) {
			within = append(within, p)
		} else {
			without = append(without, p)
		}
	}
	sort.Strings(within)
	for _, k := range within {
		if strings.HasSuffix(k, path) {
			return k, true
		}
	}

	sort.Strings(without)
	if idx := strings.IndexByte(context, '/'); idx >= 0 {
		sibling := context[:idx]
		for _, k := range without {
			if strings.HasPrefix(k, sibling) && strings.HasSuffix(k, path) {
				return k, true
			}
		}
	}

	for _, k := range without {
		if strings.HasSuffix(k, path) {
			return k, true
		}
	}
	return "", false
}

// ReferenceCycleError reports a `src=`/`ref=` chain that revisits a document
// or artifact it already depended on, per spec §4.F step 4.
type ReferenceCycleError struct {
	Chain []string
}

func (e *ReferenceCycleError) Error() string {
	return fmt.Sprintf("resolve: reference cycle: %s", strings.Join(e.Chain, " -> "))
}

// UnresolvedReferenceError reports a `src=`/`ref=` that named nothing in
// either registry.
type UnresolvedReferenceError struct {
	Name    string
	Context string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("resolve: no artifact or document matches %q from context %q", e.Name, e.Context)
}

// Chain tracks the visited-set for one resolution walk, so a cycle is
// reported as a ReferenceCycleError instead of recursing forever (spec §9).
type Chain struct {
	visited map[string]bool
	order   []string
}

// NewChain returns an empty resolution chain.
func NewChain() *Chain {
	return &Chain{visited: make(map[string]bool)}
}

// Enter records name as visited, returning a ReferenceCycleError if it was
// already on the chain.
func (c *Chain) Enter(name string) error {
	if c.visited[name] {
		return &ReferenceCycleError{Chain: append(append([]string(nil), c.order...), name)}
	}
	c.visited[name] = true
	c.order = append(c.order, name)
	return nil
}

// Leave removes name from the chain, letting it be revisited by an unrelated
// branch of the resolution (a diamond reference, not a cycle).
func (c *Chain) Leave(name string) {
	delete(c.visited, name)
	if len(c.order) > 0 && c.order[len(c.order)-1] == name {
		c.order = c.order[:len(c.order)-1]
	}
}
