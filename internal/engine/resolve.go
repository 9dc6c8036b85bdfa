package engine

import (
	"fmt"

	"murkdown/internal/block"
	"murkdown/internal/resolve"
)

// resolveReferences performs the preprocess reference-splicing pass (spec
// §4.D step 2, §4.F step 3): a Directive or Section carrying a src= or ref=
// prop whose children include a live Ellipsis gets that Ellipsis replaced by
// a deep clone of the resolved document's or artifact's content, so a
// downstream Walk actually sees the referenced material instead of an
// unresolved placeholder. A src="exec:name" reference is left untouched
// here — its content arrives later through EXEC/LOAD once the named
// subprocess has actually run.
func resolveReferences(root *block.Root, state *State) error {
	if state.Resolver == nil {
		return nil
	}
	if state.Chain == nil {
		state.Chain = resolve.NewChain()
	}
	// Entering the document being preprocessed itself, not just the
	// references it splices in, is what lets a reference cycle that loops
	// back to this same document surface as ReferenceCycleError instead of
	// recursing forever.
	if err := state.Chain.Enter(state.DocID); err != nil {
		return err
	}
	defer state.Chain.Leave(state.DocID)

	spliced, err := spliceChildren(root.Children, state)
	if err != nil {
		return err
	}
	root.Children = spliced
	return nil
}

// spliceChildren returns children with every Directive/Section among them
// spliced in place (recursively) wherever it carries a resolvable src=/ref=.
func spliceChildren(children []block.Node, state *State) ([]block.Node, error) {
	out := make([]block.Node, 0, len(children))
	for _, child := range children {
		nodes, err := spliceNode(child, state)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// spliceNode returns the nodes that should replace node in its parent's
// child slice: ordinarily just node itself (with its own children spliced
// recursively), unless node's resolved reference identifies a document or
// artifact whose content directly replaces node's live Ellipsis child.
func spliceNode(node block.Node, state *State) ([]block.Node, error) {
	switch n := node.(type) {
	case *block.Directive:
		if err := spliceContainer(n.Props, &n.Children, state); err != nil {
			return nil, fmt.Errorf("murkdown: resolving [!%s]: %w", n.Name, err)
		}
		return []block.Node{n}, nil
	case *block.Section:
		if err := spliceContainer(n.Props, &n.Children, state); err != nil {
			return nil, fmt.Errorf("murkdown: resolving [~]: %w", err)
		}
		return []block.Node{n}, nil
	default:
		return []block.Node{node}, nil
	}
}

// spliceContainer resolves the src=/ref= prop on props (if any) against
// state.Resolver and, on a document or artifact hit, replaces the first live
// Ellipsis in *children with the resolved content. It always recurses into
// whatever children end up in place, so a spliced document's own nested
// references are resolved too.
func spliceContainer(props *block.Props, children *[]block.Node, state *State) error {
	value, key := refValue(props)
	if value == "" {
		spliced, err := spliceChildren(*children, state)
		if err != nil {
			return err
		}
		*children = spliced
		return nil
	}

	result, err := state.Resolver.Resolve(value, state.DocID)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, value, err)
	}

	switch result.Kind {
	case resolve.ArtifactHit:
		*children = spliceEllipsis(*children, []block.Node{&block.Line{Text: result.Artifact}})
		return nil

	case resolve.DocumentHit:
		if err := state.Chain.Enter(value); err != nil {
			return err
		}
		defer state.Chain.Leave(value)
		cloned := block.Clone(result.Document).(*block.Root)
		body, err := spliceChildren(cloned.Children, state)
		if err != nil {
			return err
		}
		*children = spliceEllipsis(*children, body)
		return nil

	default: // resolve.ExecPending: nothing to splice yet.
		spliced, err := spliceChildren(*children, state)
		if err != nil {
			return err
		}
		*children = spliced
		return nil
	}
}

// refValue returns the src= or ref= prop value on props (src taking
// precedence, per spec §4.F), and which key it came from.
func refValue(props *block.Props) (value, key string) {
	if props == nil {
		return "", ""
	}
	if v, ok := props.Get("src"); ok {
		return v, "src"
	}
	if v, ok := props.Get("ref"); ok {
		return v, "ref"
	}
	return "", ""
}

// spliceEllipsis substitutes the first live Ellipsis found in children —
// searching each child's own children too, since a Directive's "..." body is
// itself wrapped in an implicit Section by the parser — with body's nodes,
// inlined at that position. children with no Ellipsis anywhere (a src=/ref=
// prop declared without a "..." placeholder) is left as-is: the reference
// exists for LOAD/EXEC purposes only, not for structural splicing.
func spliceEllipsis(children []block.Node, body []block.Node) []block.Node {
	out, _ := spliceEllipsisIn(children, body)
	return out
}

func spliceEllipsisIn(children []block.Node, body []block.Node) ([]block.Node, bool) {
	for i, c := range children {
		if _, ok := c.(*block.Ellipsis); ok {
			out := make([]block.Node, 0, len(children)-1+len(body))
			out = append(out, children[:i]...)
			out = append(out, body...)
			out = append(out, children[i+1:]...)
			return out, true
		}
	}
	for _, c := range children {
		switch n := c.(type) {
		case *block.Directive:
			if newKids, ok := spliceEllipsisIn(n.Children, body); ok {
				n.Children = newKids
				return children, true
			}
		case *block.Section:
			if newKids, ok := spliceEllipsisIn(n.Children, body); ok {
				n.Children = newKids
				return children, true
			}
		}
	}
	return children, false
}
