// Package block implements the source parser: it turns Murkdown source text
// into a uniform tree of directives, sections, and lines.
package block

// Node is the sealed interface for every value that can appear in a parsed
// block tree. Only the five variants in this file implement it.
type Node interface {
	isNode()
}

// Root is the top of a parsed document. Header is nil for documents parsed
// directly by Parse; callers assembling a multi-document page (see
// internal/resolve) may promote a single top-level Directive into Header via
// NewRootWithHeader.
type Root struct {
	Header   *Directive
	Children []Node
}

// Directive is a `[!NAME](k="v" ...)` block. Name preserves internal spaces
// ("SIMPLE WEBSITE"). By the time Parse returns, a Directive's content (if
// any) has been wrapped in a single implicit Section child, per the
// "every directive with content has a Section child" invariant.
type Directive struct {
	Name     string
	Props    *Props
	Children []Node
	// Marker is the block-start prefix in force where this directive's own
	// header line was found (e.g. ">>" two levels deep, "" at top level with
	// no wrapping quote/list marker). internal/engine's `\m` interpolation
	// reads it back off whichever container is being walked.
	Marker string
}

// Section is the implicit grouping introduced by `[~NAME]` or inserted by the
// parser under a Directive that carries content.
type Section struct {
	Props    *Props
	Children []Node
	Marker   string
}

// Line is a single leaf line of content. Escaped is true when the line's
// text began with a backslash that escaped what would otherwise have been
// parsed as a section-header start.
type Line struct {
	Text    string
	Escaped bool
}

// Ellipsis is the literal "..." line, a placeholder for spliced content.
type Ellipsis struct{}

func (*Root) isNode()      {}
func (*Directive) isNode() {}
func (*Section) isNode()   {}
func (*Line) isNode()      {}
func (*Ellipsis) isNode()  {}

// NewRootWithHeader builds a Root whose Header is set explicitly. Parse never
// produces one of these itself; it exists for callers that assemble several
// parsed documents into one page tree.
func NewRootWithHeader(header *Directive, children []Node) *Root {
	return &Root{Header: header, Children: children}
}

// AsDirective reports whether n is a *Directive.
func AsDirective(n Node) (*Directive, bool) { d, ok := n.(*Directive); return d, ok }

// AsSection reports whether n is a *Section.
func AsSection(n Node) (*Section, bool) { s, ok := n.(*Section); return s, ok }

// AsLine reports whether n is a *Line.
func AsLine(n Node) (*Line, bool) { l, ok := n.(*Line); return l, ok }

// AsEllipsis reports whether n is an *Ellipsis.
func AsEllipsis(n Node) (*Ellipsis, bool) { e, ok := n.(*Ellipsis); return e, ok }

// Clone returns a deep, structurally independent copy of n. Reference
// inlining (internal/resolve) must clone rather than alias so that later
// preprocess mutation of the copy never reaches the original subtree.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Root:
		var header *Directive
		if v.Header != nil {
			header = Clone(v.Header).(*Directive)
		}
		return &Root{Header: header, Children: cloneChildren(v.Children)}
	case *Directive:
		return &Directive{Name: v.Name, Props: v.Props.Clone(), Children: cloneChildren(v.Children), Marker: v.Marker}
	case *Section:
		return &Section{Props: v.Props.Clone(), Children: cloneChildren(v.Children), Marker: v.Marker}
	case *Line:
		l := *v
		return &l
	case *Ellipsis:
		return &Ellipsis{}
	default:
		panic("block: unknown node type in Clone")
	}
}

func cloneChildren(children []Node) []Node {
	if children == nil {
		return nil
	}
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = Clone(c)
	}
	return out
}
