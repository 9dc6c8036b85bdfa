package engine

import (
	"fmt"
	"strings"

	"murkdown/internal/block"
	"murkdown/internal/lang"
)

// RuleMatchError reports that no rule in the active ruleset's phase matched
// a node's ancestry path (spec §7). It is only ever returned when Walk is
// called with strict=true; otherwise the node falls back to passthrough
// output and the walk continues.
type RuleMatchError struct {
	Path string
}

func (e *RuleMatchError) Error() string {
	return "murkdown: no rule matched node at path " + e.Path
}

// Walk runs one full pre-order pass — either Preprocess or Compile — over
// root's children against rs, per spec §4.D. A Preprocess Walk first runs
// resolveReferences, splicing any resolvable src=/ref= before the tree is
// matched against rules at all, then proceeds as usual; callers discard the
// returned string (the pass mutates root in place plus state.Artifacts).
// Compile callers use the returned string as the document's output.
func Walk(root *block.Root, rs *lang.Ruleset, phase lang.Phase, state *State, strict bool) (string, error) {
	if phase == lang.PhasePreprocess {
		if err := resolveReferences(root, state); err != nil {
			return "", err
		}
	}
	return walkChildren(root.Children, nil, "", rs, phase, state, strict)
}

func walkChildren(children []block.Node, ancestry []lang.PathToken, marker string, rs *lang.Ruleset, phase lang.Phase, state *State, strict bool) (string, error) {
	return walkChildrenFrom(children, 0, ancestry, marker, rs, phase, state, strict)
}

func walkChildrenFrom(children []block.Node, startSibling int, ancestry []lang.PathToken, marker string, rs *lang.Ruleset, phase lang.Phase, state *State, strict bool) (string, error) {
	var out strings.Builder
	for i, child := range children {
		s, err := walkNode(child, ancestry, startSibling+i, marker, rs, phase, state, strict)
		if err != nil {
			return "", err
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

// walkParagraphs implements the IS PARAGRAPHABLE flag (spec §8, S6): runs of
// adjacent non-blank Lines under a [SEC] are coalesced into one <p>..</p>
// (or, off HTML media, simply concatenated); a blank Line (an empty payload
// under the section's own marker, per internal/block's parser) ends the
// current paragraph. Non-Line children never join a paragraph — they flush
// whatever came before and render on their own.
func walkParagraphs(children []block.Node, ancestry []lang.PathToken, marker string, rs *lang.Ruleset, phase lang.Phase, state *State, strict bool) (string, error) {
	var out strings.Builder
	var group []block.Node
	sibling := 0

	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		inner, err := walkChildrenFrom(group, sibling, ancestry, marker, rs, phase, state, strict)
		if err != nil {
			return err
		}
		sibling += len(group)
		group = nil
		if rs.MediaType == "text/html" {
			out.WriteString("<p>\n")
			out.WriteString(inner)
			out.WriteString("</p>\n")
		} else {
			out.WriteString(inner)
		}
		return nil
	}

	for _, child := range children {
		if line, ok := child.(*block.Line); ok && line.Text == "" {
			if err := flush(); err != nil {
				return "", err
			}
			sibling++
			continue
		}
		if _, ok := child.(*block.Line); !ok {
			if err := flush(); err != nil {
				return "", err
			}
			s, err := walkNode(child, ancestry, sibling, marker, rs, phase, state, strict)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			sibling++
			continue
		}
		group = append(group, child)
	}
	if err := flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func appendPath(ancestry []lang.PathToken, tok lang.PathToken) []lang.PathToken {
	path := make([]lang.PathToken, len(ancestry)+1)
	copy(path, ancestry)
	path[len(ancestry)] = tok
	return path
}

func pathKey(path []lang.PathToken) string {
	var sb strings.Builder
	for _, t := range path {
		switch t.Kind {
		case lang.TokDirective:
			sb.WriteString("D:")
			sb.WriteString(t.Name)
		case lang.TokSection:
			sb.WriteString("S")
		case lang.TokLine:
			sb.WriteString("L")
		}
		sb.WriteByte('/')
	}
	return sb.String()
}

func walkNode(node block.Node, ancestry []lang.PathToken, sibling int, marker string, rs *lang.Ruleset, phase lang.Phase, state *State, strict bool) (string, error) {
	switch n := node.(type) {
	case *block.Ellipsis:
		// resolveReferences splices a resolvable src=/ref= at preprocess
		// time; a live Ellipsis here is one that pass left in place (no
		// Resolver configured, an exec: reference, or no src=/ref= to
		// resolve), so there is nothing to emit for it.
		return "", nil

	case *block.Line:
		path := appendPath(ancestry, lang.LineToken())
		ctx := &Context{
			LineText: n.Text,
			Marker:   marker,
			Sibling:  sibling,
			Token:    StableToken(pathKey(path), ""),
			Media:    rs.MediaType,
			Scratch:  map[string]string{},
			Stacks:   state.Stacks,
		}
		out, matched, err := matchAndRun(rs.Rules(phase), path, ctx, state, nil)
		if err != nil {
			return "", err
		}
		if !matched {
			if strict {
				return "", &RuleMatchError{Path: pathKey(path)}
			}
			return passthroughLine(n.Text, rs.MediaType), nil
		}
		return out, nil

	case *block.Section:
		path := appendPath(ancestry, lang.SectionToken())
		scratch := NewScratch(n.Props)
		ctx := &Context{
			Marker:  n.Marker,
			Sibling: sibling,
			Token:   StableToken(pathKey(path), ""),
			Media:   rs.MediaType,
			Scratch: scratch,
			Stacks:  state.Stacks,
		}
		rule := rs.Match(phase, path)
		yield := func() (string, error) {
			return walkChildren(n.Children, path, n.Marker, rs, phase, state, strict)
		}
		if rule != nil && rule.Is(lang.FlagParagraphable) {
			yield = func() (string, error) {
				return walkParagraphs(n.Children, path, n.Marker, rs, phase, state, strict)
			}
		}
		out, matched, err := matchAndRun(rs.Rules(phase), path, ctx, state, yield)
		if err != nil {
			return "", err
		}
		if !matched {
			if strict {
				return "", &RuleMatchError{Path: pathKey(path)}
			}
			inner, err := yield()
			if err != nil {
				return "", err
			}
			return passthroughContainer(inner, rs.MediaType), nil
		}
		return out, nil

	case *block.Directive:
		path := appendPath(ancestry, lang.DirectiveToken(n.Name))
		id, _ := n.Props.Get("id")
		scratch := NewScratch(n.Props)
		ctx := &Context{
			Marker:  n.Marker,
			Sibling: sibling,
			Token:   StableToken(pathKey(path), id),
			Media:   rs.MediaType,
			Scratch: scratch,
			Stacks:  state.Stacks,
		}
		yield := func() (string, error) {
			return walkChildren(n.Children, path, n.Marker, rs, phase, state, strict)
		}
		out, matched, err := matchAndRun(rs.Rules(phase), path, ctx, state, yield)
		if err != nil {
			return "", err
		}
		if !matched {
			if strict {
				return "", &RuleMatchError{Path: pathKey(path)}
			}
			inner, err := yield()
			if err != nil {
				return "", err
			}
			return passthroughContainer(inner, rs.MediaType), nil
		}
		return out, nil

	default:
		return "", nil
	}
}

// matchAndRun runs the first matching rule and, while it declares
// COMPOSABLE, keeps searching from just after it for another match against
// the same path (spec §4.D: "after this rule runs, re-match the same node
// against subsequent rules"). It returns matched=false only when nothing in
// rules ever matched.
func matchAndRun(rules []*lang.Rule, path []lang.PathToken, ctxBase *Context, state *State, yield YieldFunc) (string, bool, error) {
	var out strings.Builder
	matched := false
	from := 0
	for {
		rule, idx := findMatch(rules, path, from)
		if rule == nil {
			break
		}
		matched = true
		ctx := *ctxBase
		ctx.Unescaped = rule.Is(lang.FlagUnescapedValue)
		if rule.Is(lang.FlagRefByCopy) {
			if state.RefCopy == nil {
				return "", matched, fmt.Errorf("murkdown: rule at %q is IS REF-BY-COPY but no RefCopier is configured", pathKey(path))
			}
			copied, err := state.RefCopy.CopyRef(ctx.Scratch["src"], ctx.Media)
			if err != nil {
				return "", matched, err
			}
			ctx.Scratch["copied"] = copied
		}
		s, err := Eval(rule.Commands, &ctx, state, yield)
		if err != nil {
			return "", matched, err
		}
		out.WriteString(s)
		if !rule.Is(lang.FlagComposable) {
			break
		}
		from = idx + 1
	}
	return out.String(), matched, nil
}

func findMatch(rules []*lang.Rule, path []lang.PathToken, from int) (*lang.Rule, int) {
	for i := from; i < len(rules); i++ {
		if rules[i].Pattern.MatchPath(path) {
			return rules[i], i
		}
	}
	return nil, -1
}

// passthroughLine and passthroughContainer implement the RuleMatchError
// fallback (spec §7): a <div> wrapper for HTML media, or the content as-is
// for anything else (Markdown just wants its raw lines back).
func passthroughLine(text, media string) string {
	if media == "text/html" {
		return "<div>" + escapeValue(text, &Context{Media: media}) + "</div>"
	}
	return text + "\n"
}

func passthroughContainer(inner, media string) string {
	if media == "text/html" {
		return "<div>" + inner + "</div>"
	}
	return inner
}
