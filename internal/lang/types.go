// Package lang parses `.lang` rule files (spec §4.B) and matches ancestry
// paths against their compiled patterns (spec §4.C). It knows nothing about
// the block tree or the execution engine — internal/engine owns the
// interpretation of the Commands this package hands back.
package lang

// ArgKind classifies a Command argument.
type ArgKind int

const (
	ArgStr   ArgKind = iota // a quoted, possibly-interpolated string literal
	ArgInt                  // a bare integer literal
	ArgRef                  // a bare identifier: a stack/scratch key or a media-type token
)

// Arg is one argument to a Command.
type Arg struct {
	Kind ArgKind
	Str  string
	Int  int64
}

// Command is a single instruction from a rule's body, per spec §4.D.
type Command struct {
	Op   string
	Args []Arg
}

// Flag is one of the `IS <FLAG>` settings a rule may declare, per spec §4.D.
type Flag string

const (
	FlagComposable     Flag = "COMPOSABLE"
	FlagRefByCopy      Flag = "REF-BY-COPY"
	FlagParagraphable  Flag = "PARAGRAPHABLE"
	FlagUnescapedValue Flag = "UNESCAPED_VALUE"
)

// Rule is one Path + indented-block entry from a `.lang` file.
type Rule struct {
	PathSrc  string
	Pattern  *Pattern
	Flags    map[Flag]bool
	Commands []Command
}

// Is reports whether the rule declares flag f.
func (r *Rule) Is(f Flag) bool {
	return r.Flags[f]
}

// Ruleset is everything parsed out of one `.lang` file: its preamble and its
// two ordered rule lists. Order is preserved because Path Matching is
// first-match-wins (spec §4.B).
type Ruleset struct {
	Name       string
	MediaType  string
	Preprocess []*Rule
	Compile    []*Rule
}

// Phase selects which rule list of a Ruleset to search.
type Phase string

const (
	PhasePreprocess Phase = "PREPROCESS"
	PhaseCompile    Phase = "COMPILE"
)

// Rules returns the rule list for phase.
func (rs *Ruleset) Rules(phase Phase) []*Rule {
	if phase == PhasePreprocess {
		return rs.Preprocess
	}
	return rs.Compile
}

// Match returns the first rule in phase whose pattern matches path, and its
// settings, mirroring the Rust original's Lang::get_instructions — first
// rule found wins, and there is no match failure value, only a nil Rule.
func (rs *Ruleset) Match(phase Phase, path []PathToken) *Rule {
	for _, r := range rs.Rules(phase) {
		if r.Pattern.MatchPath(path) {
			return r
		}
	}
	return nil
}
