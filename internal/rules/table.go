// Package rules embeds the bundled ruleset table (spec §6): named,
// pre-written `.lang` files an `--as <alias>` build can select without the
// user supplying their own rule file. Grounded on spec.md §1's own
// non-goal — "bundled CSS and CDN URLs" are explicitly out of scope — so
// these rulesets emit bare, unstyled markup and leave presentation to
// whatever the caller wraps the output in.
package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"murkdown/internal/lang"
)

//go:embed html.lang
var htmlSrc string

//go:embed markdown.lang
var markdownSrc string

// aliasSources maps a normalized `--as` alias (spec §6: "lowercased and
// space-normalised") to the embedded .lang source it resolves to.
var aliasSources = map[string]string{
	"simple website": htmlSrc,
	"markdown":       markdownSrc,
}

// Normalize lowercases and collapses runs of whitespace in an alias, the
// same transform the CLI applies before looking an alias up (spec §6).
func Normalize(alias string) string {
	fields := strings.Fields(strings.ToLower(alias))
	return strings.Join(fields, " ")
}

// Load returns the parsed Ruleset for alias, or an error naming the
// available aliases if it isn't in the bundled table.
func Load(alias string) (*lang.Ruleset, error) {
	src, ok := aliasSources[Normalize(alias)]
	if !ok {
		return nil, fmt.Errorf("rules: unknown bundled ruleset %q (available: %s)", alias, strings.Join(Aliases(), ", "))
	}
	return lang.Parse(Normalize(alias)+".lang", src)
}

// Aliases returns every bundled alias, sorted for deterministic error
// messages and the interactive ruleset picker.
func Aliases() []string {
	names := make([]string, 0, len(aliasSources))
	for k := range aliasSources {
		names = append(names, k)
	}
	// Small, fixed set: an insertion sort reads clearer here than pulling in
	// sort for two elements, and stays correct if a third alias is added.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}
