package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/chzyer/readline"
	"github.com/ktr0731/go-fuzzyfinder"

	"murkdown/internal/mdlog"
	"murkdown/internal/rules"
)

// runInteractive drives `build --interactive`: pick a ruleset alias with
// go-fuzzyfinder when --as wasn't given, ask for the output directory and a
// yes/no confirmation with a huh form, build once, then re-run the build on
// each "rebuild" typed at a chzyer/readline prompt loop (spec §6 domain stack).
func runInteractive(paths []string) error {
	if flagAs == "" {
		alias, err := pickRuleset()
		if err != nil {
			return fmt.Errorf("murkdown: ruleset selection cancelled: %w", err)
		}
		flagAs = alias
	}

	if err := confirmBuildSettings(); err != nil {
		return fmt.Errorf("murkdown: build cancelled: %w", err)
	}

	logger := mdlog.Discard()
	if err := buildAll(paths, logger); err != nil {
		fmt.Println("build failed:", err)
	} else {
		fmt.Println("build ok")
	}

	return replLoop(paths, logger)
}

func pickRuleset() (string, error) {
	aliases := rules.Aliases()
	idx, err := fuzzyfinder.Find(
		aliases,
		func(i int) string { return aliases[i] },
		fuzzyfinder.WithPromptString("Select ruleset: "),
	)
	if err != nil {
		return "", err
	}
	return aliases[idx], nil
}

func confirmBuildSettings() error {
	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Value(&flagOutput),
			huh.NewConfirm().
				Title(fmt.Sprintf("Build with ruleset %q into %q?", flagAs, outputOrDefault())).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("user declined")
	}
	return nil
}

func outputOrDefault() string {
	if flagOutput == "" {
		return "."
	}
	return flagOutput
}

// replLoop re-runs build on the same paths each time "rebuild" is entered
// ("quit" or "exit" ends it; an empty line does nothing), a minimal
// stand-in for the interactive REPL spec.md §1 leaves to an external
// collaborator — only this CLI shell around it lives here.
func replLoop(paths []string, logger *mdlog.Logger) error {
	repl, err := readline.New("murkdown> ")
	if err != nil {
		return fmt.Errorf("murkdown: starting readline: %w", err)
	}
	defer repl.Close()

	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF (Ctrl-D) or Ctrl-C
			break
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "rebuild":
			if err := buildAll(paths, logger); err != nil {
				fmt.Println("build failed:", err)
				continue
			}
			fmt.Println("build ok")
		default:
			fmt.Println("unknown command; try \"rebuild\" or \"quit\"")
		}
	}
	return nil
}
