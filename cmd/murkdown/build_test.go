package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"murkdown/internal/block"
	"murkdown/internal/engine"
	"murkdown/internal/graph"
	"murkdown/internal/lang"
	"murkdown/internal/subproc"
)

func TestExitCodeForUserErrorIsOne(t *testing.T) {
	err := &userError{&block.ParseError{}}
	if got := exitCodeFor(err); got != 1 {
		t.Fatalf("exitCodeFor(userError) = %d, want 1", got)
	}
}

func TestExitCodeForExecErrorIsTwo(t *testing.T) {
	err := &subproc.ExecError{Cmd: "false", ExitCode: 1}
	if got := exitCodeFor(err); got != 2 {
		t.Fatalf("exitCodeFor(ExecError) = %d, want 2", got)
	}
}

func TestExitCodeForUpstreamCancelledIs130(t *testing.T) {
	err := &graph.UpstreamCancelledError{Task: "doc"}
	if got := exitCodeFor(err); got != 130 {
		t.Fatalf("exitCodeFor(UpstreamCancelledError) = %d, want 130", got)
	}
}

func TestExitCodeForRuleMatchErrorIsOne(t *testing.T) {
	err := &engine.RuleMatchError{Path: "[FOO]"}
	if got := exitCodeFor(err); got != 1 {
		t.Fatalf("exitCodeFor(RuleMatchError) = %d, want 1", got)
	}
}

func TestExitCodeForNilIsZero(t *testing.T) {
	if got := exitCodeFor(nil); got != 0 {
		t.Fatalf("exitCodeFor(nil) = %d, want 0", got)
	}
}

func TestOutputExtension(t *testing.T) {
	cases := []struct {
		media string
		want  string
	}{
		{"text/html", ".html"},
		{"text/markdown", ".md"},
		{"text/plain", ".txt"},
		{"application/unknown", ".html"},
	}
	for _, c := range cases {
		if got := outputExtension(c.media); got != c.want {
			t.Fatalf("outputExtension(%q) = %q, want %q", c.media, got, c.want)
		}
	}
}

func TestAddCrossDocumentDependenciesWiresRefToMatchingDocument(t *testing.T) {
	props := block.NewProps()
	props.Set("ref", "b")
	docA := &document{id: "a", path: "a.md", root: &block.Root{
		Children: []block.Node{&block.Directive{Name: "INCLUDE", Props: props}},
	}}
	docB := &document{id: "b", path: "b.md", root: &block.Root{}}

	g := graph.New()
	g.InsertNode(&graph.Task{ID: graph.ID(docA.path), Run: func() (string, error) { return "", nil }})
	g.InsertNode(&graph.Task{ID: graph.ID(docB.path), Run: func() (string, error) { return "", nil }})

	addCrossDocumentDependencies(g, []*document{docA, docB})

	deps := g.Dependencies(graph.ID(docA.path))
	if len(deps) != 1 || deps[0] != graph.ID(docB.path) {
		t.Fatalf("Dependencies(a) = %v, want [b.md]", deps)
	}
}

func TestAddCrossDocumentDependenciesIgnoresUnmatchedRef(t *testing.T) {
	props := block.NewProps()
	props.Set("ref", "nonexistent")
	docA := &document{id: "a", path: "a.md", root: &block.Root{
		Children: []block.Node{&block.Directive{Name: "INCLUDE", Props: props}},
	}}

	g := graph.New()
	g.InsertNode(&graph.Task{ID: graph.ID(docA.path), Run: func() (string, error) { return "", nil }})

	addCrossDocumentDependencies(g, []*document{docA})

	if deps := g.Dependencies(graph.ID(docA.path)); len(deps) != 0 {
		t.Fatalf("Dependencies(a) = %v, want none", deps)
	}
}

func TestRefCopyAdapterCopiesFromDocumentDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/logo.png", []byte("fake-png-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	outDir := t.TempDir()
	a := &refCopyAdapter{baseDir: dir, outputDir: outDir}

	got, err := a.CopyRef("logo.png", "image/png")
	if err != nil {
		t.Fatalf("CopyRef: %v", err)
	}
	if got != "assets/logo.png" {
		t.Fatalf("CopyRef = %q, want %q", got, "assets/logo.png")
	}
}

func TestRefCopyAdapterMissingSourceErrors(t *testing.T) {
	a := &refCopyAdapter{baseDir: t.TempDir(), outputDir: t.TempDir()}
	if _, err := a.CopyRef("missing.png", "image/png"); err == nil {
		t.Fatalf("want error for missing source file")
	}
}

// TestExecAdapterDedupsIdenticalCommandAcrossDocuments proves EXEC
// at-most-once (spec §8 property 4) end to end: two documents, each with
// their own EXEC directive, share one execDedup and issue the same command
// against the same stdin. The real subprocess (grounded on subproc's own
// no-mocking test style — see internal/subproc/runner_test.go) appends a
// line to a marker file every time it actually runs, so the file's line
// count is a direct witness of how many times the process executed.
func TestExecAdapterDedupsIdenticalCommandAcrossDocuments(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker.txt")
	cmdLine := fmt.Sprintf(`sh -c "echo ran >> %s"`, marker)

	rules := "RULES FOR test PRODUCE text/plain\n" +
		"\n" +
		"PREPROCESS RULES:\n" +
		"[EXEC][SEC]LINE$\n" +
		"  EXEC \"\\v\" TO text/plain AS \"run\"\n" +
		"\n" +
		"COMPILE RULES:\n" +
		"[EXEC]$\n" +
		"  NOOP\n" +
		"[SEC]$\n" +
		"  NOOP\n" +
		"LINE$\n" +
		"  NOOP\n"
	rs, err := lang.Parse("<test>", rules)
	if err != nil {
		t.Fatalf("lang.Parse: %v", err)
	}

	docA, err := block.Parse("> [!EXEC]\n> " + cmdLine + "\n")
	if err != nil {
		t.Fatalf("block.Parse docA: %v", err)
	}
	docB, err := block.Parse("> [!EXEC]\n> " + cmdLine + "\n")
	if err != nil {
		t.Fatalf("block.Parse docB: %v", err)
	}

	runner := subproc.NewRunner(2)
	dedup := newExecDedup()

	for _, root := range []*block.Root{docA.Root, docB.Root} {
		state := engine.NewState(&execAdapter{runner: runner, dir: dir, dedup: dedup})
		if _, err := engine.Walk(root, rs, lang.PhasePreprocess, state, false); err != nil {
			t.Fatalf("preprocess Walk: %v", err)
		}
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("ReadFile marker: %v", err)
	}
	got := string(data)
	if got != "ran\n" {
		t.Fatalf("want the marker command to have run exactly once, got %q", got)
	}
}
