package rules

import (
	"strings"
	"testing"

	"murkdown/internal/block"
	"murkdown/internal/engine"
	"murkdown/internal/lang"
)

func TestNormalizeCollapsesWhitespaceAndCase(t *testing.T) {
	if got := Normalize("  Simple   Website "); got != "simple website" {
		t.Fatalf("Normalize = %q, want %q", got, "simple website")
	}
}

func TestLoadUnknownAliasListsAvailable(t *testing.T) {
	_, err := Load("no such ruleset")
	if err == nil {
		t.Fatalf("want error for unknown alias")
	}
	if !strings.Contains(err.Error(), "simple website") || !strings.Contains(err.Error(), "markdown") {
		t.Fatalf("error %q should list available aliases", err)
	}
}

func TestAliasesSorted(t *testing.T) {
	names := Aliases()
	if len(names) != 2 {
		t.Fatalf("Aliases() = %v, want 2 entries", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Fatalf("Aliases() = %v, not sorted", names)
		}
	}
}

func compileHTML(t *testing.T, src string) string {
	t.Helper()
	rs, err := Load("simple website")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := block.Parse(src)
	if err != nil {
		t.Fatalf("block.Parse: %v", err)
	}
	state := engine.NewState(nil)
	out, err := engine.Walk(res.Root, rs, lang.PhaseCompile, state, false)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return out
}

func TestBundledHTMLCodeBlock(t *testing.T) {
	out := compileHTML(t, "> [!CODE](language=\"python\" id=\"f\")\n> def f(): pass\n")
	want := `<pre class="code "><code class="language-python">def f(): pass
</code></pre>`
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

func TestBundledHTMLTipParagraph(t *testing.T) {
	out := compileHTML(t, "> [!TIP]\n> hello\n")
	want := "<div class=\"tip\">\n<p>\nhello\n</p>\n</div>\n"
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

func TestBundledHTMLParagraphableSplitsOnBlankLine(t *testing.T) {
	out := compileHTML(t, "> [!NOTE]\n> one\n> two\n>\n> three\n")
	want := "<div class=\"note\">\n<p>\none\ntwo\n</p>\n<p>\nthree\n</p>\n</div>\n"
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

func TestBundledHTMLTabsProducesInputPerCodeBlock(t *testing.T) {
	out := compileHTML(t, "> [!TABS]\n"+
		">> [!CODE](language=\"go\" id=\"a\")\n"+
		">>> fmt.Println(1)\n"+
		">> [!CODE](language=\"go\" id=\"b\")\n"+
		">>> fmt.Println(2)\n")
	if !strings.Contains(out, `<div class="tabs">`) {
		t.Fatalf("missing tabs wrapper: %q", out)
	}
	if strings.Count(out, `type="radio"`) != 2 {
		t.Fatalf("want 2 radio inputs, got: %q", out)
	}
	if strings.Count(out, `class="tabs tabs-content"`) != 2 {
		t.Fatalf("want 2 content divs, got: %q", out)
	}
	if !strings.Contains(out, "fmt.Println(1)") || !strings.Contains(out, "fmt.Println(2)") {
		t.Fatalf("missing code contents: %q", out)
	}
}

func TestBundledHTMLExecProducesNoLiteralOutput(t *testing.T) {
	rs, err := Load("simple website")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := block.Parse("> [!EXEC]\n> echo hi\n")
	if err != nil {
		t.Fatalf("block.Parse: %v", err)
	}
	state := engine.NewState(&stubExecutor{result: "hi\n"})
	if _, err := engine.Walk(res.Root, rs, lang.PhasePreprocess, state, false); err != nil {
		t.Fatalf("preprocess Walk: %v", err)
	}
	if got := state.Artifacts["run"]; got != "hi\n" {
		t.Fatalf("Artifacts[run] = %q, want %q", got, "hi\n")
	}

	out, err := engine.Walk(res.Root, rs, lang.PhaseCompile, state, false)
	if err != nil {
		t.Fatalf("compile Walk: %v", err)
	}
	if strings.Contains(out, "EXEC") || strings.TrimSpace(out) != "" {
		t.Fatalf("want no literal EXEC output, got %q", out)
	}
}

type stubExecutor struct {
	result string
}

func (s *stubExecutor) Exec(cmd, stdin, media, name string) (string, error) {
	return s.result, nil
}

func TestBundledHTMLRefByCopy(t *testing.T) {
	rs, err := Load("simple website")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := block.Parse("[!](src=\"logo.png\" alt=\"Logo\")\n")
	if err != nil {
		t.Fatalf("block.Parse: %v", err)
	}
	state := engine.NewState(nil)
	state.RefCopy = &stubCopier{}
	out, err := engine.Walk(res.Root, rs, lang.PhaseCompile, state, true)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := `<img src="assets/logo.png" alt="Logo">`
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

func compileMarkdown(t *testing.T, src string) string {
	t.Helper()
	rs, err := Load("markdown")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := block.Parse(src)
	if err != nil {
		t.Fatalf("block.Parse: %v", err)
	}
	state := engine.NewState(nil)
	out, err := engine.Walk(res.Root, rs, lang.PhaseCompile, state, false)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return out
}

func TestBundledMarkdownCodeFence(t *testing.T) {
	out := compileMarkdown(t, "> [!CODE](language=\"go\" id=\"a\")\n> fmt.Println(1)\n")
	want := "```go\nfmt.Println(1)\n```\n"
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

func TestBundledMarkdownTipQuotesLines(t *testing.T) {
	out := compileMarkdown(t, "> [!TIP]\n> hello\n> world\n")
	want := "> hello\n> world\n"
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}

type stubCopier struct{}

func (stubCopier) CopyRef(src, media string) (string, error) {
	return "assets/" + src, nil
}
