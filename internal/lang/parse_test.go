package lang

import "testing"

func TestParsePreambleAndSections(t *testing.T) {
	src := `RULES FOR markdown PRODUCE text/markdown

PREPROCESS RULES:
[SEC...]$
  IS PARAGRAPHABLE
  NOOP

COMPILE RULES:
LINE$
  WRITE "\v\n"
[...]$
  YIELD
`
	rs, err := Parse("markdown.lang", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rs.Name != "markdown" || rs.MediaType != "text/markdown" {
		t.Fatalf("want name=markdown media=text/markdown, got %q %q", rs.Name, rs.MediaType)
	}
	if len(rs.Preprocess) != 1 {
		t.Fatalf("want 1 preprocess rule, got %d", len(rs.Preprocess))
	}
	pre := rs.Preprocess[0]
	if !pre.Is(FlagParagraphable) {
		t.Fatalf("want PARAGRAPHABLE flag set")
	}
	if len(pre.Commands) != 1 || pre.Commands[0].Op != "NOOP" {
		t.Fatalf("want single NOOP command, got %#v", pre.Commands)
	}
	if len(rs.Compile) != 2 {
		t.Fatalf("want 2 compile rules, got %d", len(rs.Compile))
	}
	write := rs.Compile[0]
	if write.PathSrc != "LINE$" || len(write.Commands) != 1 || write.Commands[0].Op != "WRITE" {
		t.Fatalf("want LINE$ -> WRITE, got %#v", write)
	}
	if write.Commands[0].Args[0].Kind != ArgStr || write.Commands[0].Args[0].Str != `\v\n` {
		t.Fatalf("want raw WRITE arg %q, got %#v", `\v\n`, write.Commands[0].Args[0])
	}
}

func TestParseStripsBlockComments(t *testing.T) {
	src := `RULES FOR markdown PRODUCE text/markdown
/* this whole ruleset only handles the identity transform */
COMPILE RULES:
LINE$
  /* pass content through untouched */
  WRITE "\v\n"
`
	rs, err := Parse("markdown.lang", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rs.Compile) != 1 || len(rs.Compile[0].Commands) != 1 {
		t.Fatalf("want comments fully stripped, got %#v", rs.Compile)
	}
}

func TestParseExecCommand(t *testing.T) {
	src := `RULES FOR markdown PRODUCE text/markdown

PREPROCESS RULES:
[EXEC]$
  EXEC "\v" TO text/plain AS "run"
`
	rs, err := Parse("markdown.lang", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cmd := rs.Preprocess[0].Commands[0]
	if cmd.Op != "EXEC" {
		t.Fatalf("want EXEC, got %s", cmd.Op)
	}
	if len(cmd.Args) != 3 {
		t.Fatalf("want 3 args, got %d: %#v", len(cmd.Args), cmd.Args)
	}
	if cmd.Args[0].Kind != ArgStr || cmd.Args[0].Str != `\v` {
		t.Fatalf("want cmd arg %q, got %#v", `\v`, cmd.Args[0])
	}
	if cmd.Args[1].Kind != ArgRef || cmd.Args[1].Str != "text/plain" {
		t.Fatalf("want media ref text/plain, got %#v", cmd.Args[1])
	}
	if cmd.Args[2].Kind != ArgStr || cmd.Args[2].Str != "run" {
		t.Fatalf("want name arg \"run\", got %#v", cmd.Args[2])
	}
}

func TestParseMultipleFlags(t *testing.T) {
	src := `RULES FOR html PRODUCE text/html

COMPILE RULES:
[IMG]$
  IS REF-BY-COPY
  IS UNESCAPED_VALUE
  WRITE "<img src=\"$src\">"
`
	rs, err := Parse("html.lang", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := rs.Compile[0]
	if !r.Is(FlagRefByCopy) || !r.Is(FlagUnescapedValue) {
		t.Fatalf("want both flags set, got %#v", r.Flags)
	}
}

func TestParseRejectsMissingPreamble(t *testing.T) {
	_, err := Parse("bad.lang", "COMPILE RULES:\nLINE$\n  NOOP\n")
	if err == nil {
		t.Fatalf("want an error for a missing preamble")
	}
}

func TestParseRejectsIndentedLineWithNoOpenRule(t *testing.T) {
	src := "RULES FOR markdown PRODUCE text/markdown\n\nCOMPILE RULES:\n  WRITE \"oops\"\n"
	_, err := Parse("bad.lang", src)
	if err == nil {
		t.Fatalf("want an error for an indented line with no open rule")
	}
}
