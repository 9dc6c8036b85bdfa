package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"murkdown/internal/block"
	"murkdown/internal/config"
	"murkdown/internal/engine"
	"murkdown/internal/graph"
	"murkdown/internal/lang"
	"murkdown/internal/mdlog"
	"murkdown/internal/resolve"
	"murkdown/internal/rules"
	"murkdown/internal/subproc"
)

// userError marks a failure that should exit 1 (spec §6: "1 on user
// error (parse/reference)"), as opposed to a subprocess failure (exit 2)
// or a plain cancellation (exit 130).
type userError struct{ err error }

func (u *userError) Error() string { return u.err.Error() }
func (u *userError) Unwrap() error { return u.err }

// exitCodeFor maps a build error to the process exit code spec §6 defines:
// 1 on user error (parse/reference), 2 on subprocess failure, 130 on
// cancellation.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	var ue *userError
	var ee *subproc.ExecError
	var pe *block.ParseError
	var re *resolve.UnresolvedReferenceError
	var ce *resolve.ReferenceCycleError
	var rme *engine.RuleMatchError
	var uc *graph.UpstreamCancelledError
	switch {
	case errors.As(err, &ue):
		return 1
	case errors.As(err, &ee):
		return 2
	case errors.As(err, &pe), errors.As(err, &re), errors.As(err, &ce), errors.As(err, &rme):
		return 1
	case errors.As(err, &uc):
		return 130
	default:
		return 1
	}
}

// execResult is the once-computed outcome of one distinct EXEC identity.
type execResult struct {
	once sync.Once
	out  string
	err  error
}

// execDedup enforces EXEC at-most-once (spec §8 property 4: "for any
// EXEC … AS k with identical stdin and command within one build, the
// subprocess is invoked exactly once"). It is shared by every document's
// execAdapter in a single buildAllReporting call, since the property is
// scoped to the whole build, not to one document.
type execDedup struct {
	mu   sync.Mutex
	seen map[string]*execResult
}

func newExecDedup() *execDedup {
	return &execDedup{seen: make(map[string]*execResult)}
}

// run returns key's cached result, computing it exactly once across however
// many callers race to request it first.
func (d *execDedup) run(key string, fn func() (string, error)) (string, error) {
	d.mu.Lock()
	r, ok := d.seen[key]
	if !ok {
		r = &execResult{}
		d.seen[key] = r
	}
	d.mu.Unlock()

	r.once.Do(func() {
		r.out, r.err = fn()
	})
	return r.out, r.err
}

// execAdapter implements engine.Executor over internal/subproc, bounding
// concurrent subprocesses at the Runner's semaphore (spec §4.E/§4.G) and
// deduplicating identical (cmd, stdin) pairs through the build's shared
// execDedup table.
type execAdapter struct {
	runner *subproc.Runner
	dir    string
	dedup  *execDedup
}

func (a *execAdapter) Exec(cmd, stdin, media, name string) (string, error) {
	key := cmd + "\x00" + stdin
	return a.dedup.run(key, func() (string, error) {
		return a.runner.Run(context.Background(), cmd, stdin, a.dir)
	})
}

// refCopyAdapter implements engine.RefCopier by reading the referenced file
// relative to the document's own directory and copying it into the output
// tree's assets directory via graph.WriteRefByCopy (spec §6/§8 S5).
type refCopyAdapter struct {
	baseDir   string
	outputDir string
}

func (a *refCopyAdapter) CopyRef(src, media string) (string, error) {
	data, err := os.ReadFile(filepath.Join(a.baseDir, src))
	if err != nil {
		return "", fmt.Errorf("murkdown: reading REF-BY-COPY source %q: %w", src, err)
	}
	return graph.WriteRefByCopy(a.outputDir, graph.Artifact{
		Name:    filepath.Base(src),
		Media:   media,
		Content: data,
	})
}

// document is one parsed input file plus the bookkeeping needed to build
// and write it.
type document struct {
	id   string // file stem, used as the resolve.DocumentRegistry key
	path string
	dir  string
	root *block.Root
}

func runBuild(paths []string) error {
	logger := mdlog.Discard()
	if flagLog == "tui" && len(paths) > 1 {
		return runBuildWithProgress(paths, logger)
	}
	return buildAll(paths, logger)
}

func buildAll(paths []string, logger *mdlog.Logger) error {
	return buildAllReporting(paths, logger, nil)
}

// buildAllReporting runs the same build as buildAll but, when report is
// non-nil, sends one call per finished document (success or failure) so a
// caller like the progress view can render live status.
func buildAllReporting(paths []string, logger *mdlog.Logger, report chan<- pathDoneMsg) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd, flagOutput, flagAs, flagSubprocCap)
	if err != nil {
		return &userError{err}
	}

	rs, err := rules.Load(cfg.Ruleset)
	if err != nil {
		return &userError{err}
	}

	docs, err := loadDocuments(paths)
	if err != nil {
		return err
	}

	docRegistry := resolve.NewDocumentRegistry()
	for _, d := range docs {
		if err := docRegistry.Register(d.id, d.root); err != nil {
			return &userError{err}
		}
	}

	runner := subproc.NewRunner(cfg.SubprocCap)
	artifacts := resolve.NewArtifactRegistry()

	dedup := newExecDedup()
	resolver := resolve.NewResolver(docRegistry, artifacts)

	g := graph.New()
	for _, d := range docs {
		d := d
		g.InsertNode(&graph.Task{
			ID: graph.ID(d.path),
			Run: func() (string, error) {
				return buildOne(d, rs, runner, resolver, artifacts, dedup, cfg, logger)
			},
		})
	}
	addCrossDocumentDependencies(g, docs)

	sched := graph.NewScheduler(g)
	ctx := context.Background()

	severest := 0
	failed := 0
	var worst error
	for _, d := range docs {
		out, err := sched.Run(ctx, graph.ID(d.path))
		if err == nil {
			err = writeOutput(d, out, cfg, rs.MediaType)
		}
		if report != nil {
			report <- pathDoneMsg{path: d.path, err: err}
		}
		if err != nil {
			logger.Errorf("build %s: %v", d.path, err)
			failed++
			if code := exitCodeFor(err); code > severest {
				severest = code
				worst = err
			}
			if !flagKeepGoing {
				return err
			}
			continue
		}
		logger.Infof("built %s", d.path)
	}
	if failed != 0 {
		return fmt.Errorf("murkdown: %d document(s) failed: %w", failed, worst)
	}
	return nil
}

func loadDocuments(paths []string) ([]*document, error) {
	docs := make([]*document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &userError{fmt.Errorf("murkdown: reading %s: %w", p, err)}
		}
		res, err := block.ParseFile(p, string(data))
		if err != nil {
			return nil, &userError{err}
		}
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		docs = append(docs, &document{
			id:   stem,
			path: p,
			dir:  filepath.Dir(p),
			root: res.Root,
		})
	}
	return docs, nil
}

// addCrossDocumentDependencies wires a document's build task to depend on
// any other input document its top-level directives name via a `src=` or
// `ref=` prop that resolve.ResolvePath matches to that document's id, so the
// scheduler runs referenced documents first (spec §4.G) and buildOne's
// preprocess splice (internal/engine/resolve.go) finds the referenced tree
// already registered when it resolves the same prop.
func addCrossDocumentDependencies(g *graph.Graph, docs []*document) {
	ids := make([]string, len(docs))
	byID := make(map[string]*document, len(docs))
	for i, d := range docs {
		ids[i] = d.id
		byID[d.id] = d
	}
	for _, d := range docs {
		for _, child := range d.root.Children {
			dir, ok := block.AsDirective(child)
			if !ok {
				continue
			}
			value, ok := dir.Props.Get("src")
			if !ok {
				value, ok = dir.Props.Get("ref")
			}
			if !ok || value == "" {
				continue
			}
			if match, ok := resolve.ResolvePath(value, ids, d.id); ok && match != d.id {
				if target, ok := byID[match]; ok {
					g.AddDependency(graph.ID(d.path), graph.ID(target.path))
				}
			}
		}
	}
}

func buildOne(d *document, rs *lang.Ruleset, runner *subproc.Runner, resolver *resolve.Resolver, artifacts *resolve.ArtifactRegistry, dedup *execDedup, cfg *config.Config, logger *mdlog.Logger) (string, error) {
	state := engine.NewState(&execAdapter{runner: runner, dir: d.dir, dedup: dedup})
	state.RefCopy = &refCopyAdapter{baseDir: d.dir, outputDir: outputDir(cfg)}
	state.Resolver = resolver
	state.DocID = d.id

	if _, err := engine.Walk(d.root, rs, lang.PhasePreprocess, state, false); err != nil {
		return "", err
	}
	for name, content := range state.Artifacts {
		if err := artifacts.Register(d.id+"/"+name, content); err != nil {
			logger.Warnf("artifact %q from %s already registered, keeping first", name, d.path)
		}
	}

	strict := !flagKeepGoing
	out, err := engine.Walk(d.root, rs, lang.PhaseCompile, state, strict)
	if err != nil {
		return "", err
	}
	return out, nil
}

func outputDir(cfg *config.Config) string {
	if cfg.Output == "stdout" {
		return "."
	}
	return cfg.Output
}

func writeOutput(d *document, out string, cfg *config.Config, media string) error {
	if cfg.Output == "stdout" {
		fmt.Println(out)
		return nil
	}
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return fmt.Errorf("murkdown: creating output dir: %w", err)
	}
	dest := filepath.Join(cfg.Output, d.id+outputExtension(media))
	if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
		return fmt.Errorf("murkdown: writing %s: %w", dest, err)
	}
	return nil
}

func outputExtension(media string) string {
	switch media {
	case "text/markdown":
		return ".md"
	case "text/plain":
		return ".txt"
	default:
		return ".html"
	}
}
