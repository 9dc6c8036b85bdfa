package graph

import (
	"context"
	"fmt"
	"sync"
)

// UpstreamCancelledError reports that id could not run because one of its
// dependencies failed or was itself cancelled (spec §5).
type UpstreamCancelledError struct {
	Task ID
}

func (e *UpstreamCancelledError) Error() string {
	return fmt.Sprintf("graph: %q cancelled: upstream dependency failed", e.Task)
}

type entry struct {
	done   chan struct{}
	result string
	err    error
}

// Scheduler runs a Graph's tasks with at-most-once execution per ID (spec
// §4.G: "an in-flight table keyed by task identity; duplicate requests await
// the same result"). Grounded on deeklead-horde/internal/daemon/daemon.go's
// context.WithCancel-plus-sync.Mutex shape — no task-graph or job-scheduler
// library appears anywhere in the retrieved corpus, so goroutines, channels,
// and a mutex-guarded map are the corpus's own idiom for this, used here in
// place of one.
type Scheduler struct {
	g        *Graph
	mu       sync.Mutex
	inflight map[ID]*entry
}

// NewScheduler returns a Scheduler over g.
func NewScheduler(g *Graph) *Scheduler {
	return &Scheduler{g: g, inflight: make(map[ID]*entry)}
}

// Run executes id's dependency subgraph and then id itself, or waits for and
// returns another in-flight caller's result if id is already running or has
// already finished. On failure, every direct and transitive dependent of id
// is marked with UpstreamCancelledError so it never actually runs (spec §5:
// "a task awaiting a cancelled dependency fails with UpstreamCancelled").
func (s *Scheduler) Run(ctx context.Context, id ID) (string, error) {
	s.mu.Lock()
	if e, ok := s.inflight[id]; ok {
		s.mu.Unlock()
		<-e.done
		return e.result, e.err
	}
	e := &entry{done: make(chan struct{})}
	s.inflight[id] = e
	s.mu.Unlock()

	result, err := s.execute(ctx, id)
	e.result, e.err = result, err
	close(e.done)
	if err != nil {
		s.cancelDependents(id)
	}
	return result, err
}

func (s *Scheduler) execute(ctx context.Context, id ID) (string, error) {
	task, ok := s.g.Get(id)
	if !ok {
		return "", fmt.Errorf("graph: unknown task %q", id)
	}

	deps := s.g.Dependencies(id)
	if len(deps) > 0 {
		errCh := make(chan error, len(deps))
		for _, d := range deps {
			d := d
			go func() {
				_, err := s.Run(ctx, d)
				errCh <- err
			}()
		}
		for range deps {
			if err := <-errCh; err != nil {
				return "", &UpstreamCancelledError{Task: id}
			}
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return task.Run()
}

// cancelDependents marks id's dependents (and theirs, transitively) as
// failed without ever running their Task.Run, so a later Scheduler.Run call
// against any of them returns the cached UpstreamCancelledError immediately.
func (s *Scheduler) cancelDependents(id ID) {
	for _, dep := range s.g.Dependents(id) {
		s.mu.Lock()
		if _, exists := s.inflight[dep]; exists {
			s.mu.Unlock()
			continue
		}
		e := &entry{done: make(chan struct{})}
		s.inflight[dep] = e
		s.mu.Unlock()

		e.err = &UpstreamCancelledError{Task: dep}
		close(e.done)
		s.cancelDependents(dep)
	}
}
