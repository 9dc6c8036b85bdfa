package resolve

import (
	"strings"
	"sync"

	"murkdown/internal/block"
)

// ErrAlreadyRegistered mirrors the teacher's ErrTypeAlreadyExists idiom
// (dsl/registry.go): registries are write-once per key so a later build step
// can never silently shadow an earlier document or artifact.
type ErrAlreadyRegistered string

func (e ErrAlreadyRegistered) Error() string {
	return "resolve: " + string(e) + " is already registered"
}

// DocumentRegistry maps a document id (its file stem, spec §4.F) to its
// parsed tree. Reads and writes are guarded by a mutex so registration from
// one document's preprocess pass never races a lookup from another's (spec
// §5: "readers never see partial entries; publication is atomic").
type DocumentRegistry struct {
	mu   sync.RWMutex
	docs map[string]*block.Root
}

func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{docs: make(map[string]*block.Root)}
}

func (r *DocumentRegistry) Register(id string, root *block.Root) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[id]; exists {
		return ErrAlreadyRegistered(id)
	}
	r.docs[id] = root
	return nil
}

func (r *DocumentRegistry) Get(id string) (*block.Root, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	return d, ok
}

// IDs returns every registered document id. The caller must not mutate it.
func (r *DocumentRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	return ids
}

// ArtifactRegistry maps an artifact name (cmd/murkdown registers each
// `EXEC ... AS "name"` result as "<document id>/name") to its bytes.
type ArtifactRegistry struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewArtifactRegistry() *ArtifactRegistry {
	return &ArtifactRegistry{data: make(map[string]string)}
}

func (r *ArtifactRegistry) Register(name, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[name]; exists {
		return ErrAlreadyRegistered(name)
	}
	r.data[name] = content
	return nil
}

func (r *ArtifactRegistry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[name]
	return v, ok
}

func (r *ArtifactRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.data))
	for k := range r.data {
		names = append(names, k)
	}
	return names
}

// ResultKind classifies what a Resolver.Resolve call found.
type ResultKind int

const (
	ExecPending ResultKind = iota
	ArtifactHit
	DocumentHit
)

// Result is the outcome of resolving one `src=`/`ref=` prop value.
type Result struct {
	Kind     ResultKind
	ExecName string
	Artifact string
	Document *block.Root
}

// Resolver ties the two registries together into the search spec §4.F
// describes: exec: dependency, else artifact registry, else document
// registry, each searched by ResolvePath so a bare fragment like "#id" or a
// bare filename can match a sibling or root-level entry, not just an exact
// key.
type Resolver struct {
	Docs      *DocumentRegistry
	Artifacts *ArtifactRegistry
}

func NewResolver(docs *DocumentRegistry, artifacts *ArtifactRegistry) *Resolver {
	return &Resolver{Docs: docs, Artifacts: artifacts}
}

// Resolve resolves src as seen from context (the referencing document's id,
// or its id plus a path fragment for nested resolution).
func (rz *Resolver) Resolve(src, context string) (*Result, error) {
	if name, ok := strings.CutPrefix(src, "exec:"); ok {
		return &Result{Kind: ExecPending, ExecName: name}, nil
	}
	if key, ok := ResolvePath(src, rz.Artifacts.Names(), context); ok {
		content, _ := rz.Artifacts.Get(key)
		return &Result{Kind: ArtifactHit, Artifact: content}, nil
	}
	if key, ok := ResolvePath(src, rz.Docs.IDs(), context); ok {
		doc, _ := rz.Docs.Get(key)
		return &Result{Kind: DocumentHit, Document: doc}, nil
	}
	return nil, &UnresolvedReferenceError{Name: src, Context: context}
}
