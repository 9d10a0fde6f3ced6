// Package registry holds the static table of generation targets.
//
// Each supported project has an Entry (where its IDL lives and where the
// generated client goes) and a Metadata record (the deployed program address
// and the toolchain that produced the IDL). The two tables are co-indexed:
// a Registry refuses to build when an id appears in only one of them.
//
// The built-in table is compiled into the binary from registry.cue. It is
// read-only once constructed; callers build it at startup and pass it down.
package registry

import (
	_ "embed"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed registry.cue
var builtinSource []byte

// Entry locates a project's IDL input and generated output.
type Entry struct {
	ID     string `json:"-"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Metadata is the patch applied to a project's IDL document.
type Metadata struct {
	ID      string `json:"-"`
	Address string `json:"address"`
	Origin  string `json:"origin"`
}

// ResolvedRequest is what Resolve returns for a known project.
type ResolvedRequest struct {
	Entry    Entry
	Metadata Metadata
}

// Registry maps project ids to their entries and metadata.
type Registry struct {
	entries   map[string]Entry
	metadata  map[string]Metadata
	defaultID string
}

// New builds a registry from explicit tables. The ID fields of the values
// are overwritten with their map keys.
//
// Returns *InconsistencyError if the tables are not co-indexed, and
// *UnknownProjectError if defaultID is set but not registered.
func New(entries map[string]Entry, metadata map[string]Metadata, defaultID string) (*Registry, error) {
	r := &Registry{
		entries:   make(map[string]Entry, len(entries)),
		metadata:  make(map[string]Metadata, len(metadata)),
		defaultID: defaultID,
	}
	for id, e := range entries {
		e.ID = id
		r.entries[id] = e
	}
	for id, m := range metadata {
		m.ID = id
		r.metadata[id] = m
	}

	if err := r.checkCoIndexed(); err != nil {
		return nil, err
	}
	if defaultID != "" {
		if _, ok := r.entries[defaultID]; !ok {
			return nil, &UnknownProjectError{ID: defaultID, Known: r.IDs()}
		}
	}
	return r, nil
}

// Builtin compiles the registry embedded in the binary.
func Builtin() (*Registry, error) {
	return Parse("registry.cue", builtinSource)
}

// Parse compiles a CUE registry source providing entries, metadata and an
// optional default_project. Constraints are only those the source declares;
// the built-in source carries the #Entry and #Metadata schema.
func Parse(filename string, src []byte) (*Registry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError("cue", err)
	}

	entries := make(map[string]Entry)
	if err := decodeTable(value, "entries", func(id string, v cue.Value) error {
		var e Entry
		if err := v.Decode(&e); err != nil {
			return err
		}
		entries[id] = e
		return nil
	}); err != nil {
		return nil, err
	}

	metadata := make(map[string]Metadata)
	if err := decodeTable(value, "metadata", func(id string, v cue.Value) error {
		var m Metadata
		if err := v.Decode(&m); err != nil {
			return err
		}
		metadata[id] = m
		return nil
	}); err != nil {
		return nil, err
	}

	var defaultID string
	if dv := value.LookupPath(cue.ParsePath("default_project")); dv.Exists() {
		s, err := dv.String()
		if err != nil {
			return nil, formatCUEError("default_project", err)
		}
		defaultID = s
	}

	return New(entries, metadata, defaultID)
}

func decodeTable(root cue.Value, field string, fn func(id string, v cue.Value) error) error {
	table := root.LookupPath(cue.ParsePath(field))
	if !table.Exists() {
		return &ConfigError{Field: field, Message: field + " is required", Pos: root.Pos()}
	}
	iter, err := table.Fields()
	if err != nil {
		return formatCUEError(field, err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return formatCUEError(field+"."+iter.Label(), err)
		}
	}
	return nil
}

func (r *Registry) checkCoIndexed() error {
	var inc InconsistencyError
	for id := range r.entries {
		if _, ok := r.metadata[id]; !ok {
			inc.MissingMetadata = append(inc.MissingMetadata, id)
		}
	}
	for id := range r.metadata {
		if _, ok := r.entries[id]; !ok {
			inc.MissingEntry = append(inc.MissingEntry, id)
		}
	}
	if len(inc.MissingMetadata) == 0 && len(inc.MissingEntry) == 0 {
		return nil
	}
	slices.Sort(inc.MissingMetadata)
	slices.Sort(inc.MissingEntry)
	return &inc
}

// LookupEntry returns the entry registered under exactly id.
func (r *Registry) LookupEntry(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// LookupMetadata returns the metadata registered under exactly id.
func (r *Registry) LookupMetadata(id string) (Metadata, bool) {
	m, ok := r.metadata[id]
	return m, ok
}

// IDs returns all registered project ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Default returns the project selected when none is given.
func (r *Registry) Default() string {
	return r.defaultID
}
