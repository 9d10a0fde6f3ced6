package registry

// Resolve looks up both halves of a project's registration.
//
// A missing entry is an *UnknownProjectError. An entry without metadata can
// only happen if the co-indexing check was bypassed; it is reported as an
// *InconsistencyError rather than returning a zero Metadata.
func (r *Registry) Resolve(id string) (ResolvedRequest, error) {
	entry, ok := r.LookupEntry(id)
	if !ok {
		return ResolvedRequest{}, &UnknownProjectError{ID: id, Known: r.IDs()}
	}
	meta, ok := r.LookupMetadata(id)
	if !ok {
		return ResolvedRequest{}, &InconsistencyError{MissingMetadata: []string{id}}
	}
	return ResolvedRequest{Entry: entry, Metadata: meta}, nil
}
