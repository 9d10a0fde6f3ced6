package idl

import "github.com/roach88/idlgen/internal/registry"

// Patch returns a copy of doc whose top-level metadata is replaced by meta.
//
// Anchor 0.29 and older emit no metadata section, and the ingester needs the
// program address and origin from it. The registry is authoritative: any
// metadata already present in doc is discarded, not merged. The copy is
// shallow and doc itself is left untouched.
func Patch(doc Document, meta registry.Metadata) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[MetadataKey] = map[string]any{
		"address": meta.Address,
		"origin":  meta.Origin,
	}
	return out
}
