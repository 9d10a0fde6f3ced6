// Package idl loads interface description documents and patches them with
// registry metadata before generation.
//
// A Document is kept as the generic tree the decoder produced. Only the
// top-level metadata field has meaning here; everything else passes through
// to the ingester untouched.
package idl

import "github.com/roach88/idlgen/internal/canonical"

// MetadataKey is the top-level field Patch writes.
const MetadataKey = "metadata"

// Document is a decoded IDL. Numbers are json.Number so large integers
// (u64 discriminants, default values) survive decoding exactly.
type Document map[string]any

// Metadata returns the document's metadata object, or nil if it has none.
func (d Document) Metadata() map[string]any {
	m, _ := d[MetadataKey].(map[string]any)
	return m
}

// Hash returns the canonical content hash of the document.
func (d Document) Hash() (string, error) {
	return canonical.DocumentHash(d)
}
