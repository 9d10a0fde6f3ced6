package nodes

import (
	"crypto/sha256"
	"log/slog"

	"github.com/roach88/idlgen/internal/idl"
)

// Origin tags with dedicated discriminator rules.
const (
	OriginAnchor = "anchor"
	OriginShank  = "shank"
)

// dialect holds the rules that differ between IDL producers. An explicit
// "discriminator" array in the document always takes precedence.
type dialect struct {
	instructionDiscriminator func(ix map[string]any, index int, path string) ([]byte, error)
	accountDiscriminator     func(name string) []byte
}

var dialects = map[string]dialect{
	OriginAnchor: {
		instructionDiscriminator: anchorInstructionDiscriminator,
		accountDiscriminator:     anchorAccountDiscriminator,
	},
	OriginShank: {
		instructionDiscriminator: shankInstructionDiscriminator,
		accountDiscriminator:     func(string) []byte { return nil },
	},
}

type ingestOptions struct {
	fallbackName string
}

// Option configures FromIDL.
type Option func(*ingestOptions)

// WithFallbackName names the program when the document does not. Anchor
// 0.30 keeps the name under metadata, which the registry patch replaces.
func WithFallbackName(name string) Option {
	return func(o *ingestOptions) {
		o.fallbackName = name
	}
}

// FromIDL ingests a metadata-patched document.
//
// The program public key is metadata.address (falling back to a top-level
// address) and metadata.origin selects the dialect. Origins without
// dedicated rules are ingested with the Anchor rules.
func FromIDL(doc idl.Document, opts ...Option) (*RootNode, error) {
	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}

	meta := doc.Metadata()
	if meta == nil {
		return nil, ingestErrorf(idl.MetadataKey, "missing; the document must be patched with registry metadata")
	}

	origin := str(meta, "origin")
	d, ok := dialects[origin]
	if !ok {
		slog.Warn("no ingestion rules for origin, using anchor rules", "origin", origin)
		d = dialects[OriginAnchor]
	}

	program := ProgramNode{
		Name:    str(doc, "name"),
		Version: str(doc, "version"),
		Origin:  origin,
		Docs:    strList(doc["docs"]),
	}
	if program.Name == "" {
		program.Name = o.fallbackName
	}
	if program.Name == "" {
		return nil, ingestErrorf("name", "program name missing")
	}

	program.PublicKey = str(meta, "address")
	if program.PublicKey == "" {
		program.PublicKey = str(doc, "address")
	}
	if program.PublicKey == "" {
		return nil, ingestErrorf("metadata.address", "program address missing")
	}

	types, err := parseDefinedTypes(doc["types"])
	if err != nil {
		return nil, err
	}

	accounts, consumed, err := parseAccounts(doc["accounts"], types, d)
	if err != nil {
		return nil, err
	}
	program.Accounts = accounts
	for _, dt := range types {
		if !consumed[dt.Name] {
			program.DefinedTypes = append(program.DefinedTypes, dt)
		}
	}

	program.Instructions, err = parseInstructions(doc["instructions"], d)
	if err != nil {
		return nil, err
	}

	program.Errors, err = parseErrors(doc["errors"])
	if err != nil {
		return nil, err
	}

	slog.Debug("ingested IDL",
		"program", program.Name,
		"origin", origin,
		"accounts", len(program.Accounts),
		"instructions", len(program.Instructions),
		"types", len(program.DefinedTypes),
		"errors", len(program.Errors),
	)

	return &RootNode{Program: program}, nil
}

// anchorInstructionDiscriminator is sha256("global:<snake_name>")[:8].
func anchorInstructionDiscriminator(ix map[string]any, _ int, _ string) ([]byte, error) {
	return sighash("global:" + SnakeCase(str(ix, "name"))), nil
}

// anchorAccountDiscriminator is sha256("account:<Name>")[:8].
func anchorAccountDiscriminator(name string) []byte {
	return sighash("account:" + name)
}

// shankInstructionDiscriminator reads {"discriminant": {"type": "u8", "value": n}}
// and falls back to the instruction's position.
func shankInstructionDiscriminator(ix map[string]any, index int, path string) ([]byte, error) {
	disc, ok := ix["discriminant"].(map[string]any)
	if !ok {
		return []byte{byte(index)}, nil
	}
	n, ok := toInt64(disc["value"])
	if !ok || n < 0 || n > 255 {
		return nil, ingestErrorf(path+".discriminant.value", "expected an integer in 0..255")
	}
	return []byte{byte(n)}, nil
}

func sighash(preimage string) []byte {
	sum := sha256.Sum256([]byte(preimage))
	return sum[:8]
}
