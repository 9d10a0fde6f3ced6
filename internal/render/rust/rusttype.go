package rust

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/idlgen/internal/nodes"
)

var keywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "fn": true, "for": true, "if": true, "impl": true, "in": true,
	"let": true, "loop": true, "match": true, "mod": true, "move": true,
	"mut": true, "pub": true, "ref": true, "return": true, "static": true,
	"struct": true, "trait": true, "true": true, "type": true, "unsafe": true,
	"use": true, "where": true, "while": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true,
	"priv": true, "typeof": true, "unsized": true, "virtual": true, "yield": true,
	"try": true,
}

// fieldName is the snake_case Rust identifier for an IDL name.
func fieldName(name string) string {
	s := nodes.SnakeCase(name)
	if keywords[s] {
		return "r#" + s
	}
	return s
}

// typeName is the PascalCase Rust type identifier for an IDL name.
func typeName(name string) string {
	return nodes.PascalCase(name)
}

// imports collects the use declarations a file needs.
type imports struct {
	pubkey bool
	links  map[string]bool
	self   string // type defined by the file, never imported
}

func newImports(self string) *imports {
	return &imports{links: make(map[string]bool), self: self}
}

// lines renders the use block. External crates come first, then crate paths.
func (im *imports) lines(borsh bool) []string {
	var external, local []string
	if borsh {
		external = append(external, "use borsh::{BorshDeserialize, BorshSerialize};")
	}
	if im.pubkey {
		external = append(external, "use solana_program::pubkey::Pubkey;")
	}

	var links []string
	for l := range im.links {
		links = append(links, l)
	}
	slices.Sort(links)
	switch len(links) {
	case 0:
	case 1:
		local = append(local, fmt.Sprintf("use crate::generated::types::%s;", links[0]))
	default:
		local = append(local, fmt.Sprintf("use crate::generated::types::{%s};", strings.Join(links, ", ")))
	}

	var out []string
	out = append(out, external...)
	if len(external) > 0 && len(local) > 0 {
		out = append(out, "")
	}
	out = append(out, local...)
	return out
}

// rustType renders t and records the imports it needs.
func rustType(t nodes.TypeNode, im *imports) string {
	switch tt := t.(type) {
	case nodes.NumberType:
		return tt.Format
	case nodes.BoolType:
		return "bool"
	case nodes.StringType:
		return "String"
	case nodes.PublicKeyType:
		im.pubkey = true
		return "Pubkey"
	case nodes.BytesType:
		return "Vec<u8>"
	case nodes.OptionType:
		return "Option<" + rustType(tt.Item, im) + ">"
	case nodes.ArrayType:
		if tt.Size == 0 {
			return "Vec<" + rustType(tt.Item, im) + ">"
		}
		return fmt.Sprintf("[%s; %d]", rustType(tt.Item, im), tt.Size)
	case nodes.TupleType:
		parts := make([]string, len(tt.Items))
		for i, item := range tt.Items {
			parts[i] = rustType(item, im)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case nodes.LinkType:
		name := typeName(tt.Name)
		if name != im.self {
			im.links[name] = true
		}
		return name
	default:
		panic(fmt.Sprintf("rust: no inline rendering for %T", t))
	}
}

// hasFloat reports whether t contains an f32 or f64, which rules out
// deriving Eq. Links are not followed.
func hasFloat(t nodes.TypeNode) bool {
	switch tt := t.(type) {
	case nodes.NumberType:
		return tt.Format == "f32" || tt.Format == "f64"
	case nodes.OptionType:
		return hasFloat(tt.Item)
	case nodes.ArrayType:
		return hasFloat(tt.Item)
	case nodes.TupleType:
		return slices.ContainsFunc(tt.Items, hasFloat)
	case nodes.StructType:
		return fieldsHaveFloat(tt.Fields)
	case nodes.EnumType:
		for _, v := range tt.Variants {
			if slices.ContainsFunc(v.Tuple, hasFloat) || fieldsHaveFloat(v.Fields) {
				return true
			}
		}
	}
	return false
}

func fieldsHaveFloat(fields []nodes.Field) bool {
	return slices.ContainsFunc(fields, func(f nodes.Field) bool { return hasFloat(f.Type) })
}

// derives is the derive attribute for a borsh data type.
func derives(float bool) string {
	if float {
		return "#[derive(BorshSerialize, BorshDeserialize, Clone, Debug, PartialEq)]"
	}
	return "#[derive(BorshSerialize, BorshDeserialize, Clone, Debug, Eq, PartialEq)]"
}

// byteArray renders a discriminator literal.
func byteArray(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
