// Package nodes is the generation graph between an IDL document and a
// renderer.
//
// FromIDL ingests a patched document into a RootNode. A Driver walks the
// graph in a fixed order and hands each node to a Visitor; renderers are
// visitors. Ingestion is where IDL dialects differ (see the origin tag in
// the document metadata); everything after it is dialect-free.
package nodes

// RootNode is the top of the graph. One program per document.
type RootNode struct {
	Program ProgramNode
}

// ProgramNode describes one deployed program.
type ProgramNode struct {
	Name         string
	PublicKey    string
	Version      string
	Origin       string
	Docs         []string
	Accounts     []AccountNode
	Instructions []InstructionNode
	DefinedTypes []DefinedTypeNode
	Errors       []ErrorNode
}

// AccountNode is an on-chain account layout.
type AccountNode struct {
	Name          string
	Docs          []string
	Discriminator []byte
	Data          StructType
}

// InstructionNode is a callable instruction with its accounts and arguments.
type InstructionNode struct {
	Name          string
	Docs          []string
	Discriminator []byte
	Accounts      []InstructionAccountNode
	Arguments     []Field
}

// InstructionAccountNode is one account slot of an instruction.
type InstructionAccountNode struct {
	Name     string
	Docs     []string
	Writable bool
	Signer   bool
	Optional bool
}

// DefinedTypeNode is a named type that other nodes link to.
type DefinedTypeNode struct {
	Name string
	Docs []string
	Type TypeNode
}

// ErrorNode is a program error code.
type ErrorNode struct {
	Code    int64
	Name    string
	Message string
}

// Field is a named, typed member of a struct, an account or an argument list.
type Field struct {
	Name string
	Docs []string
	Type TypeNode
}

// TypeNode is a sealed interface over the type shapes below.
type TypeNode interface {
	typeNode()
}

// NumberType is a fixed-width number. Format is one of u8..u128, i8..i128,
// f32 or f64.
type NumberType struct{ Format string }

// BoolType is a boolean.
type BoolType struct{}

// StringType is a length-prefixed UTF-8 string.
type StringType struct{}

// PublicKeyType is a 32-byte public key.
type PublicKeyType struct{}

// BytesType is a length-prefixed byte buffer.
type BytesType struct{}

// OptionType is an optional value.
type OptionType struct{ Item TypeNode }

// ArrayType is a list of Item. Size 0 means variable length.
type ArrayType struct {
	Item TypeNode
	Size int
}

// TupleType is an anonymous product of types.
type TupleType struct{ Items []TypeNode }

// StructType is a named product of fields.
type StructType struct{ Fields []Field }

// EnumType is a sum of variants.
type EnumType struct{ Variants []EnumVariant }

// EnumVariant is a unit variant when both Tuple and Fields are empty.
type EnumVariant struct {
	Name   string
	Tuple  []TypeNode
	Fields []Field
}

// IsUnit reports whether the variant carries no data.
func (v EnumVariant) IsUnit() bool {
	return len(v.Tuple) == 0 && len(v.Fields) == 0
}

// LinkType refers to a DefinedTypeNode by name.
type LinkType struct{ Name string }

func (NumberType) typeNode()    {}
func (BoolType) typeNode()      {}
func (StringType) typeNode()    {}
func (PublicKeyType) typeNode() {}
func (BytesType) typeNode()     {}
func (OptionType) typeNode()    {}
func (ArrayType) typeNode()     {}
func (TupleType) typeNode()     {}
func (StructType) typeNode()    {}
func (EnumType) typeNode()      {}
func (LinkType) typeNode()      {}
