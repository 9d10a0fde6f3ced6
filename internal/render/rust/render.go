// Package rust renders a generation graph into Rust client sources.
//
// The layout matches what Solana client crates expect under src/generated:
//
//	mod.rs
//	programs.rs            program id constant
//	accounts/<name>.rs     account layouts with discriminators
//	instructions/<name>.rs account structs, instruction builders, args
//	types/<name>.rs        defined types
//	errors/<program>.rs    program error enum
//
// Every module directory gets a mod.rs re-exporting its items. Generated code
// depends on the borsh, solana-program, thiserror and num-derive crates.
package rust

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/idlgen/internal/nodes"
)

// GeneratedFile is one rendered file. Path is slash-separated and relative
// to the output directory.
type GeneratedFile struct {
	Path    string
	Content []byte
}

// RenderVisitor is a nodes.Visitor that writes Rust sources to a directory.
// Files are buffered during the walk and written by Finish, so a failed walk
// writes nothing.
type RenderVisitor struct {
	outputDir string
	clean     bool

	program   *nodes.ProgramNode
	programID string // Rust path of the program id constant
	files     map[string][]byte
	modules   map[string][]string // directory -> module names
	sources   map[string]string   // module file -> IDL name it was rendered from
	written   []GeneratedFile
}

// RenderOption configures a RenderVisitor.
type RenderOption func(*RenderVisitor)

// WithoutClean keeps existing files in the output directory. By default the
// directory is removed before rendering so stale files do not survive.
func WithoutClean() RenderOption {
	return func(v *RenderVisitor) {
		v.clean = false
	}
}

// NewRenderVisitor returns a visitor bound to outputDir.
func NewRenderVisitor(outputDir string, opts ...RenderOption) *RenderVisitor {
	v := &RenderVisitor{
		outputDir: outputDir,
		clean:     true,
		files:     make(map[string][]byte),
		modules:   make(map[string][]string),
		sources:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Files returns what Finish wrote, sorted by path.
func (v *RenderVisitor) Files() []GeneratedFile {
	return v.written
}

// VisitProgram renders programs.rs.
func (v *RenderVisitor) VisitProgram(p *nodes.ProgramNode) error {
	v.program = p
	constName := nodes.ScreamingSnakeCase(p.Name) + "_ID"
	v.programID = "crate::generated::programs::" + constName

	s := newSource()
	s.block([]string{"use solana_program::{pubkey, pubkey::Pubkey};"})
	s.blank()
	s.linef("/// `%s` program ID.", p.Name)
	s.linef("pub const %s: Pubkey = pubkey!(%q);", constName, p.PublicKey)
	v.files["programs.rs"] = s.bytes()
	return nil
}

// VisitAccount renders accounts/<name>.rs.
func (v *RenderVisitor) VisitAccount(a *nodes.AccountNode) error {
	name := typeName(a.Name)
	im := newImports(name)
	body := &source{}

	if len(a.Discriminator) > 0 {
		body.linef("pub const %s_DISCRIMINATOR: [u8; %d] = %s;",
			nodes.ScreamingSnakeCase(a.Name), len(a.Discriminator), byteArray(a.Discriminator))
		body.blank()
	}

	body.docs("", a.Docs)
	body.line(derives(hasFloat(a.Data)))
	body.line(`#[cfg_attr(feature = "serde", derive(serde::Serialize, serde::Deserialize))]`)
	body.linef("pub struct %s {", name)
	if len(a.Discriminator) > 0 {
		body.linef("    pub discriminator: [u8; %d],", len(a.Discriminator))
	}
	writeFields(body, a.Data.Fields, im, "    ", "pub ")
	body.line("}")
	body.blank()
	body.linef("impl %s {", name)
	body.line("    #[inline(always)]")
	body.line("    pub fn from_bytes(data: &[u8]) -> Result<Self, std::io::Error> {")
	body.line("        let mut data = data;")
	body.line("        Self::deserialize(&mut data)")
	body.line("    }")
	body.line("}")

	return v.addModuleFile("accounts", a.Name, assemble(im, true, body))
}

// VisitDefinedType renders types/<name>.rs.
func (v *RenderVisitor) VisitDefinedType(t *nodes.DefinedTypeNode) error {
	name := typeName(t.Name)
	im := newImports(name)
	body := &source{}
	borsh := true

	body.docs("", t.Docs)
	switch tt := t.Type.(type) {
	case nodes.StructType:
		body.line(derives(hasFloat(tt)))
		body.line(`#[cfg_attr(feature = "serde", derive(serde::Serialize, serde::Deserialize))]`)
		if len(tt.Fields) == 0 {
			body.linef("pub struct %s {}", name)
			break
		}
		body.linef("pub struct %s {", name)
		writeFields(body, tt.Fields, im, "    ", "pub ")
		body.line("}")
	case nodes.TupleType:
		body.line(derives(hasFloat(tt)))
		body.line(`#[cfg_attr(feature = "serde", derive(serde::Serialize, serde::Deserialize))]`)
		parts := make([]string, len(tt.Items))
		for i, item := range tt.Items {
			parts[i] = "pub " + rustType(item, im)
		}
		body.linef("pub struct %s(%s);", name, strings.Join(parts, ", "))
	case nodes.EnumType:
		if isScalarEnum(tt) {
			body.line("#[derive(BorshSerialize, BorshDeserialize, Clone, Copy, Debug, Eq, PartialEq, PartialOrd, Hash)]")
		} else {
			body.line(derives(hasFloat(tt)))
		}
		body.line(`#[cfg_attr(feature = "serde", derive(serde::Serialize, serde::Deserialize))]`)
		body.linef("pub enum %s {", name)
		for _, variant := range tt.Variants {
			writeVariant(body, variant, im)
		}
		body.line("}")
	default:
		borsh = false
		body.linef("pub type %s = %s;", name, rustType(tt, im))
	}

	return v.addModuleFile("types", t.Name, assemble(im, borsh, body))
}

// VisitInstruction renders instructions/<name>.rs.
func (v *RenderVisitor) VisitInstruction(ix *nodes.InstructionNode) error {
	name := typeName(ix.Name)
	im := newImports(name)
	body := &source{}
	hasArgs := len(ix.Arguments) > 0
	discLen := len(ix.Discriminator)

	body.linef("pub const %s_DISCRIMINATOR: [u8; %d] = %s;",
		nodes.ScreamingSnakeCase(ix.Name), discLen, byteArray(ix.Discriminator))
	body.blank()

	// Accounts struct.
	body.docs("", ix.Docs)
	body.line("#[derive(Debug)]")
	if len(ix.Accounts) == 0 {
		body.linef("pub struct %s {}", name)
	} else {
		im.pubkey = true
		body.linef("pub struct %s {", name)
		for _, acc := range ix.Accounts {
			body.docs("    ", acc.Docs)
			if acc.Optional {
				body.linef("    pub %s: Option<Pubkey>,", fieldName(acc.Name))
			} else {
				body.linef("    pub %s: Pubkey,", fieldName(acc.Name))
			}
		}
		body.line("}")
	}
	body.blank()

	// Instruction builder.
	body.linef("impl %s {", name)
	if hasArgs {
		body.linef("    pub fn instruction(&self, args: %sInstructionArgs) -> solana_program::instruction::Instruction {", name)
	} else {
		body.line("    pub fn instruction(&self) -> solana_program::instruction::Instruction {")
	}
	if len(ix.Accounts) == 0 {
		body.line("        let accounts = Vec::new();")
	} else {
		body.linef("        let mut accounts = Vec::with_capacity(%d);", len(ix.Accounts))
	}
	for _, acc := range ix.Accounts {
		field := fieldName(acc.Name)
		if acc.Optional {
			// Absent optional accounts are passed as the program id.
			local := strings.TrimPrefix(field, "r#")
			body.linef("        if let Some(%s) = self.%s {", local, field)
			body.linef("            accounts.push(%s);", accountMeta(local, acc))
			body.line("        } else {")
			body.linef("            accounts.push(solana_program::instruction::AccountMeta::new_readonly(%s, false));", v.programID)
			body.line("        }")
			continue
		}
		body.linef("        accounts.push(%s);", accountMeta("self."+field, acc))
	}
	if hasArgs {
		body.linef("        let mut data = borsh::to_vec(&%sInstructionData::new()).unwrap();", name)
		body.line("        let mut args = borsh::to_vec(&args).unwrap();")
		body.line("        data.append(&mut args);")
	} else {
		body.linef("        let data = borsh::to_vec(&%sInstructionData::new()).unwrap();", name)
	}
	body.blank()
	body.line("        solana_program::instruction::Instruction {")
	body.linef("            program_id: %s,", v.programID)
	body.line("            accounts,")
	body.line("            data,")
	body.line("        }")
	body.line("    }")
	body.line("}")
	body.blank()

	// Instruction data.
	body.line("#[derive(BorshSerialize, BorshDeserialize, Clone, Debug, Eq, PartialEq)]")
	body.linef("pub struct %sInstructionData {", name)
	body.linef("    discriminator: [u8; %d],", discLen)
	body.line("}")
	body.blank()
	body.linef("impl %sInstructionData {", name)
	body.line("    pub fn new() -> Self {")
	body.line("        Self {")
	body.linef("            discriminator: %s,", byteArray(ix.Discriminator))
	body.line("        }")
	body.line("    }")
	body.line("}")
	body.blank()
	body.linef("impl Default for %sInstructionData {", name)
	body.line("    fn default() -> Self {")
	body.line("        Self::new()")
	body.line("    }")
	body.line("}")

	// Arguments.
	if hasArgs {
		body.blank()
		body.line(derives(fieldsHaveFloat(ix.Arguments)))
		body.line(`#[cfg_attr(feature = "serde", derive(serde::Serialize, serde::Deserialize))]`)
		body.linef("pub struct %sInstructionArgs {", name)
		writeFields(body, ix.Arguments, im, "    ", "pub ")
		body.line("}")
	}

	return v.addModuleFile("instructions", ix.Name, assemble(im, true, body))
}

// VisitErrors renders errors/<program>.rs.
func (v *RenderVisitor) VisitErrors(errs []nodes.ErrorNode) error {
	if len(errs) == 0 {
		return nil
	}
	enumName := typeName(v.program.Name) + "Error"

	s := newSource()
	s.block([]string{
		"use num_derive::FromPrimitive;",
		"use thiserror::Error;",
	})
	s.blank()
	s.line("#[derive(Clone, Debug, Eq, Error, FromPrimitive, PartialEq)]")
	s.linef("pub enum %s {", enumName)
	for _, e := range errs {
		if e.Message == "" {
			s.linef("    /// %d (0x%x)", e.Code, e.Code)
		} else {
			s.linef("    /// %d (0x%x) - %s", e.Code, e.Code, e.Message)
		}
		s.linef("    #[error(\"%s\")]", errorMessage(e.Message))
		s.linef("    %s = 0x%x,", typeName(e.Name), e.Code)
	}
	s.line("}")
	s.blank()
	s.linef("impl solana_program::program_error::PrintProgramError for %s {", enumName)
	s.line("    fn print<E>(&self) {")
	s.line("        solana_program::msg!(&self.to_string());")
	s.line("    }")
	s.line("}")

	module := nodes.SnakeCase(v.program.Name)
	v.files[path.Join("errors", module+".rs")] = s.bytes()

	m := newSource()
	m.block([]string{fmt.Sprintf("pub(crate) mod r#%s;", module)})
	m.blank()
	m.linef("pub use self::r#%s::%s;", module, enumName)
	v.files["errors/mod.rs"] = m.bytes()
	v.modules["errors"] = []string{module}
	return nil
}

// Finish renders the mod.rs indexes and writes every buffered file.
func (v *RenderVisitor) Finish() error {
	for _, dir := range []string{"accounts", "instructions", "types"} {
		mods := v.modules[dir]
		if len(mods) == 0 {
			continue
		}
		slices.Sort(mods)
		s := newSource()
		s.blank()
		for _, m := range mods {
			s.linef("pub(crate) mod r#%s;", m)
		}
		s.blank()
		for _, m := range mods {
			s.linef("pub use self::r#%s::*;", m)
		}
		v.files[path.Join(dir, "mod.rs")] = s.bytes()
	}

	root := newSource()
	root.blank()
	for _, dir := range []string{"accounts", "errors", "instructions", "programs", "types"} {
		if dir == "programs" || len(v.modules[dir]) > 0 {
			root.linef("pub mod %s;", dir)
		}
	}
	root.blank()
	root.line("pub(crate) use programs::*;")
	v.files["mod.rs"] = root.bytes()

	return v.write()
}

func (v *RenderVisitor) write() error {
	if v.clean {
		if err := os.RemoveAll(v.outputDir); err != nil {
			return err
		}
	}

	paths := make([]string, 0, len(v.files))
	for p := range v.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	written := make([]GeneratedFile, 0, len(paths))
	for _, p := range paths {
		full := filepath.Join(v.outputDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, v.files[p], 0o644); err != nil {
			return err
		}
		written = append(written, GeneratedFile{Path: p, Content: v.files[p]})
	}
	v.written = written

	slog.Debug("rendered rust sources", "dir", v.outputDir, "files", len(written))
	return nil
}

// addModuleFile registers dir/<snake name>.rs. Names that map to the
// directory index or to another item's file are rejected.
func (v *RenderVisitor) addModuleFile(dir, name string, content []byte) error {
	module := nodes.SnakeCase(name)
	file := path.Join(dir, module+".rs")
	if module == "mod" {
		return fmt.Errorf("rust: %s %q would overwrite %s", dir, name, path.Join(dir, "mod.rs"))
	}
	if prev, ok := v.sources[file]; ok {
		return fmt.Errorf("rust: %s %q and %q both render to %s", dir, prev, name, file)
	}
	v.sources[file] = name
	v.files[file] = content
	v.modules[dir] = append(v.modules[dir], module)
	return nil
}

// assemble prefixes body with the banner and use block.
func assemble(im *imports, borsh bool, body *source) []byte {
	s := newSource()
	s.block(im.lines(borsh))
	s.blank()
	s.b.WriteString(body.b.String())
	return s.bytes()
}

func writeFields(s *source, fields []nodes.Field, im *imports, indent, vis string) {
	for _, f := range fields {
		s.docs(indent, f.Docs)
		s.linef("%s%s%s: %s,", indent, vis, fieldName(f.Name), rustType(f.Type, im))
	}
}

func writeVariant(s *source, variant nodes.EnumVariant, im *imports) {
	name := typeName(variant.Name)
	switch {
	case len(variant.Tuple) > 0:
		parts := make([]string, len(variant.Tuple))
		for i, t := range variant.Tuple {
			parts[i] = rustType(t, im)
		}
		s.linef("    %s(%s),", name, strings.Join(parts, ", "))
	case len(variant.Fields) > 0:
		parts := make([]string, len(variant.Fields))
		for i, f := range variant.Fields {
			parts[i] = fmt.Sprintf("%s: %s", fieldName(f.Name), rustType(f.Type, im))
		}
		s.linef("    %s { %s },", name, strings.Join(parts, ", "))
	default:
		s.linef("    %s,", name)
	}
}

func isScalarEnum(e nodes.EnumType) bool {
	for _, v := range e.Variants {
		if !v.IsUnit() {
			return false
		}
	}
	return true
}

func accountMeta(expr string, acc nodes.InstructionAccountNode) string {
	ctor := "new_readonly"
	if acc.Writable {
		ctor = "new"
	}
	return fmt.Sprintf("solana_program::instruction::AccountMeta::%s(%s, %t)", ctor, expr, acc.Signer)
}
