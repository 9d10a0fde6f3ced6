package rust

import (
	"fmt"
	"strings"
)

// banner opens every generated file.
const banner = `//! This code was AUTOGENERATED using the idlgen library.
//! Please DO NOT EDIT THIS FILE, instead use visitors
//! to add features, then rerun idlgen to update it.
//!
//! <https://github.com/roach88/idlgen>
`

// source accumulates one generated file.
type source struct {
	b strings.Builder
}

func newSource() *source {
	s := &source{}
	s.b.WriteString(banner)
	return s
}

func (s *source) line(text string) {
	s.b.WriteString(text)
	s.b.WriteByte('\n')
}

func (s *source) linef(format string, args ...any) {
	s.line(fmt.Sprintf(format, args...))
}

func (s *source) blank() {
	s.b.WriteByte('\n')
}

// block writes a blank line followed by lines, skipping both when empty.
func (s *source) block(lines []string) {
	if len(lines) == 0 {
		return
	}
	s.blank()
	for _, l := range lines {
		s.line(l)
	}
}

func (s *source) docs(indent string, docs []string) {
	for _, d := range docs {
		if d == "" {
			s.line(indent + "///")
			continue
		}
		s.line(indent + "/// " + d)
	}
}

func (s *source) bytes() []byte {
	return []byte(s.b.String())
}

// errorMessage escapes text for a thiserror format string.
func errorMessage(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "{", "{{", "}", "}}", "\n", `\n`)
	return r.Replace(text)
}
