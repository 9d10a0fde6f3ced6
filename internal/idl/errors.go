package idl

import "fmt"

// IOError is an IDL file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("reading IDL %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MalformedIDLError is an IDL file whose content is not a structured document.
type MalformedIDLError struct {
	Path    string
	Message string
	Err     error // decoder error, if any
}

func (e *MalformedIDLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed IDL %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("malformed IDL %s: %s", e.Path, e.Message)
}

func (e *MalformedIDLError) Unwrap() error {
	return e.Err
}
