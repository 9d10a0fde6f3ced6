package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/roach88/idlgen/internal/idl"
	"github.com/roach88/idlgen/internal/nodes"
	"github.com/roach88/idlgen/internal/registry"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric  = "E001" // Generic/unknown error
	ErrCodeNotFound = "E005" // Path not found or unreadable/unwritable

	ErrCodeUnknownProject = "E201" // Project id not in the registry
	ErrCodeRegistry       = "E202" // Registry inconsistent or invalid
	ErrCodeMalformedIDL   = "E203" // IDL is not a structured object
	ErrCodePipeline       = "E204" // Generation pipeline failed
)

// errorCode maps an error to its display code. Errors of no known kind get
// fallback.
func errorCode(err error, fallback string) string {
	var (
		unknown   *registry.UnknownProjectError
		inconsist *registry.InconsistencyError
		config    *registry.ConfigError
		ioErr     *idl.IOError
		malformed *idl.MalformedIDLError
		ingest    *nodes.IngestError
		pathErr   *fs.PathError
	)
	switch {
	case errors.As(err, &unknown):
		return ErrCodeUnknownProject
	case errors.As(err, &inconsist), errors.As(err, &config):
		return ErrCodeRegistry
	case errors.As(err, &ioErr):
		return ErrCodeNotFound
	case errors.As(err, &malformed):
		return ErrCodeMalformedIDL
	case errors.As(err, &ingest):
		return ErrCodePipeline
	case errors.As(err, &pathErr):
		return ErrCodeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeGeneric
	}
	return fallback
}

// fail reports err through the formatter and returns the ExitError the
// command should return.
func fail(f *OutputFormatter, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, code, err)
}
