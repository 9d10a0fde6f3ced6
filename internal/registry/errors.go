package registry

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// UnknownProjectError is returned when a project id has no registry entry.
type UnknownProjectError struct {
	ID    string
	Known []string
}

func (e *UnknownProjectError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown project %q", e.ID)
	}
	return fmt.Sprintf("unknown project %q (known: %s)", e.ID, strings.Join(e.Known, ", "))
}

// InconsistencyError reports ids that appear in only one of the two
// co-indexed tables. Every entry needs metadata and vice versa.
type InconsistencyError struct {
	MissingMetadata []string // ids with an entry but no metadata
	MissingEntry    []string // ids with metadata but no entry
}

func (e *InconsistencyError) Error() string {
	var parts []string
	if len(e.MissingMetadata) > 0 {
		parts = append(parts, "no metadata for "+strings.Join(e.MissingMetadata, ", "))
	}
	if len(e.MissingEntry) > 0 {
		parts = append(parts, "no entry for "+strings.Join(e.MissingEntry, ", "))
	}
	return "registry inconsistent: " + strings.Join(parts, "; ")
}

// ConfigError is a registry source that failed to compile or validate.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error together with its position.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Field: field, Message: err.Error()}
	}

	first := errs[0]
	cfgErr := &ConfigError{Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
