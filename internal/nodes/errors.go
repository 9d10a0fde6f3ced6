package nodes

import "fmt"

// IngestError is a document construct the ingester cannot represent.
// Path locates it in the document, e.g. "instructions[3].args[0].type".
type IngestError struct {
	Path    string
	Message string
}

func (e *IngestError) Error() string {
	if e.Path == "" {
		return "ingest: " + e.Message
	}
	return fmt.Sprintf("ingest %s: %s", e.Path, e.Message)
}

func ingestErrorf(path, format string, args ...any) *IngestError {
	return &IngestError{Path: path, Message: fmt.Sprintf(format, args...)}
}
