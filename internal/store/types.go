package store

// Status is the outcome of a generation run.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Generation is one recorded dispatcher run.
type Generation struct {
	ID         string          `json:"id" yaml:"id"`
	Seq        int64           `json:"seq" yaml:"seq"`
	Project    string          `json:"project" yaml:"project"`
	InputPath  string          `json:"input_path" yaml:"input_path"`
	OutputPath string          `json:"output_path" yaml:"output_path"`
	IDLHash    string          `json:"idl_hash,omitempty" yaml:"idl_hash,omitempty"`
	Address    string          `json:"address" yaml:"address"`
	Origin     string          `json:"origin" yaml:"origin"`
	Status     Status          `json:"status" yaml:"status"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	Files      []GeneratedFile `json:"files" yaml:"files"`
}

// GeneratedFile is a file written by a run. Path is relative to OutputPath.
type GeneratedFile struct {
	Path        string `json:"path" yaml:"path"`
	ContentHash string `json:"content_hash" yaml:"content_hash"`
}
