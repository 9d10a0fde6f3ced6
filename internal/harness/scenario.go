package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a single dispatcher run with its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Registry maps project ids to their registration. Set MissingMetadata
	// on a project to register the entry alone.
	Registry map[string]ProjectSpec `yaml:"registry"`

	// Files are written into the run directory before the run.
	Files map[string]string `yaml:"files,omitempty"`

	// Run is the project id passed to the dispatcher.
	Run string `yaml:"run"`

	// Pipeline selects the invoker: "" or "recorder" records the request,
	// "builtin" runs the Rust renderer.
	Pipeline string `yaml:"pipeline,omitempty"`

	// PipelineError makes the recorder fail with this message.
	PipelineError string `yaml:"pipeline_error,omitempty"`

	Expect Expect `yaml:"expect"`
}

// ProjectSpec is one registry row.
type ProjectSpec struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Address string `yaml:"address"`
	Origin  string `yaml:"origin"`

	MissingMetadata bool `yaml:"missing_metadata,omitempty"`
}

// Expect is what the run must produce. Unset fields are not checked.
type Expect struct {
	// Error is the expected error kind, empty for success.
	Error string `yaml:"error,omitempty"`

	// Invoked states whether the pipeline must (or must not) be reached.
	Invoked *bool `yaml:"invoked,omitempty"`

	// Loaded states whether the IDL loader must (or must not) be reached.
	Loaded *bool `yaml:"loaded,omitempty"`

	// Document must equal the invoked document exactly.
	Document map[string]any `yaml:"document,omitempty"`

	// OutputDir must equal the invoked output directory.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Files must equal the files the pipeline reported.
	Files []string `yaml:"files,omitempty"`
}

// Error kinds used in Expect.Error and failed trace events.
const (
	ErrorUnknownProject = "unknown_project"
	ErrorInconsistent   = "inconsistent_registry"
	ErrorIO             = "io"
	ErrorMalformedIDL   = "malformed_idl"
	ErrorPipeline       = "pipeline"
)

var errorKinds = map[string]bool{
	ErrorUnknownProject: true,
	ErrorInconsistent:   true,
	ErrorIO:             true,
	ErrorMalformedIDL:   true,
	ErrorPipeline:       true,
}

// Pipeline selectors.
const (
	PipelineRecorder = "recorder"
	PipelineBuiltin  = "builtin"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Registry) == 0 {
		return fmt.Errorf("registry is required and must be non-empty")
	}

	if s.Run == "" {
		return fmt.Errorf("run is required")
	}

	for id, p := range s.Registry {
		if p.Input == "" {
			return fmt.Errorf("registry.%s: input is required", id)
		}
		if p.Output == "" {
			return fmt.Errorf("registry.%s: output is required", id)
		}
	}

	switch s.Pipeline {
	case "", PipelineRecorder, PipelineBuiltin:
	default:
		return fmt.Errorf("unknown pipeline %q", s.Pipeline)
	}
	if s.PipelineError != "" && s.Pipeline == PipelineBuiltin {
		return fmt.Errorf("pipeline_error only applies to the recorder pipeline")
	}

	if s.Expect.Error != "" && !errorKinds[s.Expect.Error] {
		return fmt.Errorf("expect.error: unknown error kind %q", s.Expect.Error)
	}

	return nil
}
