package harness

// Stage names used in trace events.
const (
	StageLoad    = "load"
	StageInvoke  = "invoke"
	StageInvoked = "invoked"
	StageFailed  = "failed"
)

// TraceEvent is one observed step of a run. Only the fields relevant to
// the stage are set.
type TraceEvent struct {
	Stage     string         `json:"stage"`
	Path      string         `json:"path,omitempty"`       // load
	OutputDir string         `json:"output_dir,omitempty"` // invoke
	Document  map[string]any `json:"document,omitempty"`   // invoke
	Files     []string       `json:"files,omitempty"`      // invoked
	Error     string         `json:"error,omitempty"`      // failed: error kind
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Trace lists the stage events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// invoked reports whether the trace reached the invoke stage.
func (r *Result) invoked() *TraceEvent {
	for i := range r.Trace {
		if r.Trace[i].Stage == StageInvoke {
			return &r.Trace[i]
		}
	}
	return nil
}
