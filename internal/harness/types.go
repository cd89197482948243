package harness

import "github.com/roach88/kitty/internal/circle"

// OutcomeOK marks a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step   int    `json:"step"`
	Op     string `json:"op"`
	Member string `json:"member,omitempty"`

	// Outcome is OutcomeOK or the rejecting error code.
	Outcome string `json:"outcome"`

	// Seq is the logged event's sequence number, 0 when nothing was logged.
	Seq int64 `json:"seq,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step met its expectation and
	// every assertion held.
	Pass bool `json:"pass"`

	// CircleID names the circle the scenario created.
	CircleID string `json:"circle_id"`

	// Trace lists every step in order, starting with the creation.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the circle view after the last step.
	Final *circle.View `json:"final,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records a step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
