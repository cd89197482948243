package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStart is the fake clock's start time when a scenario sets none.
var DefaultStart = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

// Scenario defines a circle scenario.
// A scenario declares one circle in CUE, drives it through a sequence of
// operations against a real engine and asserts on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Circle is CUE source declaring exactly one circle.
	Circle string `yaml:"circle"`

	// Start is the fake wall clock's initial time. Each operation moves
	// the clock forward by one minute.
	Start time.Time `yaml:"start,omitempty"`

	// Steps are executed in order after the circle is created.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: final_view, event_count, event_order, replay,
	// trust, activity_count.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation.
type Step struct {
	// Op is the operation: start, contribute, payout, bid, resolve,
	// advance, withdraw, vote, decide, view or wait.
	Op string `yaml:"op"`

	// Member acts in the step. For decide it is the approver.
	Member string `yaml:"member,omitempty"`

	// Amount in minor units (contribute, withdraw).
	Amount int64 `yaml:"amount,omitempty"`

	// Cycle for a contribution; 0 means the current cycle.
	Cycle int `yaml:"cycle,omitempty"`

	// Discount is a whole percent (bid).
	Discount int64 `yaml:"discount,omitempty"`

	// Reason for a withdrawal request.
	Reason string `yaml:"reason,omitempty"`

	// As labels the request created by a withdraw step.
	As string `yaml:"as,omitempty"`

	// Request is a label from an earlier withdraw step, or a raw request ID.
	Request string `yaml:"request,omitempty"`

	// Approve is the ballot or decision (vote, decide).
	Approve bool `yaml:"approve,omitempty"`

	// Duration moves the clock forward (wait), e.g. "720h".
	Duration string `yaml:"duration,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies expected step behavior.
type Expect struct {
	// Code is the expected error code; empty means success.
	Code string `yaml:"code,omitempty"`

	// Result contains expected result field values, by JSON name.
	// This is a subset match - only specified fields are validated.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_view": the circle view (for Member, if set) matches Expect
	// - "event_count": Kind appears exactly Count times in the event log
	// - "event_order": Kinds appear in the event log in this order
	// - "replay": the event log rebuilds the stored snapshot
	// - "trust": Member's trust profile matches Expect
	// - "activity_count": Member holds exactly Count activity records
	Type string `yaml:"type"`

	Member string         `yaml:"member,omitempty"`
	Kind   string         `yaml:"kind,omitempty"`
	Kinds  []string       `yaml:"kinds,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalView     = "final_view"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertReplay        = "replay"
	AssertTrust         = "trust"
	AssertActivityCount = "activity_count"
)

// Step operation constants.
const (
	OpStart      = "start"
	OpContribute = "contribute"
	OpPayout     = "payout"
	OpBid        = "bid"
	OpResolve    = "resolve"
	OpAdvance    = "advance"
	OpWithdraw   = "withdraw"
	OpVote       = "vote"
	OpDecide     = "decide"
	OpView       = "view"
	OpWait       = "wait"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Start.IsZero() {
		scenario.Start = DefaultStart
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ext := filepath.Ext(path); !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Circle == "" {
		return fmt.Errorf("circle is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	labels := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step, labels); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.As != "" {
			labels[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, labels map[string]bool) error {
	needsMember := func() error {
		if step.Member == "" {
			return fmt.Errorf("%s requires member", step.Op)
		}
		return nil
	}

	switch step.Op {
	case OpStart, OpResolve, OpAdvance, OpView:
		return nil
	case OpContribute:
		if step.Amount == 0 {
			return fmt.Errorf("contribute requires amount")
		}
		return needsMember()
	case OpPayout, OpBid:
		return needsMember()
	case OpWithdraw:
		if step.Amount == 0 {
			return fmt.Errorf("withdraw requires amount")
		}
		return needsMember()
	case OpVote, OpDecide:
		if step.Request == "" {
			return fmt.Errorf("%s requires request", step.Op)
		}
		return needsMember()
	case OpWait:
		if _, err := time.ParseDuration(step.Duration); err != nil {
			return fmt.Errorf("wait requires a duration: %w", err)
		}
		return nil
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertFinalView:
		if len(a.Expect) == 0 {
			return fmt.Errorf("final_view requires expect")
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("event_count requires kind")
		}
	case AssertEventOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("event_order requires at least two kinds")
		}
	case AssertReplay:
	case AssertTrust:
		if a.Member == "" || len(a.Expect) == 0 {
			return fmt.Errorf("trust requires member and expect")
		}
	case AssertActivityCount:
		if a.Member == "" {
			return fmt.Errorf("activity_count requires member")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
