package compiler

import "fmt"

// Validation error codes (E100-E199)
const (
	ErrNoCircles       = "E100" // no circle definitions
	ErrInvalidCircle   = "E101" // circle breaks a configuration rule
	ErrDuplicateCircle = "E102" // circle ID declared twice
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled circles against the circle rules.
// Returns all errors found (does not fail-fast).
func Validate(defs []Definition) []ValidationError {
	if len(defs) == 0 {
		return []ValidationError{{Field: "circle", Message: "no circles defined", Code: ErrNoCircles}}
	}

	var errs []ValidationError
	seen := make(map[string]int)
	for _, d := range defs {
		cfg := d.Config
		line := 0
		if d.Pos.IsValid() {
			line = d.Pos.Line()
		}
		field := "circle." + cfg.ID

		if first, ok := seen[cfg.ID]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("circle %q already declared at line %d", cfg.ID, first),
				Code:    ErrDuplicateCircle,
				Line:    line,
			})
			continue
		}
		seen[cfg.ID] = line

		if err := cfg.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrInvalidCircle,
				Line:    line,
			})
		}
	}
	return errs
}
