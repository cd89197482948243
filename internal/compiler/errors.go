package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError converts the first CUE error in err to a CompileError.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return compileErrorFrom(errs[0])
}

// formatCUEErrors converts every CUE error in err.
func formatCUEErrors(err error) []error {
	var out []error
	for _, e := range errors.Errors(err) {
		out = append(out, compileErrorFrom(e))
	}
	if len(out) == 0 && err != nil {
		out = append(out, err)
	}
	return out
}

func compileErrorFrom(e errors.Error) *CompileError {
	format, args := e.Msg()
	ce := &CompileError{
		Field:   "cue",
		Message: fmt.Sprintf(format, args...),
	}
	if path := e.Path(); len(path) > 0 {
		ce.Field = strings.Join(path, ".")
	}
	// Prefer a position in the user's file over one in the embedded schema.
	for _, pos := range errors.Positions(e) {
		if pos.Filename() != schemaFile {
			ce.Pos = pos
			break
		}
	}
	return ce
}
