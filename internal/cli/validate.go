package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Circles []string                   `json:"circles,omitempty"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check circle definitions without creating them",
		Long: `Check CUE circle definitions without touching the database.

<path> is a .cue file or a directory of .cue files. Every problem is
reported, not just the first.

Exit codes:
  0 - All circles valid
  1 - One or more definitions are invalid
  2 - Command error (path not found, CUE syntax error, etc.)

Examples:
  kitty validate ./circles
  kitty validate block-club.cue --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	loadResult, verrs, err := checkCircles(path, LoadModeCollectAll, formatter)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	ids := make([]string, len(loadResult.Definitions))
	for i, d := range loadResult.Definitions {
		ids[i] = d.Config.ID
	}
	return formatter.Success(ValidationResult{Valid: true, Circles: ids}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d circle(s) valid\n", len(ids))
	})
}

// checkCircles loads path and runs every circle rule over the result.
// A load failure is reported and returned as err; definition problems
// come back as validation errors for the caller to report.
func checkCircles(path string, mode LoadMode, formatter *OutputFormatter) (*LoadResult, []compiler.ValidationError, error) {
	loadResult, loadErrors := LoadCircles(path, mode)
	if loadResult == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return nil, nil, outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return nil, nil, outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}
	formatter.VerboseLog("Loaded %d CUE file(s) from %s", loadResult.FileCount, path)

	var verrs []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			continue
		}
		verrs = append(verrs, compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    lineOf(loadErr),
		})
	}
	if len(verrs) == 0 || len(loadResult.Definitions) > 0 {
		verrs = append(verrs, compiler.Validate(loadResult.Definitions)...)
	}
	return loadResult, verrs, nil
}

func lineOf(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: %s", code, message), Reported: true}
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	exit := &ExitError{
		Code:     ExitFailure,
		Message:  fmt.Sprintf("validation failed with %d error(s)", len(errs)),
		Reported: true,
	}

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return exit
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return exit
}
