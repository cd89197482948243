package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/engine"
)

// ReplayCircleResult holds the replay result for a single circle.
type ReplayCircleResult struct {
	CircleID string `json:"circle_id"`
	Events   int64  `json:"events"`
	Matches  bool   `json:"matches"`
	Error    string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Circles      []ReplayCircleResult `json:"circles"`
	TotalCircles int                  `json:"total_circles"`
	AllMatch     bool                 `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [circle...]",
		Short: "Rebuild circles from the event log and compare",
		Long: `Rebuild circles from their event logs and check that each rebuilt
circle equals its stored snapshot. Without arguments every circle in the
database is checked.

Exit codes:
  0 - Every rebuilt circle matches
  1 - A log could not be replayed or a rebuilt circle differs
  2 - Command error (database not found, etc.)

Examples:
  kitty replay
  kitty replay block-club market --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runReplay(opts *RootOptions, ids []string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	var result ReplayResult
	err := withSession(cmd, opts, "replay failed", func(ctx context.Context, s *session) error {
		if len(ids) == 0 {
			summaries, err := s.store.ListCircles(ctx)
			if err != nil {
				return err
			}
			for _, c := range summaries {
				ids = append(ids, c.ID)
			}
		}

		result = ReplayResult{Circles: make([]ReplayCircleResult, 0, len(ids)), TotalCircles: len(ids), AllMatch: true}
		for _, id := range ids {
			r, err := replayCircle(ctx, s, id)
			if err != nil {
				return err
			}
			if !r.Matches {
				result.AllMatch = false
			}
			result.Circles = append(result.Circles, r)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.AllMatch {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "REPLAY_DIVERGED", Message: "replay verification failed"}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		writeReplay(cmd.OutOrStdout(), result)
	}

	if !result.AllMatch {
		// Divergence = exit code 1
		return &ExitError{Code: ExitFailure, Message: "replay verification failed", Reported: true}
	}
	return nil
}

// replayCircle verifies one circle. Replay problems are part of the
// result; only infrastructure failures are returned as errors.
func replayCircle(ctx context.Context, s *session, id string) (ReplayCircleResult, error) {
	seq, err := s.store.LastSeq(ctx, id)
	if err != nil {
		return ReplayCircleResult{}, err
	}
	r := ReplayCircleResult{CircleID: id, Events: seq, Matches: true}

	err = s.engine.Verify(ctx, id)
	switch {
	case err == nil:
	case engine.IsReplayError(err):
		r.Matches = false
		r.Error = err.Error()
		s.logger.Warn("replay diverged", "circle", id, "error", err)
	default:
		return ReplayCircleResult{}, err
	}
	return r, nil
}

func writeReplay(w io.Writer, result ReplayResult) {
	fmt.Fprintf(w, "Replay Summary: %d circle(s)\n", result.TotalCircles)
	fmt.Fprintln(w)

	for _, c := range result.Circles {
		status := "✓"
		if !c.Matches {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s (%d events)\n", status, c.CircleID, c.Events)
		if c.Error != "" {
			fmt.Fprintf(w, "  %s\n", c.Error)
		}
	}
	fmt.Fprintln(w)

	if result.AllMatch {
		fmt.Fprintln(w, "✓ All circles rebuilt from their logs")
		return
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
}
