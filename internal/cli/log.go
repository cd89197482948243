package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/engine"
)

// LogEvent is one entry of a circle's event log.
type LogEvent struct {
	Seq     int64           `json:"seq"`
	Kind    string          `json:"kind"`
	ID      string          `json:"id"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// LogResult holds a circle's event timeline.
type LogResult struct {
	CircleID string         `json:"circle_id"`
	Timeline []LogEvent     `json:"timeline"`
	Counts   map[string]int `json:"counts"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "log <circle>",
		Short: "Show a circle's event log",
		Long: `Show every accepted operation on a circle in sequence order. Rejected
operations never reach the log.

Examples:
  kitty log block-club
  kitty log market --kind bid.submitted
  kitty log block-club --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "log failed", func(ctx context.Context, s *session) error {
				result, err := readLog(ctx, s, args[0], kind)
				if err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(result, func(w io.Writer) {
					writeLog(w, result, rootOpts.Verbose)
				})
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only show events of this kind")

	return cmd
}

func readLog(ctx context.Context, s *session, circleID, kind string) (LogResult, error) {
	events, err := s.store.ReadEvents(ctx, circleID)
	if err != nil {
		return LogResult{}, err
	}
	if len(events) == 0 {
		return LogResult{}, fmt.Errorf("%w: %s", engine.ErrCircleNotFound, circleID)
	}

	result := LogResult{CircleID: circleID, Timeline: []LogEvent{}, Counts: map[string]int{}}
	for _, ev := range events {
		result.Counts[ev.Kind]++
		if kind != "" && ev.Kind != kind {
			continue
		}
		result.Timeline = append(result.Timeline, LogEvent{
			Seq:     ev.Seq,
			Kind:    ev.Kind,
			ID:      ev.ID,
			At:      ev.At,
			Payload: json.RawMessage(ev.Payload),
		})
	}
	return result, nil
}

func writeLog(w io.Writer, result LogResult, verbose bool) {
	fmt.Fprintf(w, "Circle: %s (%d event(s) shown)\n\n", result.CircleID, len(result.Timeline))
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "[%d] %s %s\n", ev.Seq, ev.At.Format(time.RFC3339), ev.Kind)
		if verbose {
			fmt.Fprintf(w, "    id: %s\n", ev.ID)
			fmt.Fprintf(w, "    %s\n", ev.Payload)
		}
	}
}
