package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/circle"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Start bool // start each circle right after creating it
}

// CreatedCircle summarizes one created circle.
type CreatedCircle struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Members int    `json:"members"`
	Status  string `json:"status"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create circles from CUE definitions",
		Long: `Compile the circles declared in a .cue file (or a directory of them)
and store each one as a new pending circle.

The circle ID is its label under the top-level circle: struct:

  circle: "block-club": {
    name:         "Block Club"
    type:         "rosca"
    members:      ["ana", "ben", "cy"]
    contribution: 10000
    cycles:       3
  }

Nothing is created unless every definition is valid.

Examples:
  kitty create block-club.cue
  kitty create ./circles --start
  kitty create market.cue --db ./savings.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Start, "start", false, "start circles immediately")

	return cmd
}

func runCreate(opts *CreateOptions, path string, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	loadResult, verrs, err := checkCircles(path, LoadModeFailFast, formatter)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	var created []CreatedCircle
	err = withSession(cmd, opts.RootOptions, "create failed", func(ctx context.Context, s *session) error {
		for _, def := range loadResult.Definitions {
			id, err := s.engine.Create(ctx, def.Config)
			if err != nil {
				return err
			}
			if opts.Start {
				if err := s.engine.Start(ctx, id); err != nil {
					return err
				}
			}
			v, err := s.engine.View(ctx, id, "")
			if err != nil {
				return err
			}
			created = append(created, createdFrom(v))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return formatter.Success(created, func(w io.Writer) {
		for _, c := range created {
			fmt.Fprintf(w, "✓ %s (%s, %d members) %s\n", c.ID, c.Type, c.Members, c.Status)
		}
	})
}

func createdFrom(v circle.View) CreatedCircle {
	return CreatedCircle{
		ID:      v.ID,
		Name:    v.Name,
		Type:    string(v.Type),
		Members: len(v.Members),
		Status:  string(v.Status),
	}
}
