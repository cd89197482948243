package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/circle"
)

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "withdraw <circle> <member> <amount>",
		Short: "Request a withdrawal from an emergency fund",
		Long: `File a withdrawal request against an emergency fund. Under the
automatic approval method the request is settled immediately; otherwise it
waits for votes or the admin's decision.

Examples:
  kitty withdraw rainy-day ana 150 --reason "car repair"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatterFor(rootOpts, cmd)
			amount, err := parseAmount(f, args[2])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, "withdrawal rejected", func(ctx context.Context, s *session) error {
				req, err := s.engine.RequestWithdrawal(ctx, args[0], args[1], amount, reason)
				if err != nil {
					return err
				}
				return f.Success(req, func(w io.Writer) { writeRequest(w, req) })
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the money is needed")

	return cmd
}

// NewVoteCommand creates the vote command.
func NewVoteCommand(rootOpts *RootOptions) *cobra.Command {
	var deny bool

	cmd := &cobra.Command{
		Use:   "vote <circle> <request> <member>",
		Short: "Vote on a withdrawal request",
		Long: `Cast a member's ballot on a majority_vote withdrawal request. The vote
approves unless --deny is given. The request settles as soon as a majority
is reached either way.

Examples:
  kitty vote rainy-day 0192f7c4-... ben
  kitty vote rainy-day 0192f7c4-... cy --deny`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "vote rejected", func(ctx context.Context, s *session) error {
				req, err := s.engine.CastVote(ctx, args[0], args[1], args[2], !deny)
				if err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(req, func(w io.Writer) { writeRequest(w, req) })
			})
		},
	}

	cmd.Flags().BoolVar(&deny, "deny", false, "vote against the request")

	return cmd
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	var deny bool

	cmd := &cobra.Command{
		Use:   "decide <circle> <request> <approver>",
		Short: "Settle a withdrawal request as the fund admin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "decision rejected", func(ctx context.Context, s *session) error {
				req, err := s.engine.Decide(ctx, args[0], args[1], args[2], !deny)
				if err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(req, func(w io.Writer) { writeRequest(w, req) })
			})
		},
	}

	cmd.Flags().BoolVar(&deny, "deny", false, "deny the request")

	return cmd
}

func writeRequest(w io.Writer, req circle.WithdrawalRequest) {
	fmt.Fprintf(w, "✓ request %s by %s for %s is %s\n", req.ID, req.MemberID, req.Amount, req.Status)
	if req.VotesFor+req.VotesAgainst > 0 {
		fmt.Fprintf(w, "  votes: %d for, %d against\n", req.VotesFor, req.VotesAgainst)
	}
	if req.DenialReason != "" {
		fmt.Fprintf(w, "  reason: %s\n", req.DenialReason)
	}
}
