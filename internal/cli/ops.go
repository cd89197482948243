package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/engine"
	"github.com/roach88/kitty/internal/model"
)

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <circle>",
		Short: "Activate a pending circle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withSession(cmd, rootOpts, "start failed", func(ctx context.Context, s *session) error {
				if err := s.engine.Start(ctx, id); err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(map[string]string{"id": id, "status": string(model.StatusActive)},
					func(w io.Writer) { fmt.Fprintf(w, "✓ %s is active\n", id) })
			})
		},
	}
}

// NewContributeCommand creates the contribute command.
func NewContributeCommand(rootOpts *RootOptions) *cobra.Command {
	var cycle int

	cmd := &cobra.Command{
		Use:   "contribute <circle> <member> <amount>",
		Short: "Record a member's contribution",
		Long: `Record a member's contribution for the current cycle, or for an earlier
cycle with --cycle (recorded as late).

Amounts are in currency units with at most two decimals ("100", "99.50").

Examples:
  kitty contribute block-club ana 100
  kitty contribute block-club ben 100 --cycle 1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatterFor(rootOpts, cmd)
			amount, err := parseAmount(f, args[2])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, "contribution rejected", func(ctx context.Context, s *session) error {
				ct, err := s.engine.Contribute(ctx, args[0], args[1], amount, cycle)
				if err != nil {
					return err
				}
				return f.Success(ct, func(w io.Writer) {
					late := ""
					if !ct.OnTime {
						late = " (late)"
					}
					fmt.Fprintf(w, "✓ %s contributed %s for cycle %d%s\n", ct.MemberID, ct.Amount, ct.Cycle, late)
				})
			})
		},
	}

	cmd.Flags().IntVar(&cycle, "cycle", 0, "cycle to contribute for (default: current)")

	return cmd
}

// NewPayoutCommand creates the payout command.
func NewPayoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "payout <circle> <member>",
		Short: "Pay the rotation pot to this cycle's recipient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "payout rejected", func(ctx context.Context, s *session) error {
				p, err := s.engine.RecordPayout(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(p, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %s received %s for cycle %d\n", p.MemberID, p.Amount, p.Cycle)
				})
			})
		},
	}
}

// NewBidCommand creates the bid command.
func NewBidCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bid <circle> <member> <discount>",
		Short: "Bid a discount for this cycle's chit fund pot",
		Long: `Bid the discount (in percent of the pot) a member gives up to take this
cycle's pot. The lowest discount wins when the auction is resolved.

Examples:
  kitty bid market ana 12
  kitty bid market ben 12.5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatterFor(rootOpts, cmd)
			discount, err := model.ParsePercent(args[2])
			if err != nil {
				return badArgument(f, err)
			}
			return withSession(cmd, rootOpts, "bid rejected", func(ctx context.Context, s *session) error {
				out, err := s.engine.SubmitBid(ctx, args[0], args[1], discount)
				if err != nil {
					return err
				}
				return f.Success(out, func(w io.Writer) { writeBid(w, out) })
			})
		},
	}
}

func writeBid(w io.Writer, out engine.BidOutcome) {
	lead := "does not lead"
	if out.Leading {
		lead = "leads"
	}
	fmt.Fprintf(w, "✓ %s bid %s for cycle %d and %s\n", out.Bid.MemberID, out.Bid.Discount, out.Bid.Cycle, lead)
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <circle>",
		Short: "Award the chit fund pot to the lowest bid and advance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "resolve rejected", func(ctx context.Context, s *session) error {
				r, err := s.engine.ResolveAuction(ctx, args[0])
				if err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(r, func(w io.Writer) {
					res := r.Result
					fmt.Fprintf(w, "✓ cycle %d won by %s at %s\n", res.Cycle, res.WinnerID, res.Discount)
					fmt.Fprintf(w, "  net payout %s, commission %s, received %s\n", res.NetPayout, res.Commission, res.Received)
					fmt.Fprintf(w, "  dividend %s (%s per member)\n", res.Dividend, res.DividendPerMember)
					writeAdvance(w, r.Advance)
				})
			})
		},
	}
}

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <circle>",
		Short: "Close the current cycle",
		Long:  "Close the current cycle. Chit funds advance with resolve instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "advance rejected", func(ctx context.Context, s *session) error {
				adv, err := s.engine.AdvanceCycle(ctx, args[0])
				if err != nil {
					return err
				}
				return formatterFor(rootOpts, cmd).Success(adv, func(w io.Writer) { writeAdvance(w, adv) })
			})
		},
	}
}

func writeAdvance(w io.Writer, adv circle.Advance) {
	if adv.Completed {
		fmt.Fprintf(w, "✓ cycle %d closed, circle completed\n", adv.From)
		return
	}
	fmt.Fprintf(w, "✓ cycle %d closed, now in cycle %d\n", adv.From, adv.To)
}

// parseAmount parses a money argument, reporting a bad one.
func parseAmount(f *OutputFormatter, s string) (model.Money, error) {
	m, err := model.ParseMoney(s)
	if err != nil {
		return 0, badArgument(f, err)
	}
	return m, nil
}

func badArgument(f *OutputFormatter, err error) error {
	_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
	return &ExitError{Code: ExitCommandError, Message: "bad argument", Err: err, Reported: true}
}
