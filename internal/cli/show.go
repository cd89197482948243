package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/circle"
)

// CircleListing is one row of `kitty show` without arguments.
type CircleListing struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Events    int64  `json:"events"`
	UpdatedAt string `json:"updated_at"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "show [circle]",
		Short: "List circles or show one circle",
		Long: `Without arguments, list every circle in the database. With a circle ID,
show its state; --member adds that member's own standing (their rotation
turn, whether they may bid, their challenge rank).

Examples:
  kitty show
  kitty show block-club --member ben
  kitty show market --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatterFor(rootOpts, cmd)
			return withSession(cmd, rootOpts, "show failed", func(ctx context.Context, s *session) error {
				if len(args) == 0 {
					return listCircles(ctx, s, f)
				}
				v, err := s.engine.View(ctx, args[0], member)
				if err != nil {
					return err
				}
				return f.Success(v, func(w io.Writer) { writeView(w, v) })
			})
		},
	}

	cmd.Flags().StringVar(&member, "member", "", "show this member's standing")

	return cmd
}

func listCircles(ctx context.Context, s *session, f *OutputFormatter) error {
	summaries, err := s.store.ListCircles(ctx)
	if err != nil {
		return err
	}
	rows := make([]CircleListing, len(summaries))
	for i, c := range summaries {
		rows[i] = CircleListing{
			ID:        c.ID,
			Name:      c.Name,
			Type:      string(c.Type),
			Status:    string(c.Status),
			Events:    c.Seq,
			UpdatedAt: c.UpdatedAt,
		}
	}
	return f.Success(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No circles found.")
			return
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%-24s %-18s %-10s %s\n", r.ID, r.Type, r.Status, r.Name)
		}
	})
}

func writeView(w io.Writer, v circle.View) {
	fmt.Fprintf(w, "%s (%s) - %s\n", v.Name, v.ID, v.Type)
	if v.Description != "" {
		fmt.Fprintf(w, "  %s\n", v.Description)
	}
	fmt.Fprintf(w, "  status: %s, cycle %d of %d (%s)\n", v.Status, v.CurrentCycle, v.TotalCycles, v.Frequency)
	fmt.Fprintf(w, "  contribution: %s, pot: %s, contributed: %s\n", v.ContributionAmount, v.TotalPot, v.TotalContributed)
	fmt.Fprintf(w, "  period: %s to %s\n", v.PeriodStart.Format("2006-01-02"), v.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(w, "  paid this cycle: %s\n", joinOrNone(v.Contributed))

	if m := v.Member; m != nil {
		fmt.Fprintf(w, "  you (%s): position %d, contributed %s, %d%% on time\n",
			m.ID, m.Position, m.TotalContributed, m.OnTimePercentage)
	}

	switch {
	case v.Rotation != nil:
		r := v.Rotation
		fmt.Fprintf(w, "  recipient: %s (position %d)\n", r.RecipientID, r.RecipientPosition)
		if r.TurnsUntilPayout > 0 {
			fmt.Fprintf(w, "  your payout in %d turn(s)\n", r.TurnsUntilPayout)
		}
		for _, p := range r.Payouts {
			fmt.Fprintf(w, "  cycle %d: %s received %s\n", p.Cycle, p.MemberID, p.Amount)
		}
	case v.Auction != nil:
		a := v.Auction
		fmt.Fprintf(w, "  pot value: %s, bids between %s and %s, commission %s\n",
			a.PotValue, a.MinBidDiscount, a.BidCeiling, a.OrganizerCommission)
		if a.CurrentBid != nil {
			fmt.Fprintf(w, "  leading bid: %s at %s (%d bid(s))\n", a.CurrentBid.MemberID, a.CurrentBid.Discount, a.BidCount)
		}
		fmt.Fprintf(w, "  round %d winners: %s\n", a.Round, joinOrNone(a.RoundWinners))
		for _, res := range a.BidHistory {
			fmt.Fprintf(w, "  cycle %d: %s won at %s, received %s\n", res.Cycle, res.WinnerID, res.Discount, res.Received)
		}
	case v.Challenge != nil:
		c := v.Challenge
		fmt.Fprintf(w, "  goal per member: %s by %s\n", c.SavingsGoalPerMember, c.ChallengeEndDate.Format("2006-01-02"))
		for _, s := range c.Leaderboard {
			fmt.Fprintf(w, "  #%d %s: %s (%s), streak %d\n", s.Rank, s.MemberID, s.AmountSaved, s.PercentOfGoal, s.Streak)
		}
	case v.Fund != nil:
		fv := v.Fund
		fmt.Fprintf(w, "  balance: %s of %s (%s), max withdrawal %s, %s\n",
			fv.CurrentFundBalance, fv.TargetFundSize, fv.PercentOfTarget, fv.MaxWithdrawal, fv.ApprovalMethod)
		for _, r := range fv.Requests {
			fmt.Fprintf(w, "  request %s: %s for %s, %s\n", r.ID, r.MemberID, r.Amount, r.Status)
		}
	case v.Goal != nil:
		g := v.Goal
		fmt.Fprintf(w, "  goal: %s\n", g.GoalDescription)
		fmt.Fprintf(w, "  saved %s of %s (%s), %s to go\n", g.CurrentAmount, g.TargetAmount, g.Progress, g.Remaining)
		if g.DaysLeft >= 0 {
			fmt.Fprintf(w, "  %d day(s) left\n", g.DaysLeft)
		}
	}
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
