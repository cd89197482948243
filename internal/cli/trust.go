package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/trust"
)

// TrustReport is a member's profile with what their tier unlocks and
// what the next tier asks for.
type TrustReport struct {
	Profile              trust.Profile `json:"profile"`
	OnTimePercentage     int           `json:"on_time_percentage"`
	MatchingFundEligible bool          `json:"matching_fund_eligible"`
	Unlocks              []string      `json:"unlocks"`
	NextTier             *NextTier     `json:"next_tier,omitempty"`
}

// NextTier lists the minimums of the tier above the member's.
type NextTier struct {
	Tier                model.TrustTier         `json:"tier"`
	MinCirclesJoined    int                     `json:"min_circles_joined"`
	MinCirclesCompleted int                     `json:"min_circles_completed"`
	MinOnTime           int                     `json:"min_on_time"`
	MinVerification     model.VerificationLevel `json:"min_verification,omitempty"`
}

// NewTrustCommand creates the trust command.
func NewTrustCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trust <member>",
		Short: "Show a member's trust tier and history",
		Long: `Show a member's trust tier, the progress toward the next tier and the
completed circles that built it. Members without history are newcomers.

Examples:
  kitty trust ana
  kitty trust ana --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, "trust lookup failed", func(ctx context.Context, s *session) error {
				p, err := s.tracker.Profile(ctx, args[0])
				if err != nil {
					return err
				}
				report := newTrustReport(p)
				return formatterFor(rootOpts, cmd).Success(report, func(w io.Writer) {
					writeTrust(w, report, rootOpts.Verbose)
				})
			})
		},
	}
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <member> <basic|verified|premium>",
		Short: "Set a member's verification level",
		Long: `Set a member's identity verification level and re-evaluate their tier.
Lowering the level can lower the tier.

Examples:
  kitty verify ana verified`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatterFor(rootOpts, cmd)
			level, err := model.ParseVerificationLevel(args[1])
			if err != nil {
				return badArgument(f, err)
			}
			return withSession(cmd, rootOpts, "verification failed", func(ctx context.Context, s *session) error {
				p, err := s.tracker.SetVerification(ctx, args[0], level)
				if err != nil {
					return err
				}
				report := newTrustReport(p)
				return f.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "✓ %s is %s\n", p.MemberID, p.Verification)
					writeTrust(w, report, false)
				})
			})
		},
	}
}

func newTrustReport(p trust.Profile) TrustReport {
	report := TrustReport{
		Profile:              p,
		OnTimePercentage:     p.OnTimePercentage(),
		MatchingFundEligible: p.MatchingFundEligible(),
	}
	if r, ok := trust.RequirementFor(p.Tier); ok {
		report.Unlocks = r.Unlocks
	}
	if next, ok := p.Tier.Next(); ok {
		r, _ := trust.RequirementFor(next)
		report.NextTier = &NextTier{
			Tier:                r.Tier,
			MinCirclesJoined:    r.MinCirclesJoined,
			MinCirclesCompleted: r.MinCirclesCompleted,
			MinOnTime:           r.MinOnTime,
			MinVerification:     r.MinVerification,
		}
	}
	return report
}

func writeTrust(w io.Writer, r TrustReport, verbose bool) {
	p := r.Profile
	fmt.Fprintf(w, "%s: %s (%s verification)\n", p.MemberID, p.Tier, p.Verification)
	fmt.Fprintf(w, "  circles: %d joined, %d completed\n", p.CirclesJoined, p.CirclesCompleted)
	fmt.Fprintf(w, "  on time: %d%% (%d of %d cycles)\n", r.OnTimePercentage, p.CyclesOnTime, p.CyclesDue)
	fmt.Fprintf(w, "  saved: %s, trust points: %d\n", p.TotalSaved, p.TrustPoints)
	if len(r.Unlocks) > 0 {
		fmt.Fprintf(w, "  unlocks: %s\n", strings.Join(r.Unlocks, ", "))
	}
	if n := r.NextTier; n != nil {
		fmt.Fprintf(w, "  %d%% of the way to %s\n", p.Progress, n.Tier)
	}
	if verbose {
		for _, rec := range p.History {
			fmt.Fprintf(w, "  - %s (%s): %d%% on time, +%d points\n",
				rec.CircleName, rec.CircleType, rec.OnTimePercentage, rec.TrustPoints)
		}
	}
}
