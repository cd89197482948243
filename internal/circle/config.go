package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// Default auction parameters used when a chit fund is created without
// AuctionSettings.
const (
	DefaultMinBidDiscount      model.Percent = 5 * model.BasisPointsPerPercent
	DefaultOrganizerCommission model.Percent = 3 * model.BasisPointsPerPercent
)

// MemberSpec declares one member of a new circle.
type MemberSpec struct {
	ID string

	// Position is the 1-based rotation slot. Leave every position at 0 to
	// assign slots in declaration order.
	Position int

	// JoinedAt defaults to the creation time.
	JoinedAt time.Time
}

// Config describes a circle to create.
type Config struct {
	ID          string
	Name        string
	Description string
	Type        model.CircleType
	Members     []MemberSpec

	// Admin approves withdrawals under admin_approval. Defaults to the
	// first member.
	Admin string

	ContributionAmount   model.Money
	Frequency            model.Frequency
	TotalCycles          int
	MatchingFundEligible bool
	MatchingFundAmount   model.Money

	// Settings carries the variant parameters and must match Type.
	// Optional for rosca and chit_fund.
	Settings Settings
}

// Settings is the variant-specific part of a Config.
type Settings interface {
	settingsFor() model.CircleType
}

// AuctionSettings configures a chit fund.
type AuctionSettings struct {
	// PotValue defaults to ContributionAmount x member count.
	PotValue            model.Money
	MinBidDiscount      model.Percent
	OrganizerCommission model.Percent
}

// ChallengeSettings configures a savings challenge.
type ChallengeSettings struct {
	SavingsGoalPerMember model.Money
	EndDate              time.Time
}

// FundSettings configures an emergency fund.
type FundSettings struct {
	TargetFundSize model.Money
	MaxWithdrawal  model.Money
	ApprovalMethod model.ApprovalMethod
}

// GoalSettings configures a goal-based circle.
type GoalSettings struct {
	Description  string
	TargetAmount model.Money
	TargetDate   time.Time
}

func (AuctionSettings) settingsFor() model.CircleType   { return model.CircleChitFund }
func (ChallengeSettings) settingsFor() model.CircleType { return model.CircleSavingsChallenge }
func (FundSettings) settingsFor() model.CircleType      { return model.CircleEmergencyFund }
func (GoalSettings) settingsFor() model.CircleType      { return model.CircleGoalBased }

// Validate reports the first configuration rule cfg breaks as an
// INVALID_CONFIGURATION *Error, or nil.
func (cfg Config) Validate() error {
	if err := cfg.validate(); err != nil {
		return err
	}
	return nil
}

// validate checks every configuration rule. It reports the first violation.
func (cfg Config) validate() *Error {
	if cfg.ID == "" {
		return invalidConfig("circle id is required")
	}
	if !cfg.Type.Valid() {
		return invalidConfig("unknown circle type %q", cfg.Type)
	}
	if len(cfg.Members) < 2 {
		return invalidConfig("a circle needs at least 2 members, got %d", len(cfg.Members))
	}
	if !cfg.ContributionAmount.IsPositive() {
		return invalidConfig("contribution amount must be positive, got %s", cfg.ContributionAmount)
	}
	if _, err := model.ParseFrequency(string(cfg.Frequency)); err != nil {
		return invalidConfig("%v", err)
	}
	if cfg.TotalCycles < 1 {
		return invalidConfig("total cycles must be at least 1, got %d", cfg.TotalCycles)
	}
	if cfg.Type == model.CircleROSCA && cfg.TotalCycles < len(cfg.Members) {
		return invalidConfig("rosca needs at least one cycle per member: %d cycles for %d members",
			cfg.TotalCycles, len(cfg.Members))
	}
	if cfg.MatchingFundAmount < 0 {
		return invalidConfig("matching fund amount must not be negative")
	}
	if err := validateMembers(cfg.Members); err != nil {
		return err
	}
	if cfg.Admin != "" && !hasMemberSpec(cfg.Members, cfg.Admin) {
		return invalidConfig("admin %q is not a member", cfg.Admin)
	}
	return validateSettings(cfg)
}

func validateMembers(members []MemberSpec) *Error {
	seen := make(map[string]bool, len(members))
	positions := make(map[int]bool, len(members))
	explicit := 0
	for _, m := range members {
		if m.ID == "" {
			return invalidConfig("member id is required")
		}
		if seen[m.ID] {
			return invalidConfig("duplicate member %q", m.ID)
		}
		seen[m.ID] = true
		if m.Position != 0 {
			explicit++
			if m.Position < 1 || m.Position > len(members) {
				return invalidConfig("member %q position %d outside 1..%d", m.ID, m.Position, len(members))
			}
			if positions[m.Position] {
				return invalidConfig("position %d assigned twice", m.Position)
			}
			positions[m.Position] = true
		}
	}
	if explicit != 0 && explicit != len(members) {
		return invalidConfig("positions must be set for every member or for none")
	}
	return nil
}

func validateSettings(cfg Config) *Error {
	if cfg.Settings != nil && cfg.Settings.settingsFor() != cfg.Type {
		return invalidConfig("%s settings given for a %s circle", cfg.Settings.settingsFor(), cfg.Type)
	}

	switch s := cfg.Settings.(type) {
	case nil:
		switch cfg.Type {
		case model.CircleROSCA, model.CircleChitFund:
			return nil
		default:
			return invalidConfig("%s circle requires settings", cfg.Type)
		}
	case AuctionSettings:
		if s.PotValue < 0 {
			return invalidConfig("pot value must not be negative")
		}
		if s.OrganizerCommission < 0 || s.OrganizerCommission >= model.FullPercent {
			return invalidConfig("organizer commission %s outside [0%%, 100%%)", s.OrganizerCommission)
		}
		if s.MinBidDiscount < 0 || s.MinBidDiscount > s.OrganizerCommission.Complement() {
			return invalidConfig("minimum bid discount %s outside [0%%, %s]",
				s.MinBidDiscount, s.OrganizerCommission.Complement())
		}
	case ChallengeSettings:
		if !s.SavingsGoalPerMember.IsPositive() {
			return invalidConfig("savings goal per member must be positive")
		}
		if s.EndDate.IsZero() {
			return invalidConfig("challenge end date is required")
		}
	case FundSettings:
		if !s.TargetFundSize.IsPositive() {
			return invalidConfig("target fund size must be positive")
		}
		if !s.MaxWithdrawal.IsPositive() {
			return invalidConfig("max withdrawal must be positive")
		}
		if _, err := model.ParseApprovalMethod(string(s.ApprovalMethod)); err != nil {
			return invalidConfig("%v", err)
		}
	case GoalSettings:
		if !s.TargetAmount.IsPositive() {
			return invalidConfig("goal target amount must be positive")
		}
	}
	return nil
}

func hasMemberSpec(members []MemberSpec, id string) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// newPayload builds the initial variant payload for a validated config.
func newPayload(cfg Config, members []Member) Payload {
	switch cfg.Type {
	case model.CircleChitFund:
		s := AuctionSettings{
			MinBidDiscount:      DefaultMinBidDiscount,
			OrganizerCommission: DefaultOrganizerCommission,
		}
		if given, ok := cfg.Settings.(AuctionSettings); ok {
			s = given
		}
		if s.PotValue == 0 {
			s.PotValue = cfg.ContributionAmount * model.Money(len(members))
		}
		return &AuctionState{
			PotValue:            s.PotValue,
			MinBidDiscount:      s.MinBidDiscount,
			OrganizerCommission: s.OrganizerCommission,
			Round:               1,
		}
	case model.CircleSavingsChallenge:
		s := cfg.Settings.(ChallengeSettings)
		progress := make([]MemberProgress, len(members))
		for i, m := range members {
			progress[i] = MemberProgress{MemberID: m.ID}
		}
		return &ChallengeState{
			SavingsGoalPerMember: s.SavingsGoalPerMember,
			ChallengeEndDate:     s.EndDate,
			MemberProgress:       progress,
		}
	case model.CircleEmergencyFund:
		s := cfg.Settings.(FundSettings)
		return &FundState{
			TargetFundSize: s.TargetFundSize,
			MaxWithdrawal:  s.MaxWithdrawal,
			ApprovalMethod: s.ApprovalMethod,
		}
	case model.CircleGoalBased:
		s := cfg.Settings.(GoalSettings)
		return &GoalState{
			GoalDescription: s.Description,
			TargetAmount:    s.TargetAmount,
			TargetDate:      s.TargetDate,
		}
	default:
		return &RotationState{}
	}
}
