package model

import "fmt"

// CircleType tags the variant of a savings circle.
type CircleType string

const (
	CircleROSCA            CircleType = "rosca"
	CircleChitFund         CircleType = "chit_fund"
	CircleSavingsChallenge CircleType = "savings_challenge"
	CircleEmergencyFund    CircleType = "emergency_fund"
	CircleGoalBased        CircleType = "goal_based"
)

// CircleTypes lists every variant in declaration order.
var CircleTypes = []CircleType{
	CircleROSCA, CircleChitFund, CircleSavingsChallenge, CircleEmergencyFund, CircleGoalBased,
}

// Valid reports whether t names a known variant.
func (t CircleType) Valid() bool {
	for _, v := range CircleTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseCircleType converts s into a CircleType.
func ParseCircleType(s string) (CircleType, error) {
	t := CircleType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid circle type %q: must be one of %v", s, CircleTypes)
	}
	return t, nil
}

// Frequency is the contribution schedule of a circle.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// ParseFrequency converts s into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case Weekly, Biweekly, Monthly:
		return f, nil
	default:
		return "", fmt.Errorf("invalid frequency %q: must be weekly, biweekly, or monthly", s)
	}
}

// Status is the lifecycle state of a circle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ApprovalMethod selects how emergency-fund withdrawals are resolved.
type ApprovalMethod string

const (
	MajorityVote  ApprovalMethod = "majority_vote"
	AdminApproval ApprovalMethod = "admin_approval"
	Automatic     ApprovalMethod = "automatic"
)

// ParseApprovalMethod converts s into an ApprovalMethod.
func ParseApprovalMethod(s string) (ApprovalMethod, error) {
	switch m := ApprovalMethod(s); m {
	case MajorityVote, AdminApproval, Automatic:
		return m, nil
	default:
		return "", fmt.Errorf("invalid approval method %q: must be majority_vote, admin_approval, or automatic", s)
	}
}

// RequestStatus is the state of a withdrawal request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

// Resolved reports whether the request reached a terminal state.
func (s RequestStatus) Resolved() bool {
	return s == RequestApproved || s == RequestDenied
}

// VerificationLevel is the identity verification a member has completed.
type VerificationLevel string

const (
	VerificationBasic    VerificationLevel = "basic"
	VerificationVerified VerificationLevel = "verified"
	VerificationPremium  VerificationLevel = "premium"
)

// Rank orders verification levels: basic=1, verified=2, premium=3.
// Unknown levels rank 0.
func (v VerificationLevel) Rank() int {
	switch v {
	case VerificationBasic:
		return 1
	case VerificationVerified:
		return 2
	case VerificationPremium:
		return 3
	default:
		return 0
	}
}

// ParseVerificationLevel converts s into a VerificationLevel.
func ParseVerificationLevel(s string) (VerificationLevel, error) {
	v := VerificationLevel(s)
	if v.Rank() == 0 {
		return "", fmt.Errorf("invalid verification level %q: must be basic, verified, or premium", s)
	}
	return v, nil
}

// TrustTier is a member's reputation level.
type TrustTier string

const (
	TierNewcomer    TrustTier = "newcomer"
	TierContributor TrustTier = "contributor"
	TierReliable    TrustTier = "reliable"
	TierTrusted     TrustTier = "trusted"
	TierPillar      TrustTier = "pillar"
)

// TrustTiers lists tiers in ascending rank order.
var TrustTiers = []TrustTier{TierNewcomer, TierContributor, TierReliable, TierTrusted, TierPillar}

// Rank returns 1..5 for known tiers, 0 otherwise.
func (t TrustTier) Rank() int {
	for i, tier := range TrustTiers {
		if tier == t {
			return i + 1
		}
	}
	return 0
}

// Next returns the tier ranked directly above t, and false for pillar.
func (t TrustTier) Next() (TrustTier, bool) {
	r := t.Rank()
	if r == 0 || r >= len(TrustTiers) {
		return "", false
	}
	return TrustTiers[r], true
}
