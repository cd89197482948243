package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// DenialInsufficientBalance is recorded on a request whose approval would
// overdraw the fund.
const DenialInsufficientBalance = "insufficient_balance"

// FundState is the emergency_fund payload.
type FundState struct {
	base
	TargetFundSize     model.Money          `json:"target_fund_size"`
	CurrentFundBalance model.Money          `json:"current_fund_balance"`
	MaxWithdrawal      model.Money          `json:"max_withdrawal"`
	ApprovalMethod     model.ApprovalMethod `json:"approval_method"`
	WithdrawalRequests []WithdrawalRequest  `json:"withdrawal_requests"`
}

// WithdrawalRequest moves pending -> approved | denied and never leaves a
// resolved state.
type WithdrawalRequest struct {
	ID           string              `json:"id"`
	MemberID     string              `json:"member_id"`
	Amount       model.Money         `json:"amount"`
	Reason       string              `json:"reason"`
	Status       model.RequestStatus `json:"status"`
	Votes        []Vote              `json:"votes"`
	VotesFor     int                 `json:"votes_for"`
	VotesAgainst int                 `json:"votes_against"`
	RequestedAt  time.Time           `json:"requested_at"`
	ResolvedAt   time.Time           `json:"resolved_at"`
	ResolvedBy   string              `json:"resolved_by"`
	DenialReason string              `json:"denial_reason"`
}

// Vote is one member's ballot on a request.
type Vote struct {
	MemberID string    `json:"member_id"`
	Approve  bool      `json:"approve"`
	At       time.Time `json:"at"`
}

func (*FundState) Type() model.CircleType { return model.CircleEmergencyFund }

func (f *FundState) clone() Payload {
	cp := *f
	cp.WithdrawalRequests = make([]WithdrawalRequest, len(f.WithdrawalRequests))
	for i, r := range f.WithdrawalRequests {
		r.Votes = append([]Vote(nil), r.Votes...)
		cp.WithdrawalRequests[i] = r
	}
	return &cp
}

func (f *FundState) applyContribution(_ *Circle, ct Contribution) bool {
	f.CurrentFundBalance += ct.Amount
	return false
}

func (f *FundState) request(id string) *WithdrawalRequest {
	for i := range f.WithdrawalRequests {
		if f.WithdrawalRequests[i].ID == id {
			return &f.WithdrawalRequests[i]
		}
	}
	return nil
}

// resolve settles req. An approval that no longer fits the balance is
// turned into a denial; the balance is debited together with the approval.
func (f *FundState) resolve(req *WithdrawalRequest, approve bool, by string, at time.Time) {
	req.ResolvedAt = at
	req.ResolvedBy = by
	if !approve {
		req.Status = model.RequestDenied
		return
	}
	if req.Amount > f.CurrentFundBalance {
		req.Status = model.RequestDenied
		req.DenialReason = DenialInsufficientBalance
		return
	}
	f.CurrentFundBalance -= req.Amount
	req.Status = model.RequestApproved
}

// MajorityOutcome tallies votes among n members. A request is approved
// once votesFor > n/2 and denied once votesAgainst >= n/2; both cannot
// hold together for valid tallies.
func MajorityOutcome(votesFor, votesAgainst, n int) model.RequestStatus {
	switch {
	case votesFor*2 > n:
		return model.RequestApproved
	case votesAgainst*2 >= n:
		return model.RequestDenied
	default:
		return model.RequestPending
	}
}

// WithdrawalRequest looks up a request by ID.
func (c *Circle) WithdrawalRequest(id string) (WithdrawalRequest, bool) {
	f, ok := c.payload.(*FundState)
	if !ok {
		return WithdrawalRequest{}, false
	}
	if r := f.request(id); r != nil {
		return copyRequest(*r), true
	}
	return WithdrawalRequest{}, false
}

func copyRequest(r WithdrawalRequest) WithdrawalRequest {
	r.Votes = append([]Vote(nil), r.Votes...)
	return r
}

// RequestWithdrawal files a request against the fund. Under the automatic
// method it is resolved before returning.
func (c *Circle) RequestWithdrawal(requestID, memberID string, amount model.Money, reason string, at time.Time) (WithdrawalRequest, error) {
	if err := c.requireType(model.CircleEmergencyFund); err != nil {
		return WithdrawalRequest{}, err
	}
	if err := c.requireActive(); err != nil {
		return WithdrawalRequest{}, err
	}
	if err := c.requireMember(memberID); err != nil {
		return WithdrawalRequest{}, err
	}
	f := c.payload.(*FundState)
	if requestID == "" || f.request(requestID) != nil {
		return WithdrawalRequest{}, c.memberErrorf(ErrCodeDuplicateRequest, memberID,
			"request id %q is empty or already used", requestID)
	}
	if !amount.IsPositive() {
		return WithdrawalRequest{}, c.memberErrorf(ErrCodeInvalidAmount, memberID,
			"withdrawal must be positive, got %s", amount)
	}
	if amount > f.MaxWithdrawal {
		return WithdrawalRequest{}, c.memberErrorf(ErrCodeExceedsMaxWithdrawal, memberID,
			"%s exceeds the maximum withdrawal of %s", amount, f.MaxWithdrawal)
	}
	if amount > f.CurrentFundBalance {
		return WithdrawalRequest{}, c.memberErrorf(ErrCodeInsufficientFunds, memberID,
			"%s exceeds the fund balance of %s", amount, f.CurrentFundBalance)
	}

	f.WithdrawalRequests = append(f.WithdrawalRequests, WithdrawalRequest{
		ID:          requestID,
		MemberID:    memberID,
		Amount:      amount,
		Reason:      reason,
		Status:      model.RequestPending,
		RequestedAt: at,
	})
	req := &f.WithdrawalRequests[len(f.WithdrawalRequests)-1]
	if f.ApprovalMethod == model.Automatic {
		f.resolve(req, true, string(model.Automatic), at)
	}
	return copyRequest(*req), nil
}

// pendingRequest returns the request for a vote or decision, checking the
// approval method first.
func (c *Circle) pendingRequest(requestID string, method model.ApprovalMethod) (*FundState, *WithdrawalRequest, *Error) {
	if err := c.requireType(model.CircleEmergencyFund); err != nil {
		return nil, nil, err
	}
	if err := c.requireActive(); err != nil {
		return nil, nil, err
	}
	f := c.payload.(*FundState)
	if f.ApprovalMethod != method {
		return nil, nil, c.errorf(ErrCodeWrongApprovalMethod, "fund uses %s", f.ApprovalMethod)
	}
	req := f.request(requestID)
	if req == nil {
		return nil, nil, c.errorf(ErrCodeUnknownRequest, "no withdrawal request %q", requestID)
	}
	if req.Status.Resolved() {
		return nil, nil, c.errorf(ErrCodeRequestAlreadyResolved, "request %q is already %s", requestID, req.Status)
	}
	return f, req, nil
}

// CastVote records memberID's ballot under majority_vote and resolves the
// request once a threshold is crossed.
func (c *Circle) CastVote(requestID, memberID string, approve bool, at time.Time) (WithdrawalRequest, error) {
	f, req, err := c.pendingRequest(requestID, model.MajorityVote)
	if err != nil {
		return WithdrawalRequest{}, err
	}
	if err := c.requireMember(memberID); err != nil {
		return WithdrawalRequest{}, err
	}
	for _, v := range req.Votes {
		if v.MemberID == memberID {
			return WithdrawalRequest{}, c.memberErrorf(ErrCodeDuplicateVote, memberID,
				"already voted on request %q", requestID)
		}
	}

	req.Votes = append(req.Votes, Vote{MemberID: memberID, Approve: approve, At: at})
	if approve {
		req.VotesFor++
	} else {
		req.VotesAgainst++
	}
	switch MajorityOutcome(req.VotesFor, req.VotesAgainst, len(c.state.Members)) {
	case model.RequestApproved:
		f.resolve(req, true, string(model.MajorityVote), at)
	case model.RequestDenied:
		f.resolve(req, false, string(model.MajorityVote), at)
	}
	return copyRequest(*req), nil
}

// Decide applies the admin's final decision under admin_approval.
func (c *Circle) Decide(requestID, approverID string, approve bool, at time.Time) (WithdrawalRequest, error) {
	f, req, err := c.pendingRequest(requestID, model.AdminApproval)
	if err != nil {
		return WithdrawalRequest{}, err
	}
	if approverID != c.state.Admin {
		return WithdrawalRequest{}, c.memberErrorf(ErrCodeNotApprover, approverID,
			"only %s may decide withdrawals", c.state.Admin)
	}
	f.resolve(req, approve, approverID, at)
	return copyRequest(*req), nil
}
