package circle

import (
	"errors"
	"fmt"
)

// Code identifies an error condition.
type Code string

const (
	// Configuration errors.
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"

	// State-conflict errors.
	ErrCodeUnknownMember          Code = "UNKNOWN_MEMBER"
	ErrCodeDuplicateContribution  Code = "DUPLICATE_CONTRIBUTION"
	ErrCodeInvalidAmount          Code = "INVALID_AMOUNT"
	ErrCodeCycleMismatch          Code = "CYCLE_MISMATCH"
	ErrCodeCircleNotActive        Code = "CIRCLE_NOT_ACTIVE"
	ErrCodeAlreadyStarted         Code = "CIRCLE_ALREADY_STARTED"
	ErrCodeWrongVariant           Code = "WRONG_VARIANT"
	ErrCodeNotRecipient           Code = "NOT_RECIPIENT"
	ErrCodeDuplicatePayout        Code = "DUPLICATE_PAYOUT"
	ErrCodeBidBelowFloor          Code = "BID_BELOW_FLOOR"
	ErrCodeBidTooHigh             Code = "BID_TOO_HIGH"
	ErrCodeMemberAlreadyWon       Code = "MEMBER_ALREADY_WON"
	ErrCodeChallengeEnded         Code = "CHALLENGE_ENDED"
	ErrCodeExceedsMaxWithdrawal   Code = "EXCEEDS_MAX_WITHDRAWAL"
	ErrCodeInsufficientFunds      Code = "INSUFFICIENT_FUND_BALANCE"
	ErrCodeUnknownRequest         Code = "UNKNOWN_REQUEST"
	ErrCodeDuplicateRequest       Code = "DUPLICATE_REQUEST"
	ErrCodeRequestAlreadyResolved Code = "REQUEST_ALREADY_RESOLVED"
	ErrCodeDuplicateVote          Code = "DUPLICATE_VOTE"
	ErrCodeWrongApprovalMethod    Code = "WRONG_APPROVAL_METHOD"
	ErrCodeNotApprover            Code = "NOT_APPROVER"

	// Invariant violations: the caller sequenced operations incorrectly.
	ErrCodeCycleIncomplete   Code = "CYCLE_INCOMPLETE"
	ErrCodePayoutNotRecorded Code = "PAYOUT_NOT_RECORDED"
	ErrCodeNoBidsSubmitted   Code = "NO_BIDS_SUBMITTED"
)

// Category groups codes by how a caller should react.
type Category int

const (
	// CategoryConfiguration: rejected before any state existed; retry with corrected input.
	CategoryConfiguration Category = iota + 1
	// CategoryConflict: rejected, state unchanged; retry with different input.
	CategoryConflict
	// CategoryInvariant: a sequencing bug on the caller side.
	CategoryInvariant
)

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryConflict:
		return "state_conflict"
	case CategoryInvariant:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Category returns the category of the code.
func (c Code) Category() Category {
	switch c {
	case ErrCodeInvalidConfiguration:
		return CategoryConfiguration
	case ErrCodeCycleIncomplete, ErrCodePayoutNotRecorded, ErrCodeNoBidsSubmitted:
		return CategoryInvariant
	default:
		return CategoryConflict
	}
}

// Error is returned by every circle operation that rejects its input.
// The circle is never modified when an *Error is returned.
type Error struct {
	// Code identifies the error condition.
	Code Code

	// Message is a human-readable description.
	Message string

	// CircleID identifies the affected circle, when known.
	CircleID string

	// MemberID identifies the member involved, when relevant.
	MemberID string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.CircleID != "" && e.MemberID != "":
		return fmt.Sprintf("%s: %s (circle=%s, member=%s)", e.Code, e.Message, e.CircleID, e.MemberID)
	case e.CircleID != "":
		return fmt.Sprintf("%s: %s (circle=%s)", e.Code, e.Message, e.CircleID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// CodeOf extracts the code from err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsConflict reports whether err is a state-conflict error.
func IsConflict(err error) bool {
	code := CodeOf(err)
	return code != "" && code.Category() == CategoryConflict
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (c *Circle) errorf(code Code, format string, args ...any) *Error {
	e := newError(code, format, args...)
	e.CircleID = c.state.ID
	return e
}

func (c *Circle) memberErrorf(code Code, memberID, format string, args ...any) *Error {
	e := c.errorf(code, format, args...)
	e.MemberID = memberID
	return e
}

func invalidConfig(format string, args ...any) *Error {
	return newError(ErrCodeInvalidConfiguration, format, args...)
}
