package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketChit = `
circle: market: {
	name:         "Market Chit"
	type:         "chit_fund"
	members:      ["a", "b", "c"]
	contribution: 10000
	cycles:       3
	auction: {pot_value: 500000, min_bid_discount: 5, organizer_commission: 3}
}
`

const shelterFund = `
circle: shelter: {
	name:         "Shelter Fund"
	type:         "emergency_fund"
	members:      ["host", "guest"]
	admin:        "host"
	contribution: 4000
	cycles:       2
	fund: {target_fund_size: 40000, max_withdrawal: 5000, approval_method: "admin_approval"}
}
`

// newCircleDB creates the circles in src, started, in a fresh database.
func newCircleDB(t *testing.T, src string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "kitty.db")
	must(t, db, "create", writeCircleFile(t, src), "--start")
	return db
}

// rejected runs a command that must fail with a circle error code.
func rejected(t *testing.T, db, code string, args ...string) {
	t.Helper()
	resp, err := kittyJSON(t, db, args...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func TestCreate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitty.db")
	resp := must(t, db, "create", writeCircleFile(t, rentClub))

	created, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, created, 1)
	assert.Equal(t, map[string]any{
		"id":      "rent-club",
		"name":    "Rent Club",
		"type":    "rosca",
		"members": float64(2),
		"status":  "pending",
	}, created[0])
}

func TestCreate_Start(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitty.db")
	resp := must(t, db, "create", writeCircleFile(t, rentClub), "--start")
	created := resp.Data.([]any)
	assert.Equal(t, "active", created[0].(map[string]any)["status"])
}

func TestCreate_Twice(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitty.db")
	path := writeCircleFile(t, rentClub)
	must(t, db, "create", path)
	rejected(t, db, "CIRCLE_EXISTS", "create", path)
}

func TestCreate_InvalidCreatesNothing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitty.db")
	_, err := kittyJSON(t, db, "create", writeCircleFile(t, rentClub+`
circle: short: {
	name:         "Short"
	type:         "rosca"
	members:      ["ana", "ben", "cy"]
	contribution: 10000
	cycles:       2
}
`))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := must(t, db, "show")
	assert.Empty(t, resp.Data)
}

func TestStart_Twice(t *testing.T) {
	db := newCircleDB(t, rentClub)
	rejected(t, db, "CIRCLE_ALREADY_STARTED", "start", "rent-club")
}

func TestStart_UnknownCircle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitty.db")
	rejected(t, db, "CIRCLE_NOT_FOUND", "start", "nowhere")
}

func TestRoscaRotation(t *testing.T) {
	db := newCircleDB(t, rentClub)

	ct := dataMap(t, must(t, db, "contribute", "rent-club", "ana", "100"))
	assert.Equal(t, "ana", ct["member_id"])
	assert.Equal(t, float64(10000), ct["amount"])
	assert.Equal(t, float64(1), ct["cycle"])
	assert.Equal(t, true, ct["on_time"])

	rejected(t, db, "DUPLICATE_CONTRIBUTION", "contribute", "rent-club", "ana", "100")
	rejected(t, db, "CYCLE_INCOMPLETE", "payout", "rent-club", "ana")
	must(t, db, "contribute", "rent-club", "ben", "100.00")
	rejected(t, db, "NOT_RECIPIENT", "payout", "rent-club", "ben")
	rejected(t, db, "PAYOUT_NOT_RECORDED", "advance", "rent-club")

	p := dataMap(t, must(t, db, "payout", "rent-club", "ana"))
	assert.Equal(t, float64(20000), p["amount"])

	adv := dataMap(t, must(t, db, "advance", "rent-club"))
	assert.Equal(t, map[string]any{"from": float64(1), "to": float64(2), "completed": false}, adv)

	must(t, db, "contribute", "rent-club", "ana", "100")
	must(t, db, "contribute", "rent-club", "ben", "100")
	must(t, db, "payout", "rent-club", "ben")
	adv = dataMap(t, must(t, db, "advance", "rent-club"))
	assert.Equal(t, true, adv["completed"])

	rejected(t, db, "CIRCLE_NOT_ACTIVE", "contribute", "rent-club", "ana", "100")

	view := dataMap(t, must(t, db, "show", "rent-club"))
	assert.Equal(t, "completed", view["status"])
	assert.Equal(t, float64(40000), view["total_contributed"])
}

func TestContribute_BadAmount(t *testing.T) {
	db := newCircleDB(t, rentClub)
	for _, amount := range []string{"ten", "1.234", "0.5.0"} {
		t.Run(amount, func(t *testing.T) {
			resp, err := kittyJSON(t, db, "contribute", "rent-club", "ana", amount)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, ErrCodeBadArgument, resp.Error.Code)
		})
	}
}

func TestContribute_WrongVariantCommand(t *testing.T) {
	db := newCircleDB(t, rentClub)
	rejected(t, db, "WRONG_VARIANT", "bid", "rent-club", "ana", "10")
	rejected(t, db, "WRONG_VARIANT", "withdraw", "rent-club", "ana", "10")
}

func TestChitAuction(t *testing.T) {
	db := newCircleDB(t, marketChit)
	for _, m := range []string{"a", "b", "c"} {
		must(t, db, "contribute", "market", m, "100")
	}

	rejected(t, db, "BID_BELOW_FLOOR", "bid", "market", "a", "4")
	rejected(t, db, "BID_TOO_HIGH", "bid", "market", "a", "98")

	out := dataMap(t, must(t, db, "bid", "market", "a", "12"))
	assert.Equal(t, true, out["leading"])
	out = dataMap(t, must(t, db, "bid", "market", "b", "15"))
	assert.Equal(t, false, out["leading"])

	r := dataMap(t, must(t, db, "resolve", "market"))
	res := r["result"].(map[string]any)
	assert.Equal(t, "a", res["winner_id"])
	assert.Equal(t, float64(1200), res["discount"])
	assert.Equal(t, float64(425000), res["received"])
	assert.Equal(t, float64(30000), res["dividend_per_member"])
	assert.Equal(t, float64(2), r["advance"].(map[string]any)["to"])

	rejected(t, db, "MEMBER_ALREADY_WON", "bid", "market", "a", "10")
	rejected(t, db, "NO_BIDS_SUBMITTED", "resolve", "market")

	must(t, db, "bid", "market", "b", "15")
	rejected(t, db, "CYCLE_INCOMPLETE", "resolve", "market")
	rejected(t, db, "WRONG_VARIANT", "advance", "market")
}

func TestBid_BadDiscount(t *testing.T) {
	db := newCircleDB(t, marketChit)
	resp, err := kittyJSON(t, db, "bid", "market", "a", "lots")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeBadArgument, resp.Error.Code)
}

func TestEmergencyFund_AdminApproval(t *testing.T) {
	useSequenceIDs(t)
	db := newCircleDB(t, shelterFund)
	must(t, db, "contribute", "shelter", "host", "40")
	must(t, db, "contribute", "shelter", "guest", "30")

	rejected(t, db, "EXCEEDS_MAX_WITHDRAWAL", "withdraw", "shelter", "guest", "60")

	req := dataMap(t, must(t, db, "withdraw", "shelter", "guest", "50", "--reason", "rent"))
	assert.Equal(t, "req-2", req["id"], "the rejected request consumed req-1")
	assert.Equal(t, "pending", req["status"])
	assert.Equal(t, "rent", req["reason"])

	rejected(t, db, "NOT_APPROVER", "decide", "shelter", "req-2", "guest")
	rejected(t, db, "WRONG_APPROVAL_METHOD", "vote", "shelter", "req-2", "host")
	rejected(t, db, "UNKNOWN_REQUEST", "decide", "shelter", "req-9", "host")

	req = dataMap(t, must(t, db, "decide", "shelter", "req-2", "host"))
	assert.Equal(t, "approved", req["status"])
	assert.Equal(t, "host", req["resolved_by"])
	rejected(t, db, "REQUEST_ALREADY_RESOLVED", "decide", "shelter", "req-2", "host", "--deny")

	view := dataMap(t, must(t, db, "show", "shelter"))
	fund := view["fund"].(map[string]any)
	assert.Equal(t, float64(2000), fund["current_fund_balance"])
	assert.Equal(t, float64(0), fund["pending_requests"])
}

func TestEmergencyFund_DenyDecision(t *testing.T) {
	useSequenceIDs(t)
	db := newCircleDB(t, shelterFund)
	must(t, db, "contribute", "shelter", "host", "40")
	must(t, db, "withdraw", "shelter", "host", "20", "--reason", "paint")

	req := dataMap(t, must(t, db, "decide", "shelter", "req-1", "host", "--deny"))
	assert.Equal(t, "denied", req["status"])
}

func TestCommands_TextOutput(t *testing.T) {
	db := newCircleDB(t, rentClub)

	out, err := kitty(t, db, "contribute", "rent-club", "ben", "100", "--cycle", "1")
	require.NoError(t, err)
	assert.Equal(t, "✓ ben contributed 100.00 for cycle 1\n", out)

	out, err = kitty(t, db, "payout", "rent-club", "ana")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [CYCLE_INCOMPLETE]")
}
