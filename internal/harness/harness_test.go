package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kitty/internal/model"
)

const pairCircle = `
circle: pair: {
	name:         "Pair"
	type:         "rosca"
	members:      ["ana", "ben"]
	contribution: 5000
	cycles:       2
}
`

func TestScenarios_Golden(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file")
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_TraceStartsWithCreate(t *testing.T) {
	scenario := &Scenario{
		Name:        "pair",
		Description: "two members",
		Circle:      pairCircle,
		Steps: []Step{
			{Op: OpStart},
			{Op: OpContribute, Member: "ana", Amount: 5000},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "pair", result.CircleID)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, TraceEvent{Op: "create", Outcome: OutcomeOK, Seq: 1}, result.Trace[0])
	assert.Equal(t, TraceEvent{Step: 1, Op: OpStart, Outcome: OutcomeOK, Seq: 2}, result.Trace[1])
	assert.Equal(t, TraceEvent{Step: 2, Op: OpContribute, Member: "ana", Outcome: OutcomeOK, Seq: 3}, result.Trace[2])

	require.NotNil(t, result.Final)
	assert.Equal(t, model.Money(5000), result.Final.TotalPot)
}

func TestRun_UnexpectedOutcomeFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "pair",
		Description: "expects a rejection that does not happen",
		Circle:      pairCircle,
		Steps: []Step{
			{Op: OpStart},
			{Op: OpContribute, Member: "ana", Amount: 5000, Expect: &Expect{Code: "DUPLICATE_CONTRIBUTION"}},
			{Op: OpContribute, Member: "ana", Amount: 5000},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "step 2 (contribute ana): expected DUPLICATE_CONTRIBUTION, got ok")
	assert.Contains(t, result.Errors[1], "step 3 (contribute ana): expected ok, got DUPLICATE_CONTRIBUTION")
	assert.Zero(t, result.Trace[3].Seq, "rejected step logs nothing")
}

func TestRun_ResultMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "pair",
		Description: "wrong amount in the expected result",
		Circle:      pairCircle,
		Steps: []Step{
			{Op: OpStart},
			{Op: OpContribute, Member: "ben", Amount: 5000, Expect: &Expect{Result: map[string]any{"amount": 4000}}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "result mismatch: amount: expected 4000, got 5000")
}

func TestRun_FailedAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "pair",
		Description: "miscounted events",
		Circle:      pairCircle,
		Steps:       []Step{{Op: OpStart}},
		Assertions: []Assertion{
			{Type: AssertEventCount, Kind: model.EventCircleStarted, Count: 2},
			{Type: AssertReplay},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 0")
	assert.Contains(t, result.Errors[0], "Expected: 2 occurrences of circle.started")
}

func TestRun_CompileError(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "contribution has the wrong type",
		Circle:      `circle: x: {name: "X", type: "rosca", members: ["a"], contribution: "lots", cycles: 1}`,
		Steps:       []Step{{Op: OpStart}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile circle")
}

func TestRun_RequiresExactlyOneCircle(t *testing.T) {
	scenario := &Scenario{
		Name:        "twins",
		Description: "two circles",
		Circle: pairCircle + `
circle: other: {
	name:         "Other"
	type:         "rosca"
	members:      ["cy", "di"]
	contribution: 100
	cycles:       2
}
`,
		Steps: []Step{{Op: OpStart}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one circle, found 2")
}

func TestRun_WaitMovesClock(t *testing.T) {
	scenario := &Scenario{
		Name:        "late",
		Description: "a challenge ends while members wait",
		Circle: `
circle: late: {
	name:         "Late"
	type:         "savings_challenge"
	members:      ["a", "b"]
	contribution: 100
	cycles:       2
	challenge: {savings_goal_per_member: 1000, end_date: "2025-01-10"}
}
`,
		Steps: []Step{
			{Op: OpStart},
			{Op: OpWait, Duration: "96h"},
			{Op: OpContribute, Member: "a", Amount: 100, Expect: &Expect{Code: "CHALLENGE_ENDED"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestMarshalTrace_OmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.CircleID = "c"
	result.AddTrace(TraceEvent{Op: "create", Outcome: OutcomeOK, Seq: 1})
	result.AddTrace(TraceEvent{Step: 1, Op: OpView, Member: "a", Outcome: OutcomeOK})

	data, err := MarshalTrace("demo", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"circle_id":"c","scenario_name":"demo","trace":[{"op":"create","outcome":"ok","seq":1,"step":0},{"member":"a","op":"view","outcome":"ok","step":1}]}`,
		string(data))
}
