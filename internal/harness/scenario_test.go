package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: pair_start
description: "Starting a two-member rotation"
circle: |
  circle: pair: {
    name: "Pair", type: "rosca", members: ["a", "b"], contribution: 100, cycles: 2
  }
steps:
  - op: start
  - {op: contribute, member: a, amount: 100}
  - {op: withdraw, member: a, amount: 50, as: first, expect: {code: WRONG_VARIANT}}
  - {op: vote, member: b, request: first, approve: true, expect: {code: WRONG_VARIANT}}
assertions:
  - {type: event_count, kind: contribution.recorded, count: 1}
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "pair.yaml", validScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "pair_start", scenario.Name)
	assert.Contains(t, scenario.Circle, `circle: pair:`)
	assert.Equal(t, DefaultStart, scenario.Start)
	require.Len(t, scenario.Steps, 4)
	assert.Equal(t, Step{Op: OpContribute, Member: "a", Amount: 100}, scenario.Steps[1])
	assert.Equal(t, "first", scenario.Steps[2].As)
	assert.Equal(t, "WRONG_VARIANT", scenario.Steps[2].Expect.Code)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertEventCount, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_ExplicitStart(t *testing.T) {
	scenario, err := ParseScenario([]byte(validScenario + "start: 2024-06-01T12:00:00Z\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), scenario.Start.UTC())
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(validScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ncircle: c\nsteps: [{op: start}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ncircle: c\nsteps: [{op: start}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing circle",
			content: "name: n\ndescription: d\nsteps: [{op: start}]\n",
			wantErr: "circle is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\ncircle: c\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: explode}]\n",
			wantErr: `steps[0]: unknown op "explode"`,
		},
		{
			name:    "contribute without amount",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: contribute, member: a}]\n",
			wantErr: "contribute requires amount",
		},
		{
			name:    "payout without member",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: start}, {op: payout}]\n",
			wantErr: "steps[1]: payout requires member",
		},
		{
			name:    "vote without request",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: vote, member: a}]\n",
			wantErr: "vote requires request",
		},
		{
			name:    "bad wait duration",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: wait, duration: soon}]\n",
			wantErr: "wait requires a duration",
		},
		{
			name:    "event_order with one kind",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: start}]\nassertions: [{type: event_order, kinds: [a]}]\n",
			wantErr: "assertions[0]: event_order requires at least two kinds",
		},
		{
			name:    "trust without member",
			content: "name: n\ndescription: d\ncircle: c\nsteps: [{op: start}]\nassertions: [{type: trust, expect: {trust_points: 5}}]\n",
			wantErr: "trust requires member and expect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", validScenario)
	writeScenario(t, dir, "a.yml", validScenario)
	writeScenario(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	writeScenario(t, filepath.Join(dir, "nested"), "c.yaml", validScenario)

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, paths)
}

func TestScenarioFixtures_Parse(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}
