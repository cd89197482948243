package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_String(t *testing.T) {
	tests := []struct {
		in   Money
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{440000, "4400.00"},
		{-1234, "-12.34"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12", 1200, false},
		{"0.5", 50, false},
		{"-3.10", -310, false},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"5.", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercent_Of(t *testing.T) {
	// 5000.00 pot at 12% discount keeps 88%.
	pot := Money(500000)
	assert.Equal(t, Money(440000), Pct(12).Complement().Of(pot))
	assert.Equal(t, Money(15000), Pct(3).Of(pot))

	// Rounds down.
	assert.Equal(t, Money(3), Pct(33).Of(Money(10)))
}

func TestPercent_String(t *testing.T) {
	assert.Equal(t, "12%", Pct(12).String())
	assert.Equal(t, "12.5%", Percent(1250).String())
	assert.Equal(t, "0.05%", Percent(5).String())
}

func TestParsePercent(t *testing.T) {
	for in, want := range map[string]Percent{"12": Pct(12), "12.5": 1250, " 7.25% ": 725, "0": 0} {
		got, err := ParsePercent(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "%", "1.234", "abc"} {
		_, err := ParsePercent(in)
		assert.Error(t, err, in)
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, Pct(50), Ratio(1, 2))
	assert.Equal(t, Percent(3333), Ratio(1, 3))
	assert.Equal(t, Percent(0), Ratio(1, 0))
	assert.Equal(t, Pct(150), Ratio(3, 2))
}

func TestTrustTier_RankAndNext(t *testing.T) {
	assert.Equal(t, 1, TierNewcomer.Rank())
	assert.Equal(t, 5, TierPillar.Rank())
	assert.Equal(t, 0, TrustTier("bogus").Rank())

	next, ok := TierReliable.Next()
	assert.True(t, ok)
	assert.Equal(t, TierTrusted, next)

	_, ok = TierPillar.Next()
	assert.False(t, ok)
}

func TestParseEnums(t *testing.T) {
	_, err := ParseCircleType("rosca")
	assert.NoError(t, err)
	_, err = ParseCircleType("lottery")
	assert.Error(t, err)

	_, err = ParseFrequency("daily")
	assert.Error(t, err)

	m, err := ParseApprovalMethod("automatic")
	require.NoError(t, err)
	assert.Equal(t, Automatic, m)

	v, err := ParseVerificationLevel("premium")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Rank())
	_, err = ParseVerificationLevel("gold")
	assert.Error(t, err)
}
