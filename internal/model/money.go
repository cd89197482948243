package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in integer minor units (e.g. cents).
// Floating point is never used for money so bid and commission math
// cannot drift.
type Money int64

// String renders the amount with two decimal places ("12.34").
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m > 0
}

// ParseMoney parses a decimal string ("12.34", "12", "0.5") into minor units.
// At most two fractional digits are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("invalid amount %q: expected at most two decimal places", s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	var f int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Money(v), nil
}

// BasisPointsPerPercent converts whole percent to basis points.
const BasisPointsPerPercent = 100

// FullPercent is 100% expressed in basis points.
const FullPercent Percent = 100 * BasisPointsPerPercent

// Percent is a percentage in basis points (1% = 100).
type Percent int64

// Pct returns whole percent p as a Percent.
func Pct(p int64) Percent {
	return Percent(p * BasisPointsPerPercent)
}

// Of returns the share of m this percentage represents, rounded down.
func (p Percent) Of(m Money) Money {
	return Money(int64(m) * int64(p) / int64(FullPercent))
}

// Complement returns 100% - p.
func (p Percent) Complement() Percent {
	return FullPercent - p
}

// String renders the percentage ("12%", "12.5%").
func (p Percent) String() string {
	whole := int64(p) / BasisPointsPerPercent
	frac := int64(p) % BasisPointsPerPercent
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%02d", whole, frac), "0") + "%"
}

// ParsePercent parses a percentage with at most two decimals ("12",
// "12.5", "12.5%") into basis points.
func ParsePercent(s string) (Percent, error) {
	v, err := ParseMoney(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid percent %q: %w", s, err)
	}
	return Percent(v), nil
}

// Ratio returns num/den as a Percent, rounded down. A zero denominator yields 0.
func Ratio(num, den int64) Percent {
	if den == 0 {
		return 0
	}
	return Percent(num * int64(FullPercent) / den)
}
