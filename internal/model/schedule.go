package model

import "time"

// Schedule maps 1-based cycle numbers onto calendar periods.
// Cycle 1 starts at Start; each cycle lasts one Frequency step.
type Schedule struct {
	Start     time.Time
	Frequency Frequency
}

// step advances t by n frequency steps.
func (s Schedule) step(t time.Time, n int) time.Time {
	switch s.Frequency {
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Biweekly:
		return t.AddDate(0, 0, 14*n)
	default:
		return t.AddDate(0, n, 0)
	}
}

// PeriodStart returns when the given cycle opens.
func (s Schedule) PeriodStart(cycle int) time.Time {
	if cycle < 1 {
		cycle = 1
	}
	return s.step(s.Start, cycle-1)
}

// PeriodEnd returns when the given cycle closes (exclusive), i.e. the
// moment the next cycle's contribution falls due.
func (s Schedule) PeriodEnd(cycle int) time.Time {
	return s.PeriodStart(cycle + 1)
}

// CycleAt returns the cycle whose period contains t. Times before Start
// map to cycle 1.
func (s Schedule) CycleAt(t time.Time) int {
	if !t.After(s.Start) {
		return 1
	}
	cycle := 1
	for !t.Before(s.PeriodEnd(cycle)) {
		cycle++
	}
	return cycle
}
