package trust

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// ActivityRecord is an immutable summary of one member's participation in a
// completed circle. It is owned by the member it describes.
type ActivityRecord struct {
	ID                 string           `json:"id"`
	MemberID           string           `json:"member_id"`
	CircleID           string           `json:"circle_id"`
	CircleName         string           `json:"circle_name"`
	CircleType         model.CircleType `json:"circle_type"`
	ContributionAmount model.Money      `json:"contribution_amount"`
	TotalContributions model.Money      `json:"total_contributions"`
	CyclesDue          int              `json:"cycles_due"`
	CyclesOnTime       int              `json:"cycles_on_time"`
	OnTimePercentage   int              `json:"on_time_percentage"`
	TrustPoints        int              `json:"trust_points"`
	CompletedAt        time.Time        `json:"completed_at"`
}

// NewActivityRecord builds a record with its content-addressed ID, on-time
// percentage and awarded points filled in.
func NewActivityRecord(memberID, circleID, circleName string, circleType model.CircleType,
	contribution, total model.Money, cyclesDue, cyclesOnTime int, completedAt time.Time) ActivityRecord {
	onTime := OnTimePercentage(cyclesOnTime, cyclesDue)
	return ActivityRecord{
		ID:                 model.ActivityID(memberID, circleID),
		MemberID:           memberID,
		CircleID:           circleID,
		CircleName:         circleName,
		CircleType:         circleType,
		ContributionAmount: contribution,
		TotalContributions: total,
		CyclesDue:          cyclesDue,
		CyclesOnTime:       cyclesOnTime,
		OnTimePercentage:   onTime,
		TrustPoints:        PointsFor(onTime),
		CompletedAt:        completedAt,
	}
}

// OnTimePercentage returns onTime/due as a whole percentage, rounded down.
// A member with nothing due is considered fully on time.
func OnTimePercentage(onTime, due int) int {
	if due <= 0 {
		return 100
	}
	return onTime * 100 / due
}

// PointsFor awards 5 points for completing a circle plus one point per
// on-time percentage point above 80.
func PointsFor(onTimePct int) int {
	bonus := onTimePct - 80
	if bonus < 0 {
		bonus = 0
	}
	return 5 + bonus
}
