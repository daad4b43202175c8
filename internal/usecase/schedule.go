package usecase

import (
	"fmt"
	"time"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

// ResolveAward maps a claim instant to the points awarded under the
// attendance schedule: slot1 points up to and including slot1Time, slot2
// points up to and including slot2Time, the default after that. Pure
// function; callers tolerate a stale settings snapshot.
func ResolveAward(now time.Time, s model.AttendanceSettings) int {
	s = s.WithDefaults()
	hm := now.Format("15:04")
	if hm <= s.Slot1Time {
		return s.Slot1Points
	}
	if hm <= s.Slot2Time {
		return s.Slot2Points
	}
	return s.DefaultPoints
}

// WeekID renders the week identifier "{year}-W{ww}". The week number follows
// the ISO-8601 Thursday rule; the year is the calendar year of t, matching
// the identifiers already present in historical claim records.
func WeekID(t time.Time) string {
	return fmt.Sprintf("%d-W%02d", t.Year(), weekNumber(t))
}

func weekNumber(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	dayNum := int(d.Weekday())
	if dayNum == 0 {
		dayNum = 7
	}
	// Shift to the Thursday of this week; its offset from Jan 1 decides the
	// week number.
	d = d.AddDate(0, 0, 4-dayNum)
	yearStart := time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(yearStart).Hours() / 24)
	return days/7 + 1
}
