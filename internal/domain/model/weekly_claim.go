package model

import (
	"time"

	"github.com/google/uuid"
)

// WeeklyClaimRecord marks that a member redeemed an attendance token for a
// given week. At most one record per (member, week) ever exists; it is the
// idempotency guard for the rotating-token path.
type WeeklyClaimRecord struct {
	ID        string
	MemberID  string
	WeekID    string
	Code      string // the token code that was redeemed
	Points    int
	ClaimedAt time.Time
}

func NewWeeklyClaimRecord(memberID, weekID, code string, points int, at time.Time) *WeeklyClaimRecord {
	return &WeeklyClaimRecord{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		WeekID:    weekID,
		Code:      code,
		Points:    points,
		ClaimedAt: at,
	}
}
