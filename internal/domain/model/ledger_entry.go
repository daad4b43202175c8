package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Kamigear/teens-points/internal/domain"
)

type EntryStatus string

const EntryStatusCompleted EntryStatus = "COMPLETED"

// LedgerEntry is one append-only point-change record. The ledger is the
// source of truth; member balances are projections of it.
//
// SourceCodeID links claim entries to the event code that produced them.
// Points may be negative for admin corrections.
type LedgerEntry struct {
	ID           string
	MemberID     string
	Description  string
	Points       int
	Status       EntryStatus
	SourceCodeID *string // nil for token claims and manual adjustments
	CreatedAt    time.Time
}

// ClaimEntryID derives the deterministic ledger id for a claim. The bucket is
// the week id for token claims and the event-code id for code claims, so a
// retried submission hashes to the same id and the duplicate insert becomes a
// no-op instead of a double award.
func ClaimEntryID(memberID, code, bucket string) string {
	sum := sha256.Sum256([]byte(memberID + "|" + code + "|" + bucket))
	return hex.EncodeToString(sum[:])
}

// NewAdjustmentEntry builds a manual admin adjustment. Zero deltas are
// rejected here rather than becoming silent no-ops downstream.
func NewAdjustmentEntry(memberID, description string, points int, now time.Time) (*LedgerEntry, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrInvalidArgument)
	}
	if points == 0 {
		return nil, fmt.Errorf("%w: adjustment delta must be a non-zero integer", domain.ErrInvalidArgument)
	}
	if description == "" {
		description = "Penyesuaian Manual"
	}
	return &LedgerEntry{
		ID:          ulid.Make().String(),
		MemberID:    memberID,
		Description: description,
		Points:      points,
		Status:      EntryStatusCompleted,
		CreatedAt:   now,
	}, nil
}
