package model

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Kamigear/teens-points/internal/domain"
)

type ClaimType string

const (
	// ClaimTypeMulti codes are repeatable: every member may claim once.
	ClaimTypeMulti ClaimType = "MULTI"
	// ClaimTypeSingleGlobal codes are awarded to exactly one member
	// system-wide; the first successful claim is terminal.
	ClaimTypeSingleGlobal ClaimType = "SINGLE_GLOBAL"
)

type CodeStatus string

const (
	CodeStatusActive  CodeStatus = "ACTIVE"
	CodeStatusClaimed CodeStatus = "CLAIMED"
)

const (
	eventCodeLength   = 8
	eventCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// EventCode is an administrator-issued code with a fixed point value.
// Status only ever changes for SINGLE_GLOBAL codes (ACTIVE -> CLAIMED, once);
// MULTI codes stay ACTIVE and per-member tracking lives in the ledger.
type EventCode struct {
	ID        string
	Code      string
	EventName string
	Points    int
	ClaimType ClaimType
	Status    CodeStatus
	ClaimedBy *string
	ClaimedAt *time.Time
	CreatedBy string
	CreatedAt time.Time
}

// NewEventCode validates admin input and generates a random code when none is
// supplied. Codes in the rotating-token format are rejected: the claim
// processor resolves tokens first, so a colliding event code would be
// unreachable.
func NewEventCode(createdBy, eventName string, points int, claimType ClaimType, customCode string) (*EventCode, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: points must be a positive integer", domain.ErrInvalidArgument)
	}
	if claimType != ClaimTypeMulti && claimType != ClaimTypeSingleGlobal {
		return nil, fmt.Errorf("%w: unknown claim type %q", domain.ErrInvalidArgument, claimType)
	}
	if createdBy == "" {
		return nil, fmt.Errorf("%w: creator is required", domain.ErrInvalidArgument)
	}

	code := customCode
	if code == "" {
		var err error
		code, err = randomCode(eventCodeAlphabet, eventCodeLength)
		if err != nil {
			return nil, err
		}
	}
	if IsTokenFormat(code) {
		return nil, fmt.Errorf("%w: code %q collides with the rotating-token namespace", domain.ErrInvalidArgument, code)
	}

	return &EventCode{
		ID:        ulid.Make().String(),
		Code:      code,
		EventName: eventName,
		Points:    points,
		ClaimType: claimType,
		Status:    CodeStatusActive,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}, nil
}

// Claimed reports whether a SINGLE_GLOBAL code has already been won.
func (c *EventCode) Claimed() bool {
	return c.Status == CodeStatusClaimed || c.ClaimedBy != nil
}
