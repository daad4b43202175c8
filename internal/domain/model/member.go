package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kamigear/teens-points/internal/domain"
)

// Member is the community member record. Balance and TotalClaims are cached
// projections of the ledger; they are mutated only through claim and
// adjustment operations, never written directly by callers.
type Member struct {
	ID           string
	DisplayName  string
	Balance      int
	TotalClaims  int
	LastClaimAt  *time.Time // nil until the first successful token claim
	IsAdmin      bool
	RegisteredAt time.Time
}

func NewMember(id, displayName string) (*Member, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", domain.ErrInvalidArgument)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Member{
		ID:           id,
		DisplayName:  displayName,
		RegisteredAt: time.Now(),
	}, nil
}
