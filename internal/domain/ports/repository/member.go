package repository

import (
	"context"
	"time"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

// MemberRepository persists member records. Balance writes are always
// relative increments so concurrent unrelated claims never lose updates.
type MemberRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Member) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Member, error)
	// List returns members ordered by balance descending (leaderboard order).
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Member, error)
	Count(ctx context.Context, tx Tx) (int, error)

	// ApplyClaim records a successful token claim: balance += points,
	// totalClaims += 1, lastClaimAt = at.
	ApplyClaim(ctx context.Context, tx Tx, memberID string, points int, at time.Time) error

	// AdjustBalance applies a relative delta to the cached balance only.
	// Used by event-code claims, manual adjustments and entry deletion.
	AdjustBalance(ctx context.Context, tx Tx, memberID string, delta int) error

	// Merge performs a partial profile replacement; nil fields are left
	// untouched. It never writes balance or claim counters.
	Merge(ctx context.Context, tx Tx, id string, displayName *string) error
}
