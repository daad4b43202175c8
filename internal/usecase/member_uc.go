package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

// MemberUseCase is the member read/merge surface, also consumed by the
// spreadsheet bridge: per-member {id, balance, totalClaims, lastClaimAt}
// reads and partial profile replacement. It never touches code or token
// state.
type MemberUseCase struct {
	members repository.MemberRepository
	log     *zerolog.Logger
}

func NewMemberUseCase(members repository.MemberRepository, logger *zerolog.Logger) *MemberUseCase {
	l := logger.With().Str("component", "MemberUseCase").Logger()
	return &MemberUseCase{members: members, log: &l}
}

func (uc *MemberUseCase) Get(ctx context.Context, id string) (*model.Member, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrInvalidArgument)
	}
	return uc.members.FindByID(ctx, nil, id)
}

// List returns members in leaderboard order (balance descending).
func (uc *MemberUseCase) List(ctx context.Context, offset, limit int) ([]*model.Member, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	members, err := uc.members.List(ctx, nil, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.members.Count(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// Register creates a member record (first login from the identity store).
func (uc *MemberUseCase) Register(ctx context.Context, id, displayName string) (*model.Member, error) {
	m, err := model.NewMember(id, displayName)
	if err != nil {
		return nil, err
	}
	if err := uc.members.Save(ctx, nil, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge performs a partial profile replacement. Balance, claim counters and
// timestamps are never mergeable; they only move through claims and
// adjustments.
func (uc *MemberUseCase) Merge(ctx context.Context, id string, displayName *string) (*model.Member, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrInvalidArgument)
	}
	if displayName != nil && *displayName == "" {
		return nil, fmt.Errorf("%w: display name cannot be blanked", domain.ErrInvalidArgument)
	}
	if err := uc.members.Merge(ctx, nil, id, displayName); err != nil {
		return nil, err
	}
	return uc.members.FindByID(ctx, nil, id)
}
