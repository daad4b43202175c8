package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

// CodeUseCase covers event-code administration.
type CodeUseCase struct {
	codes repository.EventCodeRepository
	log   *zerolog.Logger
}

func NewCodeUseCase(codes repository.EventCodeRepository, logger *zerolog.Logger) *CodeUseCase {
	l := logger.With().Str("component", "CodeUseCase").Logger()
	return &CodeUseCase{codes: codes, log: &l}
}

// Create mints an event code. An empty customCode gets a random 8-character
// code; collisions with existing codes or with the rotating-token namespace
// are rejected.
func (uc *CodeUseCase) Create(ctx context.Context, createdBy, eventName string, points int, claimType model.ClaimType, customCode string) (*model.EventCode, error) {
	ec, err := model.NewEventCode(createdBy, eventName, points, claimType, customCode)
	if err != nil {
		return nil, err
	}

	if _, err := uc.codes.FindByCode(ctx, nil, ec.Code); err == nil {
		return nil, fmt.Errorf("%w: code %q", domain.ErrAlreadyExists, ec.Code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// The unique index on code backstops the pre-check under races.
	if err := uc.codes.Save(ctx, nil, ec); err != nil {
		return nil, err
	}
	uc.log.Info().Str("code", ec.Code).Str("claim_type", string(ec.ClaimType)).Int("points", ec.Points).Str("created_by", createdBy).Msg("event code created")
	return ec, nil
}

func (uc *CodeUseCase) List(ctx context.Context) ([]*model.EventCode, error) {
	return uc.codes.List(ctx, nil)
}

// Delete removes a code. Ledger entries produced by it are history and stay.
func (uc *CodeUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: code id is required", domain.ErrInvalidArgument)
	}
	return uc.codes.Delete(ctx, nil, id)
}
