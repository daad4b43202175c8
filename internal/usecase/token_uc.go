package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
	"github.com/Kamigear/teens-points/internal/infra/metrics"
)

// TokenUseCase implements the token lifecycle operations the minter worker
// and the admin display run on: mint, purge, current.
type TokenUseCase struct {
	tokens   repository.RotatingTokenRepository
	settings repository.SettingsRepository
	log      *zerolog.Logger

	now func() time.Time
}

func NewTokenUseCase(tokens repository.RotatingTokenRepository, settings repository.SettingsRepository, logger *zerolog.Logger) *TokenUseCase {
	l := logger.With().Str("component", "TokenUseCase").Logger()
	return &TokenUseCase{tokens: tokens, settings: settings, log: &l, now: time.Now}
}

// Mint issues a fresh rotating token for the current week. Settings failures
// fall back to defaults: the minter must keep issuing tokens even when the
// shared config record is unreachable.
func (uc *TokenUseCase) Mint(ctx context.Context) (*model.RotatingToken, error) {
	settings, err := uc.settings.Get(ctx, nil)
	if err != nil {
		uc.log.Warn().Err(err).Msg("settings unavailable, minting with defaults")
		settings = model.DefaultAttendanceSettings()
	}

	now := uc.now()
	token, err := model.NewRotatingToken(now, settings.TokenValidity(), WeekID(now))
	if err != nil {
		return nil, err
	}
	if err := uc.tokens.Save(ctx, nil, token); err != nil {
		return nil, err
	}
	metrics.IncTokensMinted()
	uc.log.Debug().Str("code", token.Code).Time("expires_at", token.ExpiresAt).Msg("token minted")
	return token, nil
}

// PurgeExpired deletes inert tokens. Best-effort: failures are reported but
// the caller retries next cycle rather than halting.
func (uc *TokenUseCase) PurgeExpired(ctx context.Context) (int, error) {
	n, err := uc.tokens.DeleteExpired(ctx, nil, uc.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddTokensPurged(n)
	}
	return n, nil
}

// Current returns the newest claimable token, or domain.ErrNotFound when the
// generator is idle or everything has expired.
func (uc *TokenUseCase) Current(ctx context.Context) (*model.RotatingToken, error) {
	return uc.tokens.FindCurrent(ctx, nil, uc.now())
}

// Interval reports the configured minting interval.
func (uc *TokenUseCase) Interval(ctx context.Context) time.Duration {
	settings, err := uc.settings.Get(ctx, nil)
	if err != nil {
		return model.DefaultTokenInterval
	}
	return settings.TokenInterval()
}
