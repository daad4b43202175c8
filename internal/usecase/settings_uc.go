package usecase

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

var slotTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// SettingsUseCase reads and replaces the shared attendance configuration.
// Writes go through the repository decorator chain, so a save also drops the
// cached copy and the new schedule becomes visible within the cache TTL.
type SettingsUseCase struct {
	settings repository.SettingsRepository
	log      *zerolog.Logger
}

func NewSettingsUseCase(settings repository.SettingsRepository, logger *zerolog.Logger) *SettingsUseCase {
	l := logger.With().Str("component", "SettingsUseCase").Logger()
	return &SettingsUseCase{settings: settings, log: &l}
}

func (uc *SettingsUseCase) Get(ctx context.Context) (model.AttendanceSettings, error) {
	return uc.settings.Get(ctx, nil)
}

// Update replaces the attendance settings. Slot times must be zero-padded
// 24h "HH:MM" strings; point values may be zero but never negative.
func (uc *SettingsUseCase) Update(ctx context.Context, s model.AttendanceSettings) (model.AttendanceSettings, error) {
	s = s.WithDefaults()
	for _, t := range []string{s.Slot1Time, s.Slot2Time} {
		if !slotTimePattern.MatchString(t) {
			return model.AttendanceSettings{}, fmt.Errorf("%w: slot time %q is not HH:MM", domain.ErrInvalidArgument, t)
		}
	}
	if s.Slot1Time >= s.Slot2Time {
		return model.AttendanceSettings{}, fmt.Errorf("%w: slot 1 cutoff %q must precede slot 2 cutoff %q", domain.ErrInvalidArgument, s.Slot1Time, s.Slot2Time)
	}
	if s.Slot1Points < 0 || s.Slot2Points < 0 || s.DefaultPoints < 0 {
		return model.AttendanceSettings{}, fmt.Errorf("%w: slot points must not be negative", domain.ErrInvalidArgument)
	}

	if err := uc.settings.Save(ctx, nil, s); err != nil {
		return model.AttendanceSettings{}, err
	}
	uc.log.Info().
		Str("slot1", fmt.Sprintf("%s/%d", s.Slot1Time, s.Slot1Points)).
		Str("slot2", fmt.Sprintf("%s/%d", s.Slot2Time, s.Slot2Points)).
		Int("default_points", s.DefaultPoints).
		Msg("attendance settings updated")
	return s, nil
}
