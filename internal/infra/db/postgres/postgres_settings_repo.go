package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*settingsRepo)(nil)

// settingsRepo persists the single shared attendance-settings record
// (row id 1). An absent row yields the documented defaults.
type settingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) repository.SettingsRepository {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) Get(ctx context.Context, tx repository.Tx) (model.AttendanceSettings, error) {
	const q = `
SELECT slot1_time, slot1_points, slot2_time, slot2_points, default_points, token_interval_sec, token_validity_min
  FROM attendance_settings WHERE id = 1;
`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return model.AttendanceSettings{}, err
	}

	var s model.AttendanceSettings
	err = row.Scan(&s.Slot1Time, &s.Slot1Points, &s.Slot2Time, &s.Slot2Points, &s.DefaultPoints, &s.TokenIntervalSec, &s.TokenValidityMin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultAttendanceSettings(), nil
		}
		return model.AttendanceSettings{}, domain.ErrReadDatabaseRow
	}
	return s.WithDefaults(), nil
}

func (r *settingsRepo) Save(ctx context.Context, tx repository.Tx, s model.AttendanceSettings) error {
	const q = `
INSERT INTO attendance_settings (id, slot1_time, slot1_points, slot2_time, slot2_points, default_points, token_interval_sec, token_validity_min)
VALUES (1, $1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  slot1_time = EXCLUDED.slot1_time,
  slot1_points = EXCLUDED.slot1_points,
  slot2_time = EXCLUDED.slot2_time,
  slot2_points = EXCLUDED.slot2_points,
  default_points = EXCLUDED.default_points,
  token_interval_sec = EXCLUDED.token_interval_sec,
  token_validity_min = EXCLUDED.token_validity_min;
`
	s = s.WithDefaults()
	_, err := execSQL(ctx, r.pool, tx, q,
		s.Slot1Time, s.Slot1Points, s.Slot2Time, s.Slot2Points, s.DefaultPoints, s.TokenIntervalSec, s.TokenValidityMin,
	)
	return err
}
