package repository

import (
	"context"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

// SettingsRepository reads the shared attendance configuration record.
// Implementations return defaults when the record is absent; cached
// implementations may serve values stale by up to their TTL.
type SettingsRepository interface {
	Get(ctx context.Context, tx Tx) (model.AttendanceSettings, error)
	Save(ctx context.Context, tx Tx, s model.AttendanceSettings) error
}
