package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
	"github.com/Kamigear/teens-points/internal/infra/metrics"
)

var _ repository.SettingsRepository = (*settingsCacheDecorator)(nil)

const settingsKey = "settings:attendance"

// settingsCacheDecorator serves the shared attendance configuration through
// Redis. The TTL bounds how stale a claim's award schedule can be.
type settingsCacheDecorator struct {
	inner repository.SettingsRepository
	cache RedisClient
	ttl   time.Duration
}

func NewSettingsCacheDecorator(inner repository.SettingsRepository, cache RedisClient, ttl time.Duration) repository.SettingsRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &settingsCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *settingsCacheDecorator) Get(ctx context.Context, tx repository.Tx) (model.AttendanceSettings, error) {
	if val, err := d.cache.Get(ctx, settingsKey); err == nil {
		var s model.AttendanceSettings
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("settings", "hit")
			return s, nil
		}
	}

	metrics.IncCacheRequest("settings", "miss")
	s, err := d.inner.Get(ctx, tx)
	if err != nil {
		return model.AttendanceSettings{}, err
	}
	if bytes, err := json.Marshal(s); err == nil {
		_ = d.cache.Set(ctx, settingsKey, bytes, d.ttl)
	}
	return s, nil
}

func (d *settingsCacheDecorator) Save(ctx context.Context, tx repository.Tx, s model.AttendanceSettings) error {
	if err := d.inner.Save(ctx, tx, s); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, settingsKey)
	return nil
}
