package repository

import (
	"context"
	"time"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

type RotatingTokenRepository interface {
	Save(ctx context.Context, tx Tx, t *model.RotatingToken) error

	// FindLatestByCode returns the newest token with this code regardless of
	// expiry; the claim processor distinguishes Expired from NotFound.
	FindLatestByCode(ctx context.Context, tx Tx, code string) (*model.RotatingToken, error)

	// FindCurrent returns the newest non-expired token (admin display).
	FindCurrent(ctx context.Context, tx Tx, now time.Time) (*model.RotatingToken, error)

	// DeleteExpired removes tokens with expiresAt < now and reports how many.
	DeleteExpired(ctx context.Context, tx Tx, now time.Time) (int, error)
}
