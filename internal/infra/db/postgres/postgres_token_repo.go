package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

var _ repository.RotatingTokenRepository = (*tokenRepo)(nil)

type tokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) repository.RotatingTokenRepository {
	return &tokenRepo{pool: pool}
}

const tokenColumns = `id, code, issued_at, expires_at, week_id, points_default`

func (r *tokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.RotatingToken) error {
	const q = `
INSERT INTO rotating_tokens (id, code, issued_at, expires_at, week_id, points_default)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Code, t.IssuedAt, t.ExpiresAt, t.WeekID, t.PointsDefault)
	return err
}

// FindLatestByCode prefers the freshest token when a random code happens to
// repeat across mints.
func (r *tokenRepo) FindLatestByCode(ctx context.Context, tx repository.Tx, code string) (*model.RotatingToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM rotating_tokens WHERE code = $1 ORDER BY expires_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanToken(row)
}

func (r *tokenRepo) FindCurrent(ctx context.Context, tx repository.Tx, now time.Time) (*model.RotatingToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM rotating_tokens WHERE expires_at > $1 ORDER BY issued_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, err
	}
	return scanToken(row)
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM rotating_tokens WHERE expires_at < $1;`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row rowScanner) (*model.RotatingToken, error) {
	var t model.RotatingToken
	err := row.Scan(&t.ID, &t.Code, &t.IssuedAt, &t.ExpiresAt, &t.WeekID, &t.PointsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &t, nil
}
