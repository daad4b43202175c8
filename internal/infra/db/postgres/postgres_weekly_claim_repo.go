package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

var _ repository.WeeklyClaimRepository = (*weeklyClaimRepo)(nil)

type weeklyClaimRepo struct {
	pool *pgxpool.Pool
}

func NewWeeklyClaimRepo(pool *pgxpool.Pool) repository.WeeklyClaimRepository {
	return &weeklyClaimRepo{pool: pool}
}

// Insert relies on the unique (member_id, week_id) index: the claim
// processor pre-checks, this is the backstop against same-member races.
func (r *weeklyClaimRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.WeeklyClaimRecord) error {
	const q = `
INSERT INTO weekly_claims (id, member_id, week_id, code, points, claimed_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.MemberID, rec.WeekID, rec.Code, rec.Points, rec.ClaimedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: weekly claim (%s, %s)", domain.ErrAlreadyExists, rec.MemberID, rec.WeekID)
	}
	return err
}

func (r *weeklyClaimRepo) Exists(ctx context.Context, tx repository.Tx, memberID, weekID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM weekly_claims WHERE member_id = $1 AND week_id = $2);`
	row, err := pickRow(ctx, r.pool, tx, q, memberID, weekID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
