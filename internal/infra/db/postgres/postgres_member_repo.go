package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.MemberRepository = (*memberRepo)(nil)

type memberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) repository.MemberRepository {
	return &memberRepo{pool: pool}
}

const memberColumns = `id, display_name, balance, total_claims, last_claim_at, is_admin, registered_at`

func (r *memberRepo) Save(ctx context.Context, tx repository.Tx, m *model.Member) error {
	const q = `
INSERT INTO members (id, display_name, balance, total_claims, last_claim_at, is_admin, registered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  display_name = EXCLUDED.display_name,
  is_admin     = EXCLUDED.is_admin;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.DisplayName, m.Balance, m.TotalClaims, m.LastClaimAt, m.IsAdmin, m.RegisteredAt,
	)
	return err
}

func (r *memberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+memberColumns+` FROM members WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanMember(row)
}

func (r *memberRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members ORDER BY balance DESC, display_name ASC OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *memberRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM members;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// ApplyClaim uses relative increments so concurrent claims by different
// members never clobber each other.
func (r *memberRepo) ApplyClaim(ctx context.Context, tx repository.Tx, memberID string, points int, at time.Time) error {
	const q = `
UPDATE members
   SET balance = balance + $2, total_claims = total_claims + 1, last_claim_at = $3
 WHERE id = $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, memberID, points, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memberRepo) AdjustBalance(ctx context.Context, tx repository.Tx, memberID string, delta int) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE members SET balance = balance + $2 WHERE id = $1;`, memberID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memberRepo) Merge(ctx context.Context, tx repository.Tx, id string, displayName *string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE members SET display_name = COALESCE($2, display_name) WHERE id = $1;`, id, displayName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.DisplayName, &m.Balance, &m.TotalClaims, &m.LastClaimAt, &m.IsAdmin, &m.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &m, nil
}
