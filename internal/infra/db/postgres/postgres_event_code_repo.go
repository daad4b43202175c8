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

var _ repository.EventCodeRepository = (*eventCodeRepo)(nil)

type eventCodeRepo struct {
	pool *pgxpool.Pool
}

func NewEventCodeRepo(pool *pgxpool.Pool) repository.EventCodeRepository {
	return &eventCodeRepo{pool: pool}
}

const eventCodeColumns = `id, code, event_name, points, claim_type, status, claimed_by, claimed_at, created_by, created_at`

func (r *eventCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.EventCode) error {
	const q = `
INSERT INTO event_codes (id, code, event_name, points, claim_type, status, claimed_by, claimed_at, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Code, c.EventName, c.Points, c.ClaimType, c.Status, c.ClaimedBy, c.ClaimedAt, c.CreatedBy, c.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: code %q", domain.ErrAlreadyExists, c.Code)
	}
	return err
}

func (r *eventCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.EventCode, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+eventCodeColumns+` FROM event_codes WHERE code = $1;`, code)
	if err != nil {
		return nil, err
	}
	return scanEventCode(row)
}

// FindByCodeForUpdate takes the row lock that serializes SINGLE_GLOBAL
// claims. Refuses to run outside a transaction: a lock on the pool path
// would be released immediately and guarantee nothing.
func (r *eventCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.EventCode, error) {
	if _, ok := tx.(pgx.Tx); !ok {
		return nil, domain.ErrInvalidExecContext
	}
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+eventCodeColumns+` FROM event_codes WHERE code = $1 FOR UPDATE;`, code)
	if err != nil {
		return nil, err
	}
	return scanEventCode(row)
}

func (r *eventCodeRepo) MarkClaimed(ctx context.Context, tx repository.Tx, id, memberID string, at time.Time) error {
	const q = `
UPDATE event_codes
   SET status = $2, claimed_by = $3, claimed_at = $4
 WHERE id = $1 AND status = $5;
`
	tag, err := execSQL(ctx, r.pool, tx, q, id, model.CodeStatusClaimed, memberID, at, model.CodeStatusActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *eventCodeRepo) List(ctx context.Context, tx repository.Tx) ([]*model.EventCode, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+eventCodeColumns+` FROM event_codes ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.EventCode
	for rows.Next() {
		c, err := scanEventCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *eventCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM event_codes WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEventCode(row rowScanner) (*model.EventCode, error) {
	var c model.EventCode
	err := row.Scan(&c.ID, &c.Code, &c.EventName, &c.Points, &c.ClaimType, &c.Status, &c.ClaimedBy, &c.ClaimedAt, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}
