package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) repository.LedgerRepository {
	return &ledgerRepo{pool: pool}
}

const ledgerColumns = `id, member_id, description, points, status, source_code_id, created_at`

// Insert appends an entry. ON CONFLICT DO NOTHING plus the affected-row count
// turns a duplicate deterministic claim id into domain.ErrAlreadyExists with
// zero side effects.
func (r *ledgerRepo) Insert(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) error {
	const q = `
INSERT INTO ledger_entries (id, member_id, description, points, status, source_code_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING;
`
	tag, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.MemberID, e.Description, e.Points, e.Status, e.SourceCodeID, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %s", domain.ErrAlreadyExists, e.ID)
	}
	return nil
}

func (r *ledgerRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.LedgerEntry, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanLedgerEntry(row)
}

func (r *ledgerRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string, limit int) ([]*model.LedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE member_id = $1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ledgerRepo) ExistsByMemberAndCode(ctx context.Context, tx repository.Tx, memberID, sourceCodeID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE member_id = $1 AND source_code_id = $2);`
	row, err := pickRow(ctx, r.pool, tx, q, memberID, sourceCodeID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *ledgerRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM ledger_entries WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanLedgerEntry(row rowScanner) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := row.Scan(&e.ID, &e.MemberID, &e.Description, &e.Points, &e.Status, &e.SourceCodeID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &e, nil
}
