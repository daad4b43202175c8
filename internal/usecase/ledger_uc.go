package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
	"github.com/Kamigear/teens-points/internal/infra/metrics"
)

// LedgerUseCase covers ledger reads and the two admin mutations: manual
// adjustments and entry deletion. Editing an entry's points in place is
// deliberately impossible; the correction path is delete (which compensates
// the balance) plus a fresh adjustment.
type LedgerUseCase struct {
	ledger  repository.LedgerRepository
	members repository.MemberRepository
	txm     repository.TransactionManager
	log     *zerolog.Logger

	now func() time.Time
}

func NewLedgerUseCase(ledger repository.LedgerRepository, members repository.MemberRepository, txm repository.TransactionManager, logger *zerolog.Logger) *LedgerUseCase {
	l := logger.With().Str("component", "LedgerUseCase").Logger()
	return &LedgerUseCase{ledger: ledger, members: members, txm: txm, log: &l, now: time.Now}
}

const defaultHistoryLimit = 100

// History returns a member's point-change records, newest first.
func (uc *LedgerUseCase) History(ctx context.Context, memberID string, limit int) ([]*model.LedgerEntry, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return uc.ledger.ListByMember(ctx, nil, memberID, limit)
}

// Adjust appends a manual adjustment and applies the delta to the cached
// balance in the same transaction.
func (uc *LedgerUseCase) Adjust(ctx context.Context, memberID string, points int, description, actor string) (*model.LedgerEntry, error) {
	entry, err := model.NewAdjustmentEntry(memberID, description, points, uc.now())
	if err != nil {
		return nil, err
	}

	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.ledger.Insert(ctx, tx, entry); err != nil {
			return err
		}
		return uc.members.AdjustBalance(ctx, tx, memberID, points)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncAdjustment()
	uc.log.Info().Str("member_id", memberID).Int("points", points).Str("actor", actor).Msg("manual adjustment applied")
	return entry, nil
}

// DeleteEntry removes a ledger entry and applies the inverse delta to the
// member balance in the same transaction: deleting a +P entry costs the
// member P points, deleting a -P entry returns them.
func (uc *LedgerUseCase) DeleteEntry(ctx context.Context, entryID string) error {
	if entryID == "" {
		return fmt.Errorf("%w: entry id is required", domain.ErrInvalidArgument)
	}

	return uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		entry, err := uc.ledger.FindByID(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if err := uc.ledger.Delete(ctx, tx, entryID); err != nil {
			return err
		}
		if err := uc.members.AdjustBalance(ctx, tx, entry.MemberID, -entry.Points); err != nil {
			return err
		}
		uc.log.Info().Str("entry_id", entryID).Str("member_id", entry.MemberID).Int("compensation", -entry.Points).Msg("ledger entry deleted")
		return nil
	})
}
