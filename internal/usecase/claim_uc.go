package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
	"github.com/Kamigear/teens-points/internal/infra/metrics"
)

// ClaimResult reports an accepted claim back to the caller.
type ClaimResult struct {
	Points      int    `json:"points"`
	Description string `json:"description"`
	WeekID      string `json:"week_id,omitempty"` // set for token claims
}

// ClaimUseCase is the claim processor: it resolves a raw code against the
// rotating-token registry first, then the event-code registry, and performs
// the accepted claim as one atomic write.
//
// Terminal rejections (NotFound, Expired, AlreadyClaimed, Conflict) are
// side-effect free and never retried here; blind retries by the caller are
// harmless because claim ledger ids are deterministic.
type ClaimUseCase struct {
	tokens   repository.RotatingTokenRepository
	codes    repository.EventCodeRepository
	weekly   repository.WeeklyClaimRepository
	ledger   repository.LedgerRepository
	members  repository.MemberRepository
	settings repository.SettingsRepository
	txm      repository.TransactionManager
	log      *zerolog.Logger

	now func() time.Time
}

func NewClaimUseCase(
	tokens repository.RotatingTokenRepository,
	codes repository.EventCodeRepository,
	weekly repository.WeeklyClaimRepository,
	ledger repository.LedgerRepository,
	members repository.MemberRepository,
	settings repository.SettingsRepository,
	txm repository.TransactionManager,
	logger *zerolog.Logger,
) *ClaimUseCase {
	l := logger.With().Str("component", "ClaimUseCase").Logger()
	return &ClaimUseCase{
		tokens:   tokens,
		codes:    codes,
		weekly:   weekly,
		ledger:   ledger,
		members:  members,
		settings: settings,
		txm:      txm,
		log:      &l,
		now:      time.Now,
	}
}

// Claim redeems a raw code for the authenticated member.
func (uc *ClaimUseCase) Claim(ctx context.Context, memberID, rawCode string) (*ClaimResult, error) {
	if memberID == "" {
		return nil, domain.ErrUnauthenticated
	}
	code := strings.TrimSpace(rawCode)
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", domain.ErrInvalidArgument)
	}

	// Rotating tokens resolve first; event codes cannot collide with the
	// token format, so nothing is shadowed.
	token, err := uc.tokens.FindLatestByCode(ctx, nil, code)
	switch {
	case err == nil:
		res, err := uc.claimToken(ctx, memberID, token)
		uc.observe("token", err)
		return res, err
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	res, err := uc.claimEventCode(ctx, memberID, code)
	uc.observe("event", err)
	return res, err
}

func (uc *ClaimUseCase) claimToken(ctx context.Context, memberID string, token *model.RotatingToken) (*ClaimResult, error) {
	now := uc.now()
	if token.Expired(now) {
		return nil, domain.ErrCodeExpired
	}

	claimed, err := uc.weekly.Exists(ctx, nil, memberID, token.WeekID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, domain.ErrAlreadyClaimed
	}

	settings, err := uc.settings.Get(ctx, nil)
	if err != nil {
		uc.log.Warn().Err(err).Msg("attendance settings unavailable, using token default")
		award := token.PointsDefault
		return uc.commitTokenClaim(ctx, memberID, token, award, now)
	}
	return uc.commitTokenClaim(ctx, memberID, token, ResolveAward(now, settings), now)
}

func (uc *ClaimUseCase) commitTokenClaim(ctx context.Context, memberID string, token *model.RotatingToken, award int, now time.Time) (*ClaimResult, error) {
	rec := model.NewWeeklyClaimRecord(memberID, token.WeekID, token.Code, award, now)
	entry := &model.LedgerEntry{
		ID:          model.ClaimEntryID(memberID, token.Code, token.WeekID),
		MemberID:    memberID,
		Description: fmt.Sprintf("Kehadiran Mingguan (%s)", token.WeekID),
		Points:      award,
		Status:      model.EntryStatusCompleted,
		CreatedAt:   now,
	}

	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.weekly.Insert(ctx, tx, rec); err != nil {
			return err
		}
		if err := uc.ledger.Insert(ctx, tx, entry); err != nil {
			return err
		}
		return uc.members.ApplyClaim(ctx, tx, memberID, award, now)
	})
	if err != nil {
		// Racing same-member resubmits land on the (member, week) or the
		// deterministic entry key; either way it is the idempotent no-op.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyClaimed
		}
		return nil, err
	}

	uc.log.Info().Str("member_id", memberID).Str("week_id", token.WeekID).Int("points", award).Msg("attendance claim accepted")
	return &ClaimResult{Points: award, Description: entry.Description, WeekID: token.WeekID}, nil
}

func (uc *ClaimUseCase) claimEventCode(ctx context.Context, memberID, code string) (*ClaimResult, error) {
	ec, err := uc.codes.FindByCode(ctx, nil, code)
	if err != nil {
		return nil, err // ErrNotFound is terminal
	}

	if ec.ClaimType == model.ClaimTypeSingleGlobal {
		return uc.claimSingleGlobal(ctx, memberID, code)
	}
	return uc.claimMulti(ctx, memberID, ec)
}

// claimSingleGlobal is the only path paying for strict serializability: the
// code row is re-read under a lock inside the transaction and the claim
// aborts when someone else already won. A spurious Conflict only costs a
// resubmission; a double award would be unacceptable.
func (uc *ClaimUseCase) claimSingleGlobal(ctx context.Context, memberID, code string) (*ClaimResult, error) {
	now := uc.now()
	var result *ClaimResult

	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		if cur.Claimed() {
			return domain.ErrConflict
		}

		if err := uc.codes.MarkClaimed(ctx, tx, cur.ID, memberID, now); err != nil {
			return err
		}

		eventName := cur.EventName
		if eventName == "" {
			eventName = "Event"
		}
		entry := &model.LedgerEntry{
			ID:           model.ClaimEntryID(memberID, code, cur.ID),
			MemberID:     memberID,
			Description:  fmt.Sprintf("Kode: %s (%s)", code, eventName),
			Points:       cur.Points,
			Status:       model.EntryStatusCompleted,
			SourceCodeID: &cur.ID,
			CreatedAt:    now,
		}
		if err := uc.ledger.Insert(ctx, tx, entry); err != nil {
			return err
		}
		if err := uc.members.AdjustBalance(ctx, tx, memberID, cur.Points); err != nil {
			return err
		}

		result = &ClaimResult{Points: cur.Points, Description: entry.Description}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("member_id", memberID).Str("code", code).Int("points", result.Points).Msg("single-global code claimed")
	return result, nil
}

func (uc *ClaimUseCase) claimMulti(ctx context.Context, memberID string, ec *model.EventCode) (*ClaimResult, error) {
	claimed, err := uc.ledger.ExistsByMemberAndCode(ctx, nil, memberID, ec.ID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, domain.ErrAlreadyClaimed
	}

	now := uc.now()
	entry := &model.LedgerEntry{
		ID:           model.ClaimEntryID(memberID, ec.Code, ec.ID),
		MemberID:     memberID,
		Description:  fmt.Sprintf("Kode: %s", ec.Code),
		Points:       ec.Points,
		Status:       model.EntryStatusCompleted,
		SourceCodeID: &ec.ID,
		CreatedAt:    now,
	}

	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.ledger.Insert(ctx, tx, entry); err != nil {
			return err
		}
		return uc.members.AdjustBalance(ctx, tx, memberID, ec.Points)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyClaimed
		}
		return nil, err
	}

	uc.log.Info().Str("member_id", memberID).Str("code", ec.Code).Int("points", ec.Points).Msg("multi code claimed")
	return &ClaimResult{Points: ec.Points, Description: entry.Description}, nil
}

func (uc *ClaimUseCase) observe(path string, err error) {
	outcome := "accepted"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyClaimed):
		outcome = "already_claimed"
	case errors.Is(err, domain.ErrCodeExpired):
		outcome = "expired"
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, domain.ErrConflict):
		outcome = "conflict"
	case errors.Is(err, domain.ErrInvalidArgument):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.IncClaim(path, outcome)
}
