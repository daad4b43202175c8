package repository

import (
	"context"
	"time"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

type EventCodeRepository interface {
	// Save inserts a new code; domain.ErrAlreadyExists when the code string
	// is taken.
	Save(ctx context.Context, tx Tx, c *model.EventCode) error

	FindByCode(ctx context.Context, tx Tx, code string) (*model.EventCode, error)

	// FindByCodeForUpdate re-reads a code inside a transaction holding a row
	// lock. This is the SINGLE_GLOBAL precondition read: callers must pass a
	// live tx.
	FindByCodeForUpdate(ctx context.Context, tx Tx, code string) (*model.EventCode, error)

	// MarkClaimed transitions ACTIVE -> CLAIMED. The transition is terminal.
	MarkClaimed(ctx context.Context, tx Tx, id, memberID string, at time.Time) error

	List(ctx context.Context, tx Tx) ([]*model.EventCode, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
