package repository

import (
	"context"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

type WeeklyClaimRepository interface {
	// Insert stores a claim marker; domain.ErrAlreadyExists when a record
	// for (member, week) is already present.
	Insert(ctx context.Context, tx Tx, rec *model.WeeklyClaimRecord) error

	Exists(ctx context.Context, tx Tx, memberID, weekID string) (bool, error)
}
