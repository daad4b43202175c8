package repository

import (
	"context"

	"github.com/Kamigear/teens-points/internal/domain/model"
)

// LedgerRepository is append-only apart from admin deletion. There is no
// update operation: corrections are delete-with-compensation plus recreate.
type LedgerRepository interface {
	// Insert appends an entry. Inserting an id that already exists returns
	// domain.ErrAlreadyExists without side effects, which is what makes
	// deterministic claim ids safe against retries.
	Insert(ctx context.Context, tx Tx, e *model.LedgerEntry) error

	FindByID(ctx context.Context, tx Tx, id string) (*model.LedgerEntry, error)

	// ListByMember returns entries newest first.
	ListByMember(ctx context.Context, tx Tx, memberID string, limit int) ([]*model.LedgerEntry, error)

	// ExistsByMemberAndCode reports whether the member already has an entry
	// produced by the given event code.
	ExistsByMemberAndCode(ctx context.Context, tx Tx, memberID, sourceCodeID string) (bool, error)

	Delete(ctx context.Context, tx Tx, id string) error
}
