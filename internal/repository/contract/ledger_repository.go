package contract

import (
	"context"

	"ai-mediagen-be/internal/entity"

	"github.com/google/uuid"
)

type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.CreditLedgerEntry) error

	// FindByReference returns the entry of the given kind for a generation
	// attempt, or nil. Used for idempotent refund/commit lookups.
	FindByReference(ctx context.Context, referenceId uuid.UUID, kind entity.LedgerKind) (*entity.CreditLedgerEntry, error)

	ListByAccount(ctx context.Context, accountId uuid.UUID, limit, offset int) ([]*entity.CreditLedgerEntry, error)
	CountByAccount(ctx context.Context, accountId uuid.UUID) (int64, error)
}
