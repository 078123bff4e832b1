package contract

import (
	"context"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CreditAccountRepository interface {
	Create(ctx context.Context, account *entity.CreditAccount) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditAccount, error)
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CreditAccount, error)

	// TryDebit atomically subtracts amount where balance >= amount. It returns
	// false (and no error) when the balance was insufficient, so callers can
	// distinguish "not enough credits" from storage failure.
	TryDebit(ctx context.Context, accountId uuid.UUID, amount int) (bool, error)

	// AddBalance atomically credits amount back to the account.
	AddBalance(ctx context.Context, accountId uuid.UUID, amount int) error
}
