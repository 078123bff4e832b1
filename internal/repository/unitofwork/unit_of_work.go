package unitofwork

import (
	"context"

	"ai-mediagen-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CreditAccountRepository() contract.CreditAccountRepository
	LedgerRepository() contract.LedgerRepository
	SettlementRepository() contract.SettlementRepository
	GenerationRepository() contract.GenerationRepository
	UsageStatRepository() contract.UsageStatRepository
}
