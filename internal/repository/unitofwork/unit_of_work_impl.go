package unitofwork

import (
	"context"
	"fmt"

	"ai-mediagen-be/internal/repository/contract"
	"ai-mediagen-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) CreditAccountRepository() contract.CreditAccountRepository {
	return implementation.NewCreditAccountRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LedgerRepository() contract.LedgerRepository {
	return implementation.NewLedgerRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SettlementRepository() contract.SettlementRepository {
	return implementation.NewSettlementRepository(u.getDB())
}

func (u *UnitOfWorkImpl) GenerationRepository() contract.GenerationRepository {
	return implementation.NewGenerationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) UsageStatRepository() contract.UsageStatRepository {
	return implementation.NewUsageStatRepository(u.getDB())
}
