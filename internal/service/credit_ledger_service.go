package service

import (
	"context"
	"errors"
	"fmt"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ErrInsufficientCredits is returned by Reserve when the conditional debit
// matched no row. No provider cost has been incurred at that point.
var ErrInsufficientCredits = errors.New("insufficient credits")

type ICreditLedgerService interface {
	// Reserve provisionally debits amount and appends the reserve entry.
	// Returns the post-reserve balance.
	Reserve(ctx context.Context, userId uuid.UUID, amount int, referenceId uuid.UUID, reason string) (int, error)

	// Commit finalizes a reservation. Idempotent per referenceId.
	Commit(ctx context.Context, referenceId uuid.UUID) error

	// Refund returns amount to the account, exactly once per referenceId.
	// A duplicate call is skipped and the current balance returned unchanged.
	Refund(ctx context.Context, userId uuid.UUID, amount int, referenceId uuid.UUID, reason string) (int, error)

	Topup(ctx context.Context, userId uuid.UUID, amount int, reason *string) (int, error)
	GetBalance(ctx context.Context, userId uuid.UUID) (int, error)
	GetLedger(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.CreditLedgerEntry, error)
}

type creditLedgerService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCreditLedgerService(uowFactory unitofwork.RepositoryFactory) ICreditLedgerService {
	return &creditLedgerService{uowFactory: uowFactory}
}

// getOrCreateAccount resolves the user's credit account, creating an empty one
// on first touch.
func (s *creditLedgerService) getOrCreateAccount(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.CreditAccount, error) {
	account, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	account = &entity.CreditAccount{
		Id:      uuid.New(),
		UserId:  userId,
		Balance: 0,
	}
	if err := uow.CreditAccountRepository().Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *creditLedgerService) Reserve(ctx context.Context, userId uuid.UUID, amount int, referenceId uuid.UUID, reason string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("reserve amount must be positive, got %d", amount)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	account, err := s.getOrCreateAccount(ctx, uow, userId)
	if err != nil {
		return 0, err
	}

	ok, err := uow.CreditAccountRepository().TryDebit(ctx, account.Id, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return account.Balance, ErrInsufficientCredits
	}

	entry := &entity.CreditLedgerEntry{
		Id:          uuid.New(),
		AccountId:   account.Id,
		Delta:       -amount,
		Kind:        entity.LedgerKindReserve,
		ReferenceId: &referenceId,
		Reason:      &reason,
	}
	if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
		return 0, err
	}

	debited, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	return debited.Balance, nil
}

func (s *creditLedgerService) Commit(ctx context.Context, referenceId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	existing, err := uow.SettlementRepository().FindByReferenceId(ctx, referenceId)
	if err != nil {
		return err
	}
	if existing != nil {
		// Already settled; committing twice is a no-op.
		return nil
	}

	reservation, err := uow.LedgerRepository().FindByReference(ctx, referenceId, entity.LedgerKindReserve)
	if err != nil {
		return err
	}
	if reservation == nil {
		return fmt.Errorf("no reservation found for reference %s", referenceId)
	}

	commitReason := "charge committed"
	entry := &entity.CreditLedgerEntry{
		Id:          uuid.New(),
		AccountId:   reservation.AccountId,
		Delta:       0, // the amount came off the balance at reserve time
		Kind:        entity.LedgerKindCommit,
		ReferenceId: &referenceId,
		Reason:      &commitReason,
	}
	if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
		return err
	}

	settlement := &entity.Settlement{
		Id:          uuid.New(),
		ReferenceId: referenceId,
		AccountId:   reservation.AccountId,
		Outcome:     entity.SettlementCommitted,
		Amount:      -reservation.Delta,
		Reason:      commitReason,
	}
	if err := uow.SettlementRepository().Create(ctx, settlement); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *creditLedgerService) Refund(ctx context.Context, userId uuid.UUID, amount int, referenceId uuid.UUID, reason string) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	account, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, fmt.Errorf("no credit account for user %s", userId)
	}

	// Overlapping error-handling branches may both reach here; the settlement
	// row (and its unique index) makes the second call a no-op.
	settled, err := uow.SettlementRepository().FindByReferenceId(ctx, referenceId)
	if err != nil {
		return 0, err
	}
	if settled != nil {
		return account.Balance, nil
	}
	priorRefund, err := uow.LedgerRepository().FindByReference(ctx, referenceId, entity.LedgerKindRefund)
	if err != nil {
		return 0, err
	}
	if priorRefund != nil {
		return account.Balance, nil
	}

	if err := uow.CreditAccountRepository().AddBalance(ctx, account.Id, amount); err != nil {
		return 0, err
	}

	entry := &entity.CreditLedgerEntry{
		Id:          uuid.New(),
		AccountId:   account.Id,
		Delta:       amount,
		Kind:        entity.LedgerKindRefund,
		ReferenceId: &referenceId,
		Reason:      &reason,
	}
	if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
		return 0, err
	}

	settlement := &entity.Settlement{
		Id:          uuid.New(),
		ReferenceId: referenceId,
		AccountId:   account.Id,
		Outcome:     entity.SettlementRefunded,
		Amount:      amount,
		Reason:      reason,
	}
	if err := uow.SettlementRepository().Create(ctx, settlement); err != nil {
		return 0, err
	}

	refunded, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	return refunded.Balance, nil
}

func (s *creditLedgerService) Topup(ctx context.Context, userId uuid.UUID, amount int, reason *string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("topup amount must be positive, got %d", amount)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	account, err := s.getOrCreateAccount(ctx, uow, userId)
	if err != nil {
		return 0, err
	}

	if err := uow.CreditAccountRepository().AddBalance(ctx, account.Id, amount); err != nil {
		return 0, err
	}

	entry := &entity.CreditLedgerEntry{
		Id:        uuid.New(),
		AccountId: account.Id,
		Delta:     amount,
		Kind:      entity.LedgerKindTopup,
		Reason:    reason,
	}
	if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
		return 0, err
	}

	topped, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	return topped.Balance, nil
}

func (s *creditLedgerService) GetBalance(ctx context.Context, userId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Balance, nil
}

func (s *creditLedgerService) GetLedger(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.CreditLedgerEntry, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.CreditAccountRepository().FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return uow.LedgerRepository().ListByAccount(ctx, account.Id, limit, offset)
}
