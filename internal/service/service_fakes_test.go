package service

import (
	"context"
	"sync"
	"time"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/repository/contract"
	"ai-mediagen-be/internal/repository/specification"
	"ai-mediagen-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore backs the in-memory repository fakes used by the service tests.
// All fakes share one store so a unit of work sees its own writes, like a
// real transaction would.
type memStore struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]*entity.CreditAccount
	accountByU  map[uuid.UUID]uuid.UUID
	ledger      []*entity.CreditLedgerEntry
	settlements map[uuid.UUID]*entity.Settlement
	records     []*entity.GenerationRecord
	usage       []*entity.UsageStat
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    make(map[uuid.UUID]*entity.CreditAccount),
		accountByU:  make(map[uuid.UUID]uuid.UUID),
		settlements: make(map[uuid.UUID]*entity.Settlement),
	}
}

func (s *memStore) seedAccount(userId uuid.UUID, balance int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.accounts[id] = &entity.CreditAccount{Id: id, UserId: userId, Balance: balance}
	s.accountByU[userId] = id
	return id
}

func (s *memStore) balanceOf(userId uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.accountByU[userId]; ok {
		return s.accounts[id].Balance
	}
	return 0
}

func (s *memStore) ledgerKinds(referenceId uuid.UUID) []entity.LedgerKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []entity.LedgerKind
	for _, e := range s.ledger {
		if e.ReferenceId != nil && *e.ReferenceId == referenceId {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

// fakeFactory hands out units of work over the shared store.
type fakeFactory struct {
	store *memStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: f.store}
}

type fakeUoW struct {
	store *memStore
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) CreditAccountRepository() contract.CreditAccountRepository {
	return &fakeAccountRepo{store: u.store}
}

func (u *fakeUoW) LedgerRepository() contract.LedgerRepository {
	return &fakeLedgerRepo{store: u.store}
}

func (u *fakeUoW) SettlementRepository() contract.SettlementRepository {
	return &fakeSettlementRepo{store: u.store}
}

func (u *fakeUoW) GenerationRepository() contract.GenerationRepository {
	return &fakeGenerationRepo{store: u.store}
}

func (u *fakeUoW) UsageStatRepository() contract.UsageStatRepository {
	return &fakeUsageRepo{store: u.store}
}

type fakeAccountRepo struct {
	store *memStore
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *entity.CreditAccount) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *account
	r.store.accounts[account.Id] = &cp
	r.store.accountByU[account.UserId] = account.Id
	return nil
}

func (r *fakeAccountRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditAccount, error) {
	return nil, nil
}

func (r *fakeAccountRepo) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CreditAccount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id, ok := r.store.accountByU[userId]
	if !ok {
		return nil, nil
	}
	cp := *r.store.accounts[id]
	return &cp, nil
}

func (r *fakeAccountRepo) TryDebit(ctx context.Context, accountId uuid.UUID, amount int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	acc, ok := r.store.accounts[accountId]
	if !ok || acc.Balance < amount {
		return false, nil
	}
	acc.Balance -= amount
	return true, nil
}

func (r *fakeAccountRepo) AddBalance(ctx context.Context, accountId uuid.UUID, amount int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if acc, ok := r.store.accounts[accountId]; ok {
		acc.Balance += amount
	}
	return nil
}

type fakeLedgerRepo struct {
	store *memStore
}

func (r *fakeLedgerRepo) Append(ctx context.Context, entry *entity.CreditLedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *entry
	cp.CreatedAt = time.Now()
	r.store.ledger = append(r.store.ledger, &cp)
	return nil
}

func (r *fakeLedgerRepo) FindByReference(ctx context.Context, referenceId uuid.UUID, kind entity.LedgerKind) (*entity.CreditLedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.ledger {
		if e.ReferenceId != nil && *e.ReferenceId == referenceId && e.Kind == kind {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) ListByAccount(ctx context.Context, accountId uuid.UUID, limit, offset int) ([]*entity.CreditLedgerEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.CreditLedgerEntry
	for _, e := range r.store.ledger {
		if e.AccountId == accountId {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) CountByAccount(ctx context.Context, accountId uuid.UUID) (int64, error) {
	entries, _ := r.ListByAccount(ctx, accountId, 0, 0)
	return int64(len(entries)), nil
}

type fakeSettlementRepo struct {
	store *memStore
}

func (r *fakeSettlementRepo) Create(ctx context.Context, settlement *entity.Settlement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *settlement
	r.store.settlements[settlement.ReferenceId] = &cp
	return nil
}

func (r *fakeSettlementRepo) FindByReferenceId(ctx context.Context, referenceId uuid.UUID) (*entity.Settlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.settlements[referenceId]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

type fakeGenerationRepo struct {
	store *memStore
}

func (r *fakeGenerationRepo) Create(ctx context.Context, record *entity.GenerationRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *record
	r.store.records = append(r.store.records, &cp)
	return nil
}

func (r *fakeGenerationRepo) FindByReferenceId(ctx context.Context, referenceId uuid.UUID) (*entity.GenerationRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rec := range r.store.records {
		if rec.ReferenceId == referenceId {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeGenerationRepo) ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.GenerationRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.GenerationRecord
	for _, rec := range r.store.records {
		if rec.UserId == userId {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeGenerationRepo) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	records, _ := r.ListByUser(ctx, userId, 0, 0)
	return int64(len(records)), nil
}

type fakeUsageRepo struct {
	store *memStore
}

func (r *fakeUsageRepo) Accumulate(ctx context.Context, userId uuid.UUID, provider string, kind entity.GenerationKind, day time.Time, spent, refunded int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.usage {
		if u.UserId == userId && u.Provider == provider && u.Kind == kind && u.Day.Equal(day) {
			u.Jobs++
			u.CreditsSpent += spent
			u.CreditsRefunded += refunded
			return nil
		}
	}
	r.store.usage = append(r.store.usage, &entity.UsageStat{
		Id:              uuid.New(),
		UserId:          userId,
		Provider:        provider,
		Kind:            kind,
		Day:             day,
		Jobs:            1,
		CreditsSpent:    spent,
		CreditsRefunded: refunded,
	})
	return nil
}

func (r *fakeUsageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageStat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.UsageStat, 0, len(r.store.usage))
	for _, u := range r.store.usage {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// noopLogger keeps test output quiet.
type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
