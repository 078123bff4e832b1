package implementation

import (
	"context"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/model"
	"ai-mediagen-be/internal/repository/contract"
	"ai-mediagen-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ledgerRepositoryImpl struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) contract.LedgerRepository {
	return &ledgerRepositoryImpl{db: db}
}

func (r *ledgerRepositoryImpl) Append(ctx context.Context, entry *entity.CreditLedgerEntry) error {
	m := &model.CreditLedgerEntry{
		Id:          entry.Id,
		AccountId:   entry.AccountId,
		Delta:       entry.Delta,
		Kind:        string(entry.Kind),
		ReferenceId: entry.ReferenceId,
		Reason:      entry.Reason,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ledgerRepositoryImpl) FindByReference(ctx context.Context, referenceId uuid.UUID, kind entity.LedgerKind) (*entity.CreditLedgerEntry, error) {
	var m model.CreditLedgerEntry
	query := r.db.WithContext(ctx)
	query = specification.ByReferenceID{ReferenceID: referenceId}.Apply(query)
	query = specification.Filter("kind", string(kind)).Apply(query)

	if err := query.First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return r.mapToEntity(&m), nil
}

func (r *ledgerRepositoryImpl) ListByAccount(ctx context.Context, accountId uuid.UUID, limit, offset int) ([]*entity.CreditLedgerEntry, error) {
	var models []*model.CreditLedgerEntry
	query := r.db.WithContext(ctx)
	query = specification.Filter("account_id", accountId).Apply(query)
	query = specification.OrderBy{Field: "created_at", Desc: true}.Apply(query)
	query = specification.Pagination{Limit: limit, Offset: offset}.Apply(query)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	var entries []*entity.CreditLedgerEntry
	for _, m := range models {
		entries = append(entries, r.mapToEntity(m))
	}

	return entries, nil
}

func (r *ledgerRepositoryImpl) CountByAccount(ctx context.Context, accountId uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.CreditLedgerEntry{})
	query = specification.Filter("account_id", accountId).Apply(query)

	err := query.Count(&count).Error
	return count, err
}

func (r *ledgerRepositoryImpl) mapToEntity(m *model.CreditLedgerEntry) *entity.CreditLedgerEntry {
	return &entity.CreditLedgerEntry{
		Id:          m.Id,
		AccountId:   m.AccountId,
		Delta:       m.Delta,
		Kind:        entity.LedgerKind(m.Kind),
		ReferenceId: m.ReferenceId,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
	}
}
