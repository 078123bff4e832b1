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

type settlementRepositoryImpl struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) contract.SettlementRepository {
	return &settlementRepositoryImpl{db: db}
}

func (r *settlementRepositoryImpl) Create(ctx context.Context, settlement *entity.Settlement) error {
	m := &model.Settlement{
		Id:          settlement.Id,
		ReferenceId: settlement.ReferenceId,
		AccountId:   settlement.AccountId,
		Outcome:     string(settlement.Outcome),
		Amount:      settlement.Amount,
		Reason:      settlement.Reason,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *settlementRepositoryImpl) FindByReferenceId(ctx context.Context, referenceId uuid.UUID) (*entity.Settlement, error) {
	var m model.Settlement
	query := specification.ByReferenceID{ReferenceID: referenceId}.Apply(r.db.WithContext(ctx))

	if err := query.First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &entity.Settlement{
		Id:          m.Id,
		ReferenceId: m.ReferenceId,
		AccountId:   m.AccountId,
		Outcome:     entity.SettlementOutcome(m.Outcome),
		Amount:      m.Amount,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
	}, nil
}
