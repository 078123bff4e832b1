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

type creditAccountRepositoryImpl struct {
	db *gorm.DB
}

func NewCreditAccountRepository(db *gorm.DB) contract.CreditAccountRepository {
	return &creditAccountRepositoryImpl{db: db}
}

func (r *creditAccountRepositoryImpl) Create(ctx context.Context, account *entity.CreditAccount) error {
	m := &model.CreditAccount{
		Id:      account.Id,
		UserId:  account.UserId,
		Balance: account.Balance,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *creditAccountRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CreditAccount, error) {
	var m model.CreditAccount
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return r.mapToEntity(&m), nil
}

func (r *creditAccountRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CreditAccount, error) {
	return r.FindOne(ctx, specification.UserOwnedBy{UserID: userId})
}

// TryDebit is the single conditional update the whole ledger hangs off.
// Concurrent reservations against the same account serialize here, in the
// database, not in application memory.
func (r *creditAccountRepositoryImpl) TryDebit(ctx context.Context, accountId uuid.UUID, amount int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CreditAccount{}).
		Where("id = ? AND balance >= ?", accountId, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *creditAccountRepositoryImpl) AddBalance(ctx context.Context, accountId uuid.UUID, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&model.CreditAccount{}).
		Where("id = ?", accountId).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *creditAccountRepositoryImpl) mapToEntity(m *model.CreditAccount) *entity.CreditAccount {
	return &entity.CreditAccount{
		Id:        m.Id,
		UserId:    m.UserId,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
