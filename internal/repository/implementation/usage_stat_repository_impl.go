package implementation

import (
	"context"
	"time"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/model"
	"ai-mediagen-be/internal/repository/contract"
	"ai-mediagen-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type usageStatRepositoryImpl struct {
	db *gorm.DB
}

func NewUsageStatRepository(db *gorm.DB) contract.UsageStatRepository {
	return &usageStatRepositoryImpl{db: db}
}

func (r *usageStatRepositoryImpl) Accumulate(ctx context.Context, userId uuid.UUID, provider string, kind entity.GenerationKind, day time.Time, spent, refunded int) error {
	row := &model.UsageStat{
		UserId:          userId,
		Provider:        provider,
		Kind:            string(kind),
		Day:             day.Truncate(24 * time.Hour),
		Jobs:            1,
		CreditsSpent:    spent,
		CreditsRefunded: refunded,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "provider"}, {Name: "kind"}, {Name: "day"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"jobs":             gorm.Expr("usage_stats.jobs + 1"),
			"credits_spent":    gorm.Expr("usage_stats.credits_spent + ?", spent),
			"credits_refunded": gorm.Expr("usage_stats.credits_refunded + ?", refunded),
			"updated_at":       time.Now(),
		}),
	}).Create(row).Error
}

func (r *usageStatRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageStat, error) {
	var models []*model.UsageStat
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	var stats []*entity.UsageStat
	for _, m := range models {
		stats = append(stats, &entity.UsageStat{
			Id:              m.Id,
			UserId:          m.UserId,
			Provider:        m.Provider,
			Kind:            entity.GenerationKind(m.Kind),
			Day:             m.Day,
			Jobs:            m.Jobs,
			CreditsSpent:    m.CreditsSpent,
			CreditsRefunded: m.CreditsRefunded,
		})
	}

	return stats, nil
}
