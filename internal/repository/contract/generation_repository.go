package contract

import (
	"context"

	"ai-mediagen-be/internal/entity"

	"github.com/google/uuid"
)

type GenerationRepository interface {
	Create(ctx context.Context, record *entity.GenerationRecord) error
	FindByReferenceId(ctx context.Context, referenceId uuid.UUID) (*entity.GenerationRecord, error)
	ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.GenerationRecord, error)
	CountByUser(ctx context.Context, userId uuid.UUID) (int64, error)
}
