package contract

import (
	"context"

	"ai-mediagen-be/internal/entity"

	"github.com/google/uuid"
)

type SettlementRepository interface {
	Create(ctx context.Context, settlement *entity.Settlement) error
	FindByReferenceId(ctx context.Context, referenceId uuid.UUID) (*entity.Settlement, error)
}
