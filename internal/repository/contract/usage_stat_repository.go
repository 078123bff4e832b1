package contract

import (
	"context"
	"time"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UsageStatRepository interface {
	// Accumulate upserts the daily rollup row for (user, provider, kind, day).
	Accumulate(ctx context.Context, userId uuid.UUID, provider string, kind entity.GenerationKind, day time.Time, spent, refunded int) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageStat, error)
}
