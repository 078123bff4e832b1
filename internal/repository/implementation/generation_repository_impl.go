package implementation

import (
	"context"
	"encoding/json"

	"ai-mediagen-be/internal/entity"
	"ai-mediagen-be/internal/model"
	"ai-mediagen-be/internal/repository/contract"
	"ai-mediagen-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type generationRepositoryImpl struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) contract.GenerationRepository {
	return &generationRepositoryImpl{db: db}
}

func (r *generationRepositoryImpl) Create(ctx context.Context, record *entity.GenerationRecord) error {
	var params datatypes.JSON
	if record.Params != nil {
		raw, err := json.Marshal(record.Params)
		if err != nil {
			return err
		}
		params = datatypes.JSON(raw)
	}

	m := &model.GenerationRecord{
		Id:          record.Id,
		UserId:      record.UserId,
		ReferenceId: record.ReferenceId,
		Kind:        string(record.Kind),
		Provider:    record.Provider,
		Prompt:      record.Prompt,
		Params:      params,
		Cost:        record.Cost,
		Status:      string(record.Status),
		ErrorCode:   record.ErrorCode,
		ResultURL:   record.ResultURL,
		ContentType: record.ContentType,
		SizeBytes:   record.SizeBytes,
		Degraded:    record.Degraded,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *generationRepositoryImpl) FindByReferenceId(ctx context.Context, referenceId uuid.UUID) (*entity.GenerationRecord, error) {
	var m model.GenerationRecord
	query := specification.ByReferenceID{ReferenceID: referenceId}.Apply(r.db.WithContext(ctx))

	if err := query.First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return r.mapToEntity(&m), nil
}

func (r *generationRepositoryImpl) ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.GenerationRecord, error) {
	var models []*model.GenerationRecord
	query := r.db.WithContext(ctx)
	query = specification.UserOwnedBy{UserID: userId}.Apply(query)
	query = specification.OrderBy{Field: "created_at", Desc: true}.Apply(query)
	query = specification.Pagination{Limit: limit, Offset: offset}.Apply(query)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	var records []*entity.GenerationRecord
	for _, m := range models {
		records = append(records, r.mapToEntity(m))
	}

	return records, nil
}

func (r *generationRepositoryImpl) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.GenerationRecord{})
	query = specification.UserOwnedBy{UserID: userId}.Apply(query)

	err := query.Count(&count).Error
	return count, err
}

func (r *generationRepositoryImpl) mapToEntity(m *model.GenerationRecord) *entity.GenerationRecord {
	var params map[string]interface{}
	if len(m.Params) > 0 {
		_ = json.Unmarshal(m.Params, &params)
	}

	return &entity.GenerationRecord{
		Id:          m.Id,
		UserId:      m.UserId,
		ReferenceId: m.ReferenceId,
		Kind:        entity.GenerationKind(m.Kind),
		Provider:    m.Provider,
		Prompt:      m.Prompt,
		Params:      params,
		Cost:        m.Cost,
		Status:      entity.JobStatus(m.Status),
		ErrorCode:   m.ErrorCode,
		ResultURL:   m.ResultURL,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		Degraded:    m.Degraded,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
