package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GenerationRecord struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	ReferenceId uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Kind        string         `gorm:"type:varchar(20);not null"` // image, video, audio
	Provider    string         `gorm:"type:varchar(50);not null;index"`
	Prompt      string         `gorm:"type:text"`
	Params      datatypes.JSON `gorm:"type:jsonb"`
	Cost        int            `gorm:"not null"`
	Status      string         `gorm:"type:varchar(20);not null"` // completed, failed, timed_out
	ErrorCode   *string        `gorm:"type:varchar(50)"`
	ResultURL   *string        `gorm:"type:text"`
	ContentType *string        `gorm:"type:varchar(100)"`
	SizeBytes   *int64
	Degraded    bool      `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (GenerationRecord) TableName() string {
	return "generation_records"
}
