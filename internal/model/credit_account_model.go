package model

import (
	"time"

	"github.com/google/uuid"
)

type CreditAccount struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Balance   int       `gorm:"not null;default:0;check:balance >= 0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CreditAccount) TableName() string {
	return "credit_accounts"
}
