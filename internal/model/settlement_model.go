package model

import (
	"time"

	"github.com/google/uuid"
)

// Settlement closes a reservation. The unique index on ReferenceId is what makes
// commit/refund idempotent across process restarts: the terminal ledger entry and
// its settlement row are written in the same transaction.
type Settlement struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReferenceId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	AccountId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Outcome     string    `gorm:"type:varchar(20);not null"` // committed, refunded
	Amount      int       `gorm:"not null"`
	Reason      string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"default:now();not null"`
}

func (Settlement) TableName() string {
	return "settlements"
}
