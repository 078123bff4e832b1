package model

import (
	"time"

	"github.com/google/uuid"
)

// CreditLedgerEntry is append-only. Rows are never updated or deleted.
type CreditLedgerEntry struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountId   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Delta       int        `gorm:"not null"`
	Kind        string     `gorm:"type:varchar(20);not null;index"` // reserve, commit, refund, topup
	ReferenceId *uuid.UUID `gorm:"type:uuid;index"`
	Reason      *string    `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"default:now();not null"`
}

func (CreditLedgerEntry) TableName() string {
	return "credit_ledger_entries"
}
