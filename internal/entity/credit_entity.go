package entity

import (
	"time"

	"github.com/google/uuid"
)

type LedgerKind string

const (
	LedgerKindReserve LedgerKind = "reserve"
	LedgerKindCommit  LedgerKind = "commit"
	LedgerKindRefund  LedgerKind = "refund"
	LedgerKindTopup   LedgerKind = "topup"
)

type SettlementOutcome string

const (
	SettlementCommitted SettlementOutcome = "committed"
	SettlementRefunded  SettlementOutcome = "refunded"
)

type CreditAccount struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Balance   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreditLedgerEntry struct {
	Id          uuid.UUID
	AccountId   uuid.UUID
	Delta       int
	Kind        LedgerKind
	ReferenceId *uuid.UUID
	Reason      *string
	CreatedAt   time.Time
}

type Settlement struct {
	Id          uuid.UUID
	ReferenceId uuid.UUID
	AccountId   uuid.UUID
	Outcome     SettlementOutcome
	Amount      int
	Reason      string
	CreatedAt   time.Time
}
