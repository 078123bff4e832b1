package dto

import (
	"time"

	"github.com/google/uuid"
)

type BalanceResponse struct {
	UserId  uuid.UUID `json:"user_id"`
	Balance int       `json:"balance"`
}

type LedgerEntryResponse struct {
	Id          uuid.UUID  `json:"id"`
	Delta       int        `json:"delta"`
	Kind        string     `json:"kind"`
	ReferenceId *uuid.UUID `json:"reference_id,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TopupRequest struct {
	Amount int     `json:"amount" validate:"required,gt=0"`
	Reason *string `json:"reason"`
}

type TopupResponse struct {
	NewBalance int `json:"new_balance"`
}

type PriceResponse struct {
	Provider    string `json:"provider"`
	Kind        string `json:"kind"`
	BaseCost    int    `json:"base_cost"`
	PerSecond   int    `json:"per_second,omitempty"`
	Description string `json:"description,omitempty"`
}
