package dto

import (
	"time"

	"github.com/google/uuid"
)

// GenerationSettledMessage is published on the in-process bus after every
// settlement, successful or refunded, and drives the usage rollup consumer.
type GenerationSettledMessage struct {
	UserId      uuid.UUID `json:"user_id"`
	ReferenceId uuid.UUID `json:"reference_id"`
	Provider    string    `json:"provider"`
	Kind        string    `json:"kind"`
	Cost        int       `json:"cost"`
	Refunded    bool      `json:"refunded"`
	OccurredAt  time.Time `json:"occurred_at"`
}
