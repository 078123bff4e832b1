package entity

import (
	"time"

	"github.com/google/uuid"
)

type UsageStat struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Provider        string
	Kind            GenerationKind
	Day             time.Time
	Jobs            int
	CreditsSpent    int
	CreditsRefunded int
}
