package store

import (
	"time"

	"github.com/google/uuid"
)

// JobState is the transient view of one in-flight generation attempt.
// It exists only for the lifetime of the request (plus a short TTL so the
// status endpoint can answer just after settlement).
type JobState struct {
	ReferenceId uuid.UUID
	UserId      uuid.UUID
	Kind        string
	Provider    string
	Status      string
	PollAttempt int
	UpdatedAt   time.Time
}
