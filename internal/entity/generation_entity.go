package entity

import (
	"time"

	"github.com/google/uuid"
)

type GenerationKind string

const (
	GenerationKindImage GenerationKind = "image"
	GenerationKindVideo GenerationKind = "video"
	GenerationKindAudio GenerationKind = "audio"
)

// JobStatus tracks one in-flight generation attempt. Terminal states are
// completed, failed and timed_out.
type JobStatus string

const (
	JobStatusReserved  JobStatus = "reserved"
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusPolling   JobStatus = "polling"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
)

type GenerationRecord struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	ReferenceId uuid.UUID
	Kind        GenerationKind
	Provider    string
	Prompt      string
	Params      map[string]interface{}
	Cost        int
	Status      JobStatus
	ErrorCode   *string
	ResultURL   *string
	ContentType *string
	SizeBytes   *int64
	Degraded    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
