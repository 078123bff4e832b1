package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateRequest struct {
	Kind            string                 `json:"kind" form:"kind" validate:"required,oneof=image video audio"`
	Provider        string                 `json:"provider" form:"provider" validate:"required"`
	Prompt          string                 `json:"prompt" form:"prompt" validate:"required,min=1,max=4000"`
	DurationSeconds int                    `json:"duration_seconds" form:"duration_seconds" validate:"omitempty,gt=0,lte=60"`
	Width           int                    `json:"width" form:"width" validate:"omitempty,gt=0,lte=4096"`
	Height          int                    `json:"height" form:"height" validate:"omitempty,gt=0,lte=4096"`
	ApiKey          string                 `json:"api_key" form:"api_key"` // optional caller-supplied provider key
	Params          map[string]interface{} `json:"params"`
}

type GenerateResponse struct {
	ReferenceId     uuid.UUID `json:"reference_id"`
	Kind            string    `json:"kind"`
	Provider        string    `json:"provider"`
	ResultURL       string    `json:"result_url"`
	ContentType     string    `json:"content_type,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	Degraded        bool      `json:"degraded"`
	Cost            int       `json:"cost"`
	NewBalance      int       `json:"new_balance"`
}

// GenerateErrorResponse is returned for every terminal failure. Refunded and
// NewBalance let the client reconcile its displayed credit count without a
// second round trip.
type GenerateErrorResponse struct {
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Refunded   bool   `json:"refunded"`
	NewBalance int    `json:"new_balance"`
}

type JobStatusResponse struct {
	ReferenceId uuid.UUID `json:"reference_id"`
	Status      string    `json:"status"`
	Kind        string    `json:"kind"`
	Provider    string    `json:"provider"`
	PollAttempt int       `json:"poll_attempt,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GenerationHistoryItem struct {
	ReferenceId uuid.UUID `json:"reference_id"`
	Kind        string    `json:"kind"`
	Provider    string    `json:"provider"`
	Prompt      string    `json:"prompt"`
	Cost        int       `json:"cost"`
	Status      string    `json:"status"`
	ErrorCode   *string   `json:"error_code,omitempty"`
	ResultURL   *string   `json:"result_url,omitempty"`
	Degraded    bool      `json:"degraded"`
	CreatedAt   time.Time `json:"created_at"`
}
