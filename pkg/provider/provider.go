package provider

import (
	"context"
	"errors"
	"fmt"
)

// Request is the provider-agnostic generation request. The orchestrator never
// sees vendor field names or multipart layouts.
type Request struct {
	Kind            string // image, video, audio
	Prompt          string
	DurationSeconds int
	Width           int
	Height          int
	Params          map[string]interface{}
	InputFile       *InputFile
}

// InputFile is an optional binary input (e.g. an init image) forwarded to
// providers that accept file parts.
type InputFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Asset is a generation result. Data is set when the provider returned bytes
// inline; URL when the payload is provider-hosted.
type Asset struct {
	Data        []byte
	URL         string
	ContentType string
}

// SubmitResult is either an immediate result (synchronous providers) or a task
// id to poll (asynchronous providers). Exactly one field is set.
type SubmitResult struct {
	Immediate *Asset
	TaskID    string
}

type PollStatus string

const (
	PollStatusPending   PollStatus = "pending"
	PollStatusCompleted PollStatus = "completed"
	PollStatusFailed    PollStatus = "failed"
)

type PollResult struct {
	Status PollStatus

	// Asset is set when a completed poll response carries the result itself.
	Asset *Asset

	// NeedsFetch marks providers that decouple "metadata ready" from "bytes
	// ready": the caller must follow up with FetchContent.
	NeedsFetch bool

	ErrCode    string
	ErrMessage string
}

// JobClient normalizes heterogeneous generation providers behind one contract.
// Synchronous providers return Immediate from Submit and never see Poll.
type JobClient interface {
	Name() string
	Submit(ctx context.Context, req *Request) (*SubmitResult, error)
	Poll(ctx context.Context, taskID string) (*PollResult, error)
	FetchContent(ctx context.Context, taskID string) (*Asset, error)
}

// ErrStatusNotFound signals a 404 from a status endpoint. On the first poll
// attempt this means "job was instantaneous, asset already available", not a
// hard failure; providers are inconsistent about whether a status resource
// exists for instantaneous jobs.
var ErrStatusNotFound = errors.New("provider: status endpoint not found")

type ErrorKind int

const (
	// ErrorRejected: the provider refused the request outright (bad parameters).
	ErrorRejected ErrorKind = iota
	// ErrorPolicyBlocked: content-policy rejection. Never worth retrying as-is.
	ErrorPolicyBlocked
	// ErrorTransient: network failure or 5xx. Safe for the user to retry.
	ErrorTransient
)

type Error struct {
	ProviderName string
	Kind         ErrorKind
	Code         string
	Message      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.ProviderName, e.Message, e.Code)
}

// AsError extracts a provider *Error, wrapping unknown errors as transient.
func AsError(providerName string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{
		ProviderName: providerName,
		Kind:         ErrorTransient,
		Code:         "network_error",
		Message:      err.Error(),
	}
}

// policyCodes are provider error codes signalling content-policy rejection.
var policyCodes = map[string]bool{
	"content_policy_violation": true,
	"moderation_blocked":       true,
	"content_moderation":       true,
	"SAFETY":                   true,
	"invalid_prompts":          true,
}

func IsPolicyCode(code string) bool {
	return policyCodes[code]
}

// ClassifyHTTP maps an HTTP status plus a provider error code to an Error.
func ClassifyHTTP(providerName string, status int, code, message string) *Error {
	kind := ErrorRejected
	switch {
	case IsPolicyCode(code):
		kind = ErrorPolicyBlocked
	case status >= 500:
		kind = ErrorTransient
	case status == 429:
		kind = ErrorTransient
	}
	return &Error{
		ProviderName: providerName,
		Kind:         kind,
		Code:         code,
		Message:      message,
	}
}
