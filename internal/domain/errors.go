package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed job for callers, so they can tell "try again"
// from "change the input".
type ErrorKind string

const (
	ErrorKindContentPolicy   ErrorKind = "content_policy_violation"
	ErrorKindProviderRequest ErrorKind = "provider_request_failed"
	ErrorKindProviderTimeout ErrorKind = "provider_timeout"
	ErrorKindPipelineStage   ErrorKind = "pipeline_stage_failed"
)

// ContentPolicyError reports that the generative-video provider rejected the
// prompt or source content. Never retried.
type ContentPolicyError struct {
	ProviderMessage string
	Prompt          string
}

func (e *ContentPolicyError) Error() string {
	return fmt.Sprintf("provider rejected content: %s", e.ProviderMessage)
}

// ProviderRequestError reports a failed call to the generative-video provider.
// HTTPStatus decides retryability; ProviderCode and ProviderMessage carry the
// upstream payload verbatim.
type ProviderRequestError struct {
	HTTPStatus      int
	ProviderCode    int
	ProviderMessage string
	Prompt          string
}

func (e *ProviderRequestError) Error() string {
	if e.ProviderMessage != "" {
		return fmt.Sprintf("provider request failed (status %d): %s", e.HTTPStatus, e.ProviderMessage)
	}
	return fmt.Sprintf("provider request failed (status %d)", e.HTTPStatus)
}

// Retryable reports whether a fresh submission may succeed. 5xx are
// transient. Of the 4xx family only the timing-related statuses (408, 425)
// are worth a fresh attempt; the rest reject the request itself, and 429
// in particular would only be hammered harder by immediate resubmission.
func (e *ProviderRequestError) Retryable() bool {
	if e.HTTPStatus >= 500 {
		return true
	}
	switch e.HTTPStatus {
	case 408, 425:
		return true
	}
	return false
}

// ProviderTimeoutError reports that a provider task never reached a terminal
// state within the polling bound.
type ProviderTimeoutError struct {
	TaskID   string
	Attempts int
}

func (e *ProviderTimeoutError) Error() string {
	return fmt.Sprintf("provider task %s still pending after %d polls", e.TaskID, e.Attempts)
}

// StageError wraps a failure from one pipeline stage with the stage name.
// Stage failures are terminal for the job and never retried by the core.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// JobError is the structured error attached to a failed job.
type JobError struct {
	Kind            ErrorKind `json:"kind"`
	Message         string    `json:"message"`
	ProviderMessage string    `json:"providerMessage,omitempty"`
	ProviderCode    int       `json:"providerCode,omitempty"`
	Prompt          string    `json:"prompt,omitempty"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Classify normalizes any pipeline failure into a JobError. Provider error
// types keep their kind and upstream payload; everything else is a pipeline
// stage failure.
func Classify(err error) *JobError {
	if err == nil {
		return nil
	}

	var policy *ContentPolicyError
	if errors.As(err, &policy) {
		return &JobError{
			Kind:            ErrorKindContentPolicy,
			Message:         "the video provider rejected the content",
			ProviderMessage: policy.ProviderMessage,
			Prompt:          policy.Prompt,
		}
	}

	var request *ProviderRequestError
	if errors.As(err, &request) {
		return &JobError{
			Kind:            ErrorKindProviderRequest,
			Message:         fmt.Sprintf("the video provider returned status %d", request.HTTPStatus),
			ProviderMessage: request.ProviderMessage,
			ProviderCode:    request.ProviderCode,
			Prompt:          request.Prompt,
		}
	}

	var timeout *ProviderTimeoutError
	if errors.As(err, &timeout) {
		return &JobError{
			Kind:    ErrorKindProviderTimeout,
			Message: timeout.Error(),
		}
	}

	var stage *StageError
	if errors.As(err, &stage) {
		return &JobError{
			Kind:    ErrorKindPipelineStage,
			Message: stage.Error(),
		}
	}

	return &JobError{Kind: ErrorKindPipelineStage, Message: err.Error()}
}

// policyPhrases are fragments of provider messages that indicate a content
// policy rejection regardless of HTTP status.
var policyPhrases = []string{"content policy", "safety", "violat"}

// IsContentPolicyMessage reports whether a provider message describes a
// content policy rejection.
func IsContentPolicyMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, phrase := range policyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
