package service

import (
	"errors"
	"strings"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when dealer credentials do not match
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPackageNotFound is returned when a bid package is not found
	ErrPackageNotFound = errors.New("bid package not found")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrSpecItemNotFound is returned when a spec item is not found in the package
	ErrSpecItemNotFound = errors.New("spec item not found")

	// ErrInviteNotFound is returned when an invite or access token is unknown
	ErrInviteNotFound = errors.New("invite not found")

	// ErrInviteDisabled is returned when a disabled invite is used
	ErrInviteDisabled = errors.New("invite is disabled")

	// ErrBidNotFound is returned when a bid is not found
	ErrBidNotFound = errors.New("bid not found")

	// ErrBidNotEditable is returned when a submitted bid is edited
	ErrBidNotEditable = errors.New("bid has been submitted and can no longer be edited")

	// ErrBidAlreadySubmitted is returned when a submitted bid is submitted again
	ErrBidAlreadySubmitted = errors.New("bid has already been submitted")

	// ErrBidNotSubmitted is returned when reopening a bid that is still a draft
	ErrBidNotSubmitted = errors.New("bid has not been submitted")

	// ErrBidAwarded is returned when reopening the awarded bid
	ErrBidAwarded = errors.New("bid is awarded and cannot be reopened")
)

// ValidationError carries human-readable messages for the caller. Normalizer
// errors, request validation and persistence failures all surface in this shape.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Unwrap lets callers match ErrInvalidInput with errors.Is
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError builds a ValidationError from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// AwardErrorKey identifies why an award transition was refused
type AwardErrorKey string

const (
	AwardErrInvalidBid      AwardErrorKey = "invalid_bid"
	AwardErrInvalidBidState AwardErrorKey = "invalid_bid_state"
	AwardErrAlreadyAwarded  AwardErrorKey = "already_awarded"
	AwardErrSameBid         AwardErrorKey = "same_bid"
	AwardErrNoExisting      AwardErrorKey = "no_existing_award"
	AwardErrInvalidRecord   AwardErrorKey = "invalid_record"
)

// AwardError is the structured failure of an award transition
type AwardError struct {
	Key      AwardErrorKey
	Messages []string
}

func (e *AwardError) Error() string {
	if len(e.Messages) == 0 {
		return string(e.Key)
	}
	return string(e.Key) + ": " + strings.Join(e.Messages, "; ")
}

func newAwardError(key AwardErrorKey, messages ...string) *AwardError {
	return &AwardError{Key: key, Messages: messages}
}
