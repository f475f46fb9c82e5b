package domain

import "errors"

// Sentinel errors returned by services. Handlers translate them to HTTP
// status codes by identity; anything else maps to a 500.

var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this name already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Contest errors
	ErrContestNotFound = errors.New("contest not found")
	ErrProblemNotFound = errors.New("problem not found")

	// Judge errors - each one terminates a single submission attempt
	ErrOrganizerSubmission    = errors.New("organizers cannot submit to their own active contest")
	ErrSubmissionLimitReached = errors.New("submission limit for this problem reached")
	ErrInvalidAnswerFormat    = errors.New("answer must be a non-negative integer")

	// General errors
	ErrInternalServer = errors.New("internal server error")
)

// DomainError carries a message alongside the underlying cause. Sentinel
// comparisons keep working through Unwrap, so wrapping never changes how
// an error is classified, only what it reads like in logs.
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WrapError annotates an error with context, passing nil through untouched
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{
		Err:     err,
		Message: message,
	}
}
