package domain

import "errors"

var (
	// ErrValidation is returned for malformed exam or question fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an unknown exam or question id.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the caller is absent or lacks the admin role.
	ErrUnauthorized = errors.New("not authorized")
	// ErrEmptyExam is returned when an attempt starts against an exam with no questions.
	ErrEmptyExam = errors.New("exam has no questions")
	// ErrNoPoints indicates scoring was requested for questions worth zero points in total.
	ErrNoPoints = errors.New("exam has zero total points")
	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("persistence failure")
	// ErrSessionState is returned when a session operation is called in the wrong state.
	ErrSessionState = errors.New("invalid session state")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Message maps an error to the single human-readable line shown to users.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "The exam or question details are invalid."
	case errors.Is(err, ErrNotFound):
		return "The requested exam could not be found."
	case errors.Is(err, ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, ErrEmptyExam):
		return "This exam has no questions yet."
	case errors.Is(err, ErrNoPoints):
		return "This exam is misconfigured: its questions are worth no points."
	case errors.Is(err, ErrPersistence):
		return "Could not save your data. Please try again later."
	case errors.Is(err, ErrSessionState):
		return "The exam session is not in a state that allows this."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	default:
		return "Something went wrong."
	}
}
