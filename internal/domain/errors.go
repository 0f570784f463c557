package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a screening session has not been started.
	ErrSessionNotFound = errors.New("screening session not found")
	// ErrInstrumentNotFound indicates the instrument content could not be loaded.
	ErrInstrumentNotFound = errors.New("instrument not found")
	// ErrQuestionOutOfRange indicates a question index outside 1..N.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrValueNotAllowed indicates a value outside the question's option set.
	ErrValueNotAllowed = errors.New("value not allowed for question")
	// ErrSessionCompleted indicates an answer arrived after the result was shown.
	ErrSessionCompleted = errors.New("screening session already completed")
	// ErrProviderNotFound indicates the provider record does not exist.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrInvalidCredentials indicates a failed provider login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
