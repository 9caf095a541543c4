package domain

import "errors"

var (
	// ErrNotFound is the generic absent-document error surfaced by stores.
	ErrNotFound = errors.New("document not found")
	// ErrQuizNotFound indicates the quiz exists in neither catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates no attempt is stored for a (quiz, user) pair.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrStoreUnavailable indicates the backing store could not be reached.
	// Never conflated with a not-found result.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrUnauthenticated indicates no valid user identity was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidUID indicates an empty or malformed attempt owner id.
	ErrInvalidUID = errors.New("invalid user id")
	// ErrInvalidInput indicates a malformed submission (empty answer keys,
	// negative time taken).
	ErrInvalidInput = errors.New("invalid input")
	// ErrDataIntegrity indicates stored quiz content violates its own
	// invariants, e.g. an MCQ answer that is not one of its options.
	ErrDataIntegrity = errors.New("data integrity violation")
)
