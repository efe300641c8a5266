package domain

import "errors"

var (
	// ErrQuizNotFound indicates no quiz exists for the requested id or date.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizExists is returned when a second writer tries to create a quiz
	// for a date that already has one.
	ErrQuizExists = errors.New("quiz already exists for date")
	// ErrAlreadySubmitted is returned when a user already has an attempt for
	// a quiz. It marks the alternate success path, not a failure.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrAttemptNotFound indicates no attempt exists for a (quiz, user) pair.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrUserNotFound indicates the user directory has no matching user.
	ErrUserNotFound = errors.New("user must exist")
	// ErrSessionNotFound indicates an unknown or expired session token.
	ErrSessionNotFound = errors.New("session not found")
)
