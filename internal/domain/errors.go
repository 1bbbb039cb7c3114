package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an event references a user with no session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyName is returned when the naming step receives blank text.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrQuizFinished is returned for a tap after the round already ended.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrNotAnswering is returned for a tap while no question is pending.
	ErrNotAnswering = errors.New("no question awaiting an answer")
	// ErrBankExhausted indicates the question bank is smaller than the round size.
	ErrBankExhausted = errors.New("question bank smaller than round size")
	// ErrInvalidQuestion indicates a malformed question record in the bank.
	ErrInvalidQuestion = errors.New("invalid question")
)
