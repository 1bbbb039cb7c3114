package app

import (
	"context"
	"fmt"
	"math/rand"

	"telegram-quiz-bot/internal/domain"
)

// QuestionLoader fetches the question pool from a backing source
// (YAML file, Postgres, or a Redis-cached wrapper around either).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Bank is the immutable question pool. It is validated once at startup;
// a bank that cannot satisfy the configured round size is a fatal
// configuration error, so sampling never fails at session creation.
type Bank struct {
	questions []domain.Question
}

// NewBank validates the loaded pool against the round size and freezes it.
func NewBank(questions []domain.Question, roundSize int) (*Bank, error) {
	if roundSize < 0 {
		return nil, fmt.Errorf("round size must not be negative, got %d", roundSize)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty question bank", domain.ErrInvalidQuestion)
	}
	for i, q := range questions {
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("%w: question %d needs at least 2 options, has %d", domain.ErrInvalidQuestion, i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, fmt.Errorf("%w: question %d correct index %d out of range", domain.ErrInvalidQuestion, i, q.CorrectIndex)
		}
	}
	if roundSize > len(questions) {
		return nil, fmt.Errorf("%w: need %d questions, bank has %d", domain.ErrBankExhausted, roundSize, len(questions))
	}
	return &Bank{questions: questions}, nil
}

// Size returns the number of questions in the pool.
func (b *Bank) Size() int {
	return len(b.questions)
}

// Sample draws k distinct questions without replacement using a
// Fisher-Yates shuffle over a copy of the pool.
func (b *Bank) Sample(rnd *rand.Rand, k int) []domain.Question {
	shuffled := make([]domain.Question, len(b.questions))
	copy(shuffled, b.questions)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}
