package app_test

import (
	"errors"
	"testing"

	"telegram-quiz-bot/internal/app"
	"telegram-quiz-bot/internal/domain"
)

func TestNewBankRejectsBadInput(t *testing.T) {
	cases := []struct {
		name      string
		questions []domain.Question
		roundSize int
		want      error
	}{
		{
			name:      "empty bank",
			questions: nil,
			roundSize: 1,
			want:      domain.ErrInvalidQuestion,
		},
		{
			name: "too few options",
			questions: []domain.Question{
				{Text: "q", Options: []string{"only"}, CorrectIndex: 0},
			},
			roundSize: 1,
			want:      domain.ErrInvalidQuestion,
		},
		{
			name: "correct index out of range",
			questions: []domain.Question{
				{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 2},
			},
			roundSize: 1,
			want:      domain.ErrInvalidQuestion,
		},
		{
			name: "round size exceeds bank",
			questions: []domain.Question{
				{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 0},
			},
			roundSize: 2,
			want:      domain.ErrBankExhausted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := app.NewBank(tc.questions, tc.roundSize)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewBankAcceptsValidPool(t *testing.T) {
	bank, err := app.NewBank(fiveQuestions(), 5)
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	if bank.Size() != 5 {
		t.Fatalf("expected size 5, got %d", bank.Size())
	}
}
