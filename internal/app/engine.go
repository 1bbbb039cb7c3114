package app

import (
	"math/rand"
	"strings"

	"telegram-quiz-bot/internal/domain"
)

// Engine drives a single session through the naming/answering/finished flow.
// It is transport-agnostic: callers fetch a session from the store, apply one
// transition, and write the result back before handling the next event.
type Engine struct {
	bank      *Bank
	roundSize int
	rnd       *rand.Rand
}

// NewEngine builds an engine over a validated bank. rnd feeds question
// sampling; tests pass a seeded source for determinism.
func NewEngine(bank *Bank, roundSize int, rnd *rand.Rand) *Engine {
	return &Engine{bank: bank, roundSize: roundSize, rnd: rnd}
}

// Begin returns a fresh session in the naming state. Any previous session for
// the user is simply overwritten by the caller; prior progress is discarded.
func (e *Engine) Begin(userID string) domain.Session {
	return domain.Session{UserID: userID}
}

// SetName registers the user's name and assigns the round. The quiz is drawn
// once, here, and fixed for the session's lifetime. Blank names re-prompt.
func (e *Engine) SetName(s *domain.Session, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}
	s.Name = name
	s.Quiz = e.bank.Sample(e.rnd, e.roundSize)
	s.QIndex = 0
	return nil
}

// Verdict is the outcome of answering one question.
type Verdict struct {
	Correct     bool
	CorrectText string // text of the right option, for the wrong-answer reply
	Finished    bool   // the tap consumed the last question of the round
}

// Answer resolves the current question against the tapped choice. An
// out-of-range choice is never equal to the correct index, so it scores as
// incorrect rather than being rejected; the cursor advances on any tap.
// Score comparison and cursor advance happen together, within one call.
func (e *Engine) Answer(s *domain.Session, choice int) (Verdict, error) {
	switch s.State() {
	case domain.StateNaming:
		return Verdict{}, domain.ErrNotAnswering
	case domain.StateFinished:
		return Verdict{}, domain.ErrQuizFinished
	}

	q := s.Quiz[s.QIndex]
	v := Verdict{
		Correct:     choice == q.CorrectIndex,
		CorrectText: q.Options[q.CorrectIndex],
	}
	if v.Correct {
		s.Score++
	}
	s.QIndex++
	v.Finished = s.QIndex == len(s.Quiz)
	return v, nil
}

// CurrentQuestion returns the question at the cursor, or false when the
// session has no pending question.
func (e *Engine) CurrentQuestion(s domain.Session) (domain.Question, bool) {
	if s.State() != domain.StateAnswering {
		return domain.Question{}, false
	}
	return s.Quiz[s.QIndex], true
}
