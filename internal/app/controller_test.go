package app_test

import (
	"math/rand"
	"strings"
	"testing"

	"telegram-quiz-bot/internal/app"
	"telegram-quiz-bot/internal/domain"
	"telegram-quiz-bot/internal/infra/memory"
)

// recordingStore counts Persist calls so tests can check every mutating event
// reaches durable storage before its reply is returned.
type recordingStore struct {
	app.SessionStore
	persists int
}

func (r *recordingStore) Persist() error {
	r.persists++
	return r.SessionStore.Persist()
}

func newTestController(t *testing.T, roundSize int) (*app.Controller, *recordingStore) {
	t.Helper()
	bank, err := app.NewBank(fiveQuestions(), roundSize)
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	engine := app.NewEngine(bank, roundSize, rand.New(rand.NewSource(1)))
	store := &recordingStore{SessionStore: memory.NewSessionStore("")}
	return app.NewController(store, engine, 10), store
}

func textOf(t *testing.T, a domain.Action) string {
	t.Helper()
	switch v := a.(type) {
	case domain.SendMessage:
		return v.Text
	case domain.SendQuestion:
		return v.Text
	case domain.EditLastMessage:
		return v.Text
	default:
		t.Fatalf("unexpected action %T", a)
		return ""
	}
}

func TestBeginNameAnswerFlow(t *testing.T) {
	c, store := newTestController(t, 2)

	actions := c.Handle(domain.Begin{UserID: "u1"})
	if len(actions) != 1 || !strings.Contains(textOf(t, actions[0]), "enter your name") {
		t.Fatalf("unexpected begin reply: %+v", actions)
	}
	if store.persists != 1 {
		t.Fatalf("begin must persist, got %d persists", store.persists)
	}

	actions = c.Handle(domain.Text{UserID: "u1", Content: "Ada"})
	if len(actions) != 2 {
		t.Fatalf("expected greeting plus question, got %+v", actions)
	}
	if !strings.Contains(textOf(t, actions[0]), "Hi Ada") {
		t.Fatalf("unexpected greeting: %s", textOf(t, actions[0]))
	}
	q, ok := actions[1].(domain.SendQuestion)
	if !ok || !strings.Contains(q.Text, "Question 1/2") {
		t.Fatalf("unexpected question prompt: %+v", actions[1])
	}

	sess, ok := store.Get("u1")
	if !ok {
		t.Fatalf("expected session in store")
	}

	// Correct answer: verdict edit plus the next question.
	actions = c.Handle(domain.ButtonTap{UserID: "u1", Choice: sess.Quiz[0].CorrectIndex})
	if len(actions) != 2 {
		t.Fatalf("expected verdict plus next question, got %+v", actions)
	}
	if _, ok := actions[0].(domain.EditLastMessage); !ok {
		t.Fatalf("verdict must edit the tapped message, got %T", actions[0])
	}
	if textOf(t, actions[0]) != "✅ Correct!" {
		t.Fatalf("unexpected verdict: %s", textOf(t, actions[0]))
	}

	// Wrong answer on the last question: verdict plus finish summary.
	sess, _ = store.Get("u1")
	wrong := (sess.Quiz[1].CorrectIndex + 1) % len(sess.Quiz[1].Options)
	actions = c.Handle(domain.ButtonTap{UserID: "u1", Choice: wrong})
	if len(actions) != 2 {
		t.Fatalf("expected verdict plus summary, got %+v", actions)
	}
	if !strings.Contains(textOf(t, actions[0]), "❌ Wrong! Correct:") {
		t.Fatalf("unexpected verdict: %s", textOf(t, actions[0]))
	}
	summary := textOf(t, actions[1])
	if !strings.Contains(summary, "Your score: 1") || !strings.Contains(summary, "1. Ada - 1") {
		t.Fatalf("unexpected finish summary:\n%s", summary)
	}

	sess, _ = store.Get("u1")
	if sess.State() != domain.StateFinished || sess.Score != 1 {
		t.Fatalf("unexpected terminal session %+v", sess)
	}
}

func TestTapWithoutSession(t *testing.T) {
	c, store := newTestController(t, 2)

	actions := c.Handle(domain.ButtonTap{UserID: "ghost", Choice: 0})
	if len(actions) != 1 || !strings.Contains(textOf(t, actions[0]), "/start") {
		t.Fatalf("expected guidance reply, got %+v", actions)
	}
	if len(store.All()) != 0 {
		t.Fatalf("tap without session must not create one")
	}
	if store.persists != 0 {
		t.Fatalf("tap without session must not persist")
	}
}

func TestLateTapLeavesSessionUntouched(t *testing.T) {
	c, store := newTestController(t, 2)

	c.Handle(domain.Begin{UserID: "u1"})
	c.Handle(domain.Text{UserID: "u1", Content: "Ada"})
	for i := 0; i < 2; i++ {
		sess, _ := store.Get("u1")
		c.Handle(domain.ButtonTap{UserID: "u1", Choice: sess.Quiz[sess.QIndex].CorrectIndex})
	}

	before, _ := store.Get("u1")
	actions := c.Handle(domain.ButtonTap{UserID: "u1", Choice: 0})
	if len(actions) != 1 || !strings.Contains(textOf(t, actions[0]), "already finished") {
		t.Fatalf("expected already-finished reply, got %+v", actions)
	}
	after, _ := store.Get("u1")
	if after.Score != before.Score || after.QIndex != before.QIndex {
		t.Fatalf("late tap mutated the session: before %+v after %+v", before, after)
	}
}

func TestEmptyNameRepromptsViaController(t *testing.T) {
	c, _ := newTestController(t, 2)

	c.Handle(domain.Begin{UserID: "u1"})
	actions := c.Handle(domain.Text{UserID: "u1", Content: "  "})
	if len(actions) != 1 || !strings.Contains(textOf(t, actions[0]), "non-empty name") {
		t.Fatalf("expected re-prompt, got %+v", actions)
	}
}

func TestCancelLeavesSessionIntact(t *testing.T) {
	c, store := newTestController(t, 2)

	c.Handle(domain.Begin{UserID: "u1"})
	c.Handle(domain.Text{UserID: "u1", Content: "Ada"})
	before, _ := store.Get("u1")

	actions := c.Handle(domain.Cancel{UserID: "u1"})
	if len(actions) != 1 || !strings.Contains(textOf(t, actions[0]), "cancelled") {
		t.Fatalf("expected cancel reply, got %+v", actions)
	}
	after, ok := store.Get("u1")
	if !ok || after.QIndex != before.QIndex || after.Score != before.Score {
		t.Fatalf("cancel mutated the session: before %+v after %+v", before, after)
	}
}

func TestResetRemovesSession(t *testing.T) {
	c, store := newTestController(t, 2)

	c.Handle(domain.Begin{UserID: "u1"})
	c.Handle(domain.Reset{UserID: "u1"})
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}

	// Reset with no session is a no-op, not an error.
	actions := c.Handle(domain.Reset{UserID: "u1"})
	if len(actions) != 1 {
		t.Fatalf("expected a reply, got %+v", actions)
	}
}

func TestShowLeaderboardEmpty(t *testing.T) {
	c, _ := newTestController(t, 2)

	actions := c.Handle(domain.ShowLeaderboard{UserID: "u1"})
	if len(actions) != 1 || !strings.Contains(textOf(t, actions[0]), "No participants yet") {
		t.Fatalf("expected empty leaderboard reply, got %+v", actions)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	c, _ := newTestController(t, 2)

	updates, cancel := c.Subscribe()
	defer cancel()

	<-updates // initial snapshot

	c.Handle(domain.Begin{UserID: "u1"})
	<-updates // begin broadcast; the session is unnamed so rows stay empty

	c.Handle(domain.Text{UserID: "u1", Content: "Ada"})
	lb := <-updates
	if len(lb.Rows) != 1 || lb.Rows[0].Name != "Ada" {
		t.Fatalf("expected Ada on the board, got %+v", lb.Rows)
	}
}
