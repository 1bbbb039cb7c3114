package app

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"telegram-quiz-bot/internal/domain"
)

// SessionStore owns the canonical user-id to session mapping. Persist writes
// the whole mapping as one durable record; Restore loads it at startup and
// yields an empty mapping when the image is absent or corrupt.
type SessionStore interface {
	Get(userID string) (domain.Session, bool)
	Put(userID string, s domain.Session)
	Remove(userID string)
	All() []domain.Session
	Persist() error
	Restore() error
}

// Controller orchestrates gateway events into engine transitions and store
// writes, and formats the outbound replies. A single mutex serializes the
// full read-modify-write-persist unit per event, so two rapid taps for the
// same user can never both advance from the same stale cursor.
type Controller struct {
	mu     sync.Mutex
	store  SessionStore
	engine *Engine
	topN   int

	subMu       sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewController(store SessionStore, engine *Engine, topN int) *Controller {
	return &Controller{
		store:       store,
		engine:      engine,
		topN:        topN,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Handle applies exactly one engine transition for the event and returns the
// replies to deliver. Mutations are persisted before Handle returns, so a
// crash between persist and delivery leaves state consistent even if the user
// never sees the reply. Persistence failures are logged and swallowed; the
// in-memory mapping stays authoritative.
func (c *Controller) Handle(ev domain.Event) []domain.Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case domain.Begin:
		return c.handleBegin(e)
	case domain.Text:
		return c.handleText(e)
	case domain.ButtonTap:
		return c.handleTap(e)
	case domain.Cancel:
		return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Quiz cancelled. Use /start to try again."}}
	case domain.Reset:
		return c.handleReset(e)
	case domain.ShowLeaderboard:
		lb := Rank(c.store.All(), c.topN, e.UserID)
		return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: formatLeaderboard(lb)}}
	default:
		return nil
	}
}

func (c *Controller) handleBegin(e domain.Begin) []domain.Action {
	c.store.Put(e.UserID, c.engine.Begin(e.UserID))
	c.persist()
	c.broadcast()
	return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Welcome! Please enter your name:"}}
}

func (c *Controller) handleText(e domain.Text) []domain.Action {
	sess, ok := c.store.Get(e.UserID)
	if !ok {
		return c.notFound(e.UserID)
	}

	switch sess.State() {
	case domain.StateNaming:
		if err := c.engine.SetName(&sess, e.Content); err != nil {
			if errors.Is(err, domain.ErrEmptyName) {
				return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Please enter a non-empty name:"}}
			}
			log.Printf("set name for %s: %v", e.UserID, err)
			return nil
		}
		c.store.Put(e.UserID, sess)
		c.persist()
		c.broadcast()

		actions := []domain.Action{domain.SendMessage{
			UserID: e.UserID,
			Text:   fmt.Sprintf("Hi %s! Let's start the quiz 🎉", sess.Name),
		}}
		// A zero-size round finishes before the first question.
		if q, ok := c.engine.CurrentQuestion(sess); ok {
			actions = append(actions, questionPrompt(e.UserID, sess, q))
		} else {
			actions = append(actions, c.finishSummary(e.UserID, sess))
		}
		return actions
	case domain.StateAnswering:
		return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Tap one of the answer buttons to continue."}}
	default:
		return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Quiz finished. Use /start to play again."}}
	}
}

func (c *Controller) handleTap(e domain.ButtonTap) []domain.Action {
	sess, ok := c.store.Get(e.UserID)
	if !ok {
		return c.notFound(e.UserID)
	}

	verdict, err := c.engine.Answer(&sess, e.Choice)
	switch {
	case errors.Is(err, domain.ErrNotAnswering):
		return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Please enter your name first:"}}
	case errors.Is(err, domain.ErrQuizFinished):
		// Late or duplicate tap after the round ended: nothing to mutate.
		return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Quiz already finished. Use /start to play again."}}
	case err != nil:
		log.Printf("answer for %s: %v", e.UserID, err)
		return nil
	}

	c.store.Put(e.UserID, sess)
	c.persist()
	c.broadcast()

	actions := []domain.Action{domain.EditLastMessage{UserID: e.UserID, Text: verdictText(verdict)}}
	if verdict.Finished {
		actions = append(actions, c.finishSummary(e.UserID, sess))
	} else if q, ok := c.engine.CurrentQuestion(sess); ok {
		actions = append(actions, questionPrompt(e.UserID, sess, q))
	}
	return actions
}

func (c *Controller) handleReset(e domain.Reset) []domain.Action {
	c.store.Remove(e.UserID)
	c.persist()
	c.broadcast()
	return []domain.Action{domain.SendMessage{UserID: e.UserID, Text: "Your progress has been reset. Use /start to play again."}}
}

// notFound is the reply for events referencing a user with no session, e.g. a
// button tap after a restart lost the mapping. The controller never fabricates
// a session here: that would award credit for a round the user never started.
func (c *Controller) notFound(userID string) []domain.Action {
	return []domain.Action{domain.SendMessage{UserID: userID, Text: "No quiz in progress. Use /start to begin."}}
}

func (c *Controller) persist() {
	if err := c.store.Persist(); err != nil {
		log.Printf("persist sessions: %v", err)
	}
}

// finishSummary combines the user's score with the leaderboard, emitted once
// the terminal transition is already persisted.
func (c *Controller) finishSummary(userID string, sess domain.Session) domain.Action {
	lb := Rank(c.store.All(), c.topN, userID)
	return domain.SendMessage{
		UserID: userID,
		Text:   fmt.Sprintf("Quiz finished! 🎉\nYour score: %d\n\n%s", sess.Score, formatLeaderboard(lb)),
	}
}

func questionPrompt(userID string, sess domain.Session, q domain.Question) domain.Action {
	return domain.SendQuestion{
		UserID:  userID,
		Text:    fmt.Sprintf("❓ Question %d/%d\n\n%s", sess.QIndex+1, len(sess.Quiz), q.Text),
		Options: q.Options,
	}
}

func verdictText(v Verdict) string {
	if v.Correct {
		return "✅ Correct!"
	}
	return fmt.Sprintf("❌ Wrong! Correct: %s", v.CorrectText)
}

func formatLeaderboard(lb domain.Leaderboard) string {
	if lb.Empty() {
		return "🏆 Leaderboard:\n\nNo participants yet. Be the first! 🎯"
	}
	lines := []string{"🏆 Leaderboard:"}
	for _, row := range lb.Rows {
		lines = append(lines, fmt.Sprintf("%d. %s - %d", row.Rank, row.Name, row.Score))
	}
	if lb.Requester != nil {
		lines = append(lines, "...")
		lines = append(lines, fmt.Sprintf("%d. %s - %d", lb.Requester.Rank, lb.Requester.Name, lb.Requester.Score))
	}
	return strings.Join(lines, "\n")
}

// Subscribe returns a channel fed with leaderboard snapshots after every
// mutating event, starting with the current one. The caller must invoke the
// returned cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()

	ch <- Rank(c.store.All(), c.topN, "")

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcast() {
	lb := Rank(c.store.All(), c.topN, "")

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so a slow client never blocks event handling.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
