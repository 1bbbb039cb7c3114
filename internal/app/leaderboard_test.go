package app_test

import (
	"fmt"
	"testing"

	"telegram-quiz-bot/internal/app"
	"telegram-quiz-bot/internal/domain"
)

func TestRankSortsDescendingStable(t *testing.T) {
	sessions := []domain.Session{
		{UserID: "u1", Name: "Alice", Score: 2},
		{UserID: "u2", Name: "Bob", Score: 5},
		{UserID: "u3", Name: "Carol", Score: 2},
	}

	lb := app.Rank(sessions, 10, "")
	if len(lb.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lb.Rows))
	}
	wantNames := []string{"Bob", "Alice", "Carol"}
	for i, row := range lb.Rows {
		if row.Name != wantNames[i] {
			t.Fatalf("row %d: expected %s, got %s", i, wantNames[i], row.Name)
		}
		if row.Rank != i+1 {
			t.Fatalf("row %d: expected rank %d, got %d", i, i+1, row.Rank)
		}
	}
}

func TestRankRequesterOutsideTop(t *testing.T) {
	// 12 finished sessions with strictly decreasing scores; the requester
	// sits at rank 11.
	sessions := make([]domain.Session, 0, 12)
	for i := 0; i < 12; i++ {
		sessions = append(sessions, domain.Session{
			UserID: fmt.Sprintf("u%d", i+1),
			Name:   fmt.Sprintf("player%d", i+1),
			Score:  12 - i,
		})
	}

	lb := app.Rank(sessions, 10, "u11")
	if len(lb.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lb.Rows))
	}
	if lb.Requester == nil {
		t.Fatalf("expected requester row")
	}
	if lb.Requester.Rank != 11 || lb.Requester.Name != "player11" || lb.Requester.Score != 2 {
		t.Fatalf("unexpected requester row %+v", lb.Requester)
	}
}

func TestRankRequesterInsideTop(t *testing.T) {
	sessions := []domain.Session{
		{UserID: "u1", Name: "Alice", Score: 3},
		{UserID: "u2", Name: "Bob", Score: 1},
	}

	lb := app.Rank(sessions, 10, "u2")
	if lb.Requester != nil {
		t.Fatalf("requester already visible, expected no extra row, got %+v", lb.Requester)
	}
}

func TestRankEmptySnapshot(t *testing.T) {
	lb := app.Rank(nil, 10, "u1")
	if !lb.Empty() {
		t.Fatalf("expected empty leaderboard, got %+v", lb)
	}
}

func TestRankSkipsUnnamedSessions(t *testing.T) {
	sessions := []domain.Session{
		{UserID: "u1", Name: "", Score: 0},
		{UserID: "u2", Name: "Bob", Score: 1},
	}

	lb := app.Rank(sessions, 10, "")
	if len(lb.Rows) != 1 || lb.Rows[0].Name != "Bob" {
		t.Fatalf("expected only named sessions ranked, got %+v", lb.Rows)
	}
}
