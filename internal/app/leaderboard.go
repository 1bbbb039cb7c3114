package app

import (
	"sort"

	"telegram-quiz-bot/internal/domain"
)

// Rank projects a session snapshot into the leaderboard: stable sort
// descending by score, so equal scores keep their snapshot order. The top
// topN rows are returned; if the requester ranks below them, their own row is
// attached separately so callers can render it after an ellipsis.
func Rank(sessions []domain.Session, topN int, requesterID string) domain.Leaderboard {
	sorted := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		// Sessions still in the naming step have no presentable identity yet.
		if s.Name != "" {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	lb := domain.Leaderboard{}
	for i, s := range sorted {
		row := domain.LeaderboardRow{Rank: i + 1, Name: s.Name, Score: s.Score}
		if i < topN {
			lb.Rows = append(lb.Rows, row)
		} else if s.UserID == requesterID {
			r := row
			lb.Requester = &r
		}
	}
	return lb
}
