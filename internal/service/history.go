package service

import (
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

const defaultHistoryLimit = 5

// HistoryEntry summarizes one finished session.
type HistoryEntry struct {
	DeckID     string
	Score      int
	Mastered   int
	Total      int
	Percentage int
	Date       string
}

type HistoryService struct {
	repository SubmissionHistory
}

func NewHistoryService(repository SubmissionHistory) *HistoryService {
	return &HistoryService{repository: repository}
}

// Recent returns the latest finished sessions of the user, newest first.
func (s *HistoryService) Recent(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	subs, err := s.repository.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(subs))
	for _, sub := range subs {
		e := HistoryEntry{
			DeckID: sub.DeckID,
			Score:  sub.TotalSessionScore,
			Total:  len(sub.SelectedCardIDs),
			Date:   sub.Date.Format("2006-01-02 15:04"),
		}
		e.Mastered = lo.CountBy(sub.CardMetrics, func(m entities.CardMetric) bool {
			return m.Outcome == entities.OutcomeMastered
		})
		if e.Total > 0 {
			e.Percentage = int(math.Round(float64(e.Mastered) / float64(e.Total) * 100))
		}
		entries = append(entries, e)
	}

	return entries, nil
}
