package session

import (
	"math"

	"github.com/samber/lo"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

// Aggregate computes progress over the cards in workingSet.
// It has no side effects; identical input gives identical output.
func Aggregate(states map[string]entities.CardSessionState, workingSet []string) entities.SessionAggregate {
	agg := entities.SessionAggregate{WorkingSetSize: len(workingSet)}
	if len(workingSet) == 0 {
		return agg
	}

	agg.Mastered = lo.CountBy(workingSet, func(id string) bool {
		st := states[id]
		return st.Mastered()
	})
	agg.PendingReview = lo.CountBy(workingSet, func(id string) bool {
		return states[id].PendingReview
	})
	agg.TotalPoints = lo.SumBy(workingSet, func(id string) int {
		return states[id].Points
	})
	agg.Percentage = int(math.Round(float64(agg.Mastered) / float64(len(workingSet)) * 100))

	return agg
}
