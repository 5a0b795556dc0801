package session

import (
	"github.com/samber/lo"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

// Metrics builds the final per-card metrics of the working set in deck order.
//
// Cards that failed and were not passed before the session ended are reported
// as incomplete rather than incorrect.
func (s *Session) Metrics() []entities.CardMetric {
	return lo.Map(s.workingSet, func(id string, _ int) entities.CardMetric {
		st := s.states[id].Clone()

		m := entities.CardMetric{
			CardID:         id,
			Attempts:       st.Attempts,
			LastQuality:    st.LastQuality,
			NextReviewHint: entities.NextReviewHint(st.LastQuality),
		}

		switch {
		case st.Attempts == 0:
			m.Outcome = entities.OutcomeUnseen
		case st.PendingReview:
			m.Outcome = entities.OutcomeIncomplete
		default:
			m.Outcome = entities.OutcomeMastered
		}

		if st.Attempts > 0 {
			at := st.LastRatedAt
			m.LastAttemptAt = &at
		}

		return m
	})
}
