package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

// Re-queued cards come back at least minRequeueOffset and at most
// maxRequeueOffset positions after the failed occurrence.
const (
	minRequeueOffset = 2
	maxRequeueOffset = 5
)

// RatingResult describes the effect of one SubmitRating call.
type RatingResult struct {
	CardID     string
	Quality    entities.Quality
	Attempt    int  // attempt number this rating was counted as
	Points     int  // points earned by this rating
	IsCorrect  bool // Quality >= PassThreshold
	Requeued   bool // the card was scheduled again
	RequeuedAt int  // queue index of the new occurrence, valid when Requeued
	Feedback   entities.FeedbackKey
}

// SubmitRating records q for the card at the current queue position.
//
// The card must be the current one and must not have been answered during this
// visit; otherwise ErrInvalidStateTransition is returned and nothing changes.
// A failing rating re-inserts the card a few positions ahead.
func (s *Session) SubmitRating(cardID string, q entities.Quality, at time.Time) (RatingResult, error) {
	if !q.Valid() {
		return RatingResult{}, fmt.Errorf("%w: got %d", entities.ErrInvalidQuality, q)
	}

	current, ok := s.Current()
	if !ok {
		return RatingResult{}, fmt.Errorf("%w: queue is exhausted", entities.ErrInvalidStateTransition)
	}
	if current != cardID {
		return RatingResult{}, fmt.Errorf("%w: card %q is not current (current is %q)",
			entities.ErrInvalidStateTransition, cardID, current)
	}

	st := s.states[cardID]
	if st.Answered {
		return RatingResult{}, fmt.Errorf("%w: card %q already answered",
			entities.ErrInvalidStateTransition, cardID)
	}

	attempt := st.Record(q, at)

	points := 0
	if !st.Extra {
		points = Points(attempt, q)
	}
	st.Points += points

	res := RatingResult{
		CardID:    cardID,
		Quality:   q,
		Attempt:   attempt,
		Points:    points,
		IsCorrect: q.IsCorrect(),
		Feedback:  q.Feedback(),
	}

	if !res.IsCorrect {
		res.Requeued = true
		res.RequeuedAt = s.requeue(cardID)
	}

	return res, nil
}

// requeue inserts cardID ahead of the current position and returns its index.
// Near the end of the queue, where fewer than minRequeueOffset positions are
// left, the card is appended instead.
func (s *Session) requeue(cardID string) int {
	remaining := len(s.queue) - s.pos
	maxOffset := min(remaining, maxRequeueOffset)

	at := len(s.queue)
	if maxOffset >= minRequeueOffset {
		at = s.pos + minRequeueOffset + s.rng.Intn(maxOffset-minRequeueOffset+1)
	}

	s.queue = slices.Insert(s.queue, at, cardID)
	return at
}

// Advance moves past the current, already answered occurrence and returns the
// next card. Landing on a card that is pending review resets its answered flag
// so it can be rated again; attempts and points are kept.
func (s *Session) Advance() (string, bool, error) {
	current, ok := s.Current()
	if !ok {
		return "", false, nil
	}
	if !s.states[current].Answered {
		return "", false, fmt.Errorf("%w: card %q has not been answered",
			entities.ErrInvalidStateTransition, current)
	}

	s.pos++

	next, ok := s.Current()
	if !ok {
		return "", false, nil
	}

	if st := s.states[next]; st.PendingReview {
		st.Answered = false
	}

	return next, true, nil
}

// Expand adds cards beyond the working set to the end of the queue in random
// order. Expanded cards earn no points and are not counted by Aggregate.
func (s *Session) Expand(cards []entities.Card) ([]string, error) {
	added := make([]string, 0, len(cards))
	seen := make(map[string]struct{}, len(cards))

	for _, c := range cards {
		if _, ok := s.cards[c.ID]; ok {
			return nil, fmt.Errorf("%w: %q", entities.ErrDuplicateCard, c.ID)
		}
		if _, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("%w: %q", entities.ErrDuplicateCard, c.ID)
		}
		seen[c.ID] = struct{}{}
		added = append(added, c.ID)
	}

	for _, c := range cards {
		s.cards[c.ID] = c
		s.states[c.ID] = &entities.CardSessionState{Extra: true}
	}

	order := slices.Clone(added)
	s.shuffle(order)
	s.queue = append(s.queue, order...)

	return added, nil
}
