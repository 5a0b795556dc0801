package entities

import "time"

// CardSessionState tracks how a card has been rated within one study session.
type CardSessionState struct {
	Answered      bool        // a rating was recorded for the current visit
	LastQuality   *Quality    // most recent rating, nil until the first one
	Attempts      int         // ratings submitted for the card during the session
	PendingReview bool        // last rating was below PassThreshold
	LastRatedAt   time.Time   // timestamp of the most recent rating
	RatedAt       []time.Time // timestamps of all ratings, oldest first
	Points        int         // points credited to the card so far
	Extra         bool        // added after the session started, not part of the working set
}

// Record applies a rating to the state and returns the attempt number it was counted as.
func (s *CardSessionState) Record(q Quality, at time.Time) int {
	s.Attempts++
	s.Answered = true
	s.LastQuality = &q
	s.PendingReview = !q.IsCorrect()
	s.LastRatedAt = at
	s.RatedAt = append(s.RatedAt, at)
	return s.Attempts
}

// Mastered reports whether the card's current visit ended with a passing rating.
func (s *CardSessionState) Mastered() bool {
	return s.Answered && s.LastQuality != nil && s.LastQuality.IsCorrect()
}

// Clone returns a deep copy of the state.
func (s CardSessionState) Clone() CardSessionState {
	if s.LastQuality != nil {
		q := *s.LastQuality
		s.LastQuality = &q
	}
	if s.RatedAt != nil {
		s.RatedAt = append([]time.Time(nil), s.RatedAt...)
	}
	return s
}

// SessionAggregate is the read-only progress summary of a session.
type SessionAggregate struct {
	WorkingSetSize int // cards in the working set
	Mastered       int // working-set cards whose last rating passed
	PendingReview  int // working-set cards still owed a passing rating
	Percentage     int // Mastered / WorkingSetSize * 100, rounded
	TotalPoints    int // points credited across the working set
}
