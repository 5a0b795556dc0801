package entities

import "time"

// CardOutcome describes how a card ended when the session was submitted.
type CardOutcome string

const (
	OutcomeMastered   CardOutcome = "mastered"   // last rating passed
	OutcomeIncomplete CardOutcome = "incomplete" // failed and never passed afterwards
	OutcomeUnseen     CardOutcome = "unseen"     // never rated
)

// CardMetric is the final per-card result handed to the response sink.
type CardMetric struct {
	CardID         string        // rated card
	Attempts       int           // ratings given during the session
	LastQuality    *Quality      // nil for unseen cards
	NextReviewHint time.Duration // suggested delay until the next review
	LastAttemptAt  *time.Time    // nil for unseen cards
	Outcome        CardOutcome   // final status of the card
}

// CardProgress is the running per-card metric synced while a session is in progress.
type CardProgress struct {
	SessionID   string
	UserID      int64
	DeckID      string
	CardID      string
	Attempts    int
	LastQuality Quality
	Points      int
	Elapsed     time.Duration // time between presenting the card and the rating
	RatedAt     time.Time
}

// Submission is the payload persisted when a study session ends.
type Submission struct {
	SessionID         string       // identifier of the study session
	UserID            int64        // user who studied
	DeckID            string       // studied deck
	SelectedCardIDs   []string     // working set, in deck order
	TotalSessionScore int          // points earned in the working set
	CardMetrics       []CardMetric // one entry per working-set card
	Date              time.Time    // submission timestamp
}
