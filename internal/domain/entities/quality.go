package entities

import "time"

// Quality is a 0-5 self-assessment of recall given for a card.
type Quality int

const (
	QualityForgot    Quality = 0 // nothing recalled
	QualityWrong     Quality = 1 // recalled something, but wrong
	QualityClose     Quality = 2 // almost, still a fail
	QualityEffortful Quality = 3 // correct with serious effort
	QualityEasy      Quality = 4 // correct after a short hesitation
	QualityPerfect   Quality = 5 // instant, perfect recall
)

// PassThreshold is the lowest quality that counts as a correct answer.
const PassThreshold = QualityEffortful

// FeedbackKey identifies the transient feedback message shown after a rating.
type FeedbackKey string

const (
	FeedbackForgot    FeedbackKey = "forgot"
	FeedbackWrong     FeedbackKey = "wrong"
	FeedbackClose     FeedbackKey = "close"
	FeedbackEffortful FeedbackKey = "effortful"
	FeedbackEasy      FeedbackKey = "easy"
	FeedbackPerfect   FeedbackKey = "perfect"
)

var feedbackByQuality = [...]FeedbackKey{
	QualityForgot:    FeedbackForgot,
	QualityWrong:     FeedbackWrong,
	QualityClose:     FeedbackClose,
	QualityEffortful: FeedbackEffortful,
	QualityEasy:      FeedbackEasy,
	QualityPerfect:   FeedbackPerfect,
}

// Valid reports whether q is on the 0-5 scale.
func (q Quality) Valid() bool {
	return q >= QualityForgot && q <= QualityPerfect
}

// IsCorrect reports whether q passes.
func (q Quality) IsCorrect() bool {
	return q >= PassThreshold
}

// Feedback returns the feedback message key for q.
func (q Quality) Feedback() FeedbackKey {
	if !q.Valid() {
		return ""
	}
	return feedbackByQuality[q]
}

// NextReviewHint suggests when a card should be seen again after its last rating.
// Failed or unrated cards come back in 10 minutes; passing ratings follow the
// 1, 3 and 6 day steps of the long-term schedule.
func NextReviewHint(last *Quality) time.Duration {
	if last == nil || !last.IsCorrect() {
		return 10 * time.Minute
	}

	switch *last {
	case QualityEffortful:
		return 24 * time.Hour
	case QualityEasy:
		return 3 * 24 * time.Hour
	default:
		return 6 * 24 * time.Hour
	}
}
