// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

// Error and info messages.
const (
	msgInternalError   = "Something went wrong. Please try again later."
	msgNoActiveSession = "You have no active session. Pick a deck with /decks."
	msgStaleSession    = "This card belongs to an older session."
	msgAlreadyRated    = "This card is already rated."
	msgDeckNotFound    = "Deck not found. See /decks for the list."
	msgEmptyDeck       = "This deck has no cards yet."
	msgNoDecks         = "No decks are available."
	msgNothingToExpand = "There are no more cards in this deck."
	msgUseStudy        = "Usage: /study <deck id>. See /decks."
	msgSessionStopped  = "Session stopped. Nothing was saved."
	msgNoHistory       = "You have not finished any session yet."
	msgSubmitFailed    = "Your result could not be saved. Press the button to try again."
	msgUnknownCommand  = "Unknown command. See /help."
	msgUnknownCallback = "This button is no longer supported."
	msgInvalidCallback = "Invalid button data."
)

const (
	moreCardsBatch    = 5
	progressBarLength = 10
	maxHistoryEntries = 5
)

var preEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")

const msgWelcome = `👋 Welcome to FlashQuiz!

Study flashcards in short sessions. For every card, recall the answer, reveal it and rate yourself from 0 to 5:

0 nothing, 1 wrong, 2 almost
3 hard, 4 good, 5 perfect

Cards rated below 3 come back a few cards later. Pick a deck with /decks.`

const msgHelp = `Commands:

/decks list available decks
/study <deck> start a session
/progress show session progress
/more add more cards from the deck
/reset start the session over
/submit finish and save the session
/stop drop the session without saving
/history recent results`

var feedbackText = map[entities.FeedbackKey]string{
	entities.FeedbackForgot:    "😶 No worries, this card will come back soon.",
	entities.FeedbackWrong:     "❌ Not quite. You will see it again in a moment.",
	entities.FeedbackClose:     "🤏 Almost there! One more round.",
	entities.FeedbackEffortful: "😓 Got it, with some effort.",
	entities.FeedbackEasy:      "🙂 Nice!",
	entities.FeedbackPerfect:   "🚀 Perfect recall!",
}

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

func buildProgressBar(current, total, length int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", length) + "]"
	}

	filled := min(current*length/total, length)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", length-filled) + "]"
}

// formatCardHeader renders the session header shown above each card.
func formatCardHeader(v *service.StudyView) string {
	var sb strings.Builder
	sb.WriteString(md("📚 " + v.DeckTitle))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("%s %d/%d mastered · %d left",
		buildProgressBar(v.Aggregate.Mastered, v.Aggregate.WorkingSetSize, progressBarLength),
		v.Aggregate.Mastered,
		v.Aggregate.WorkingSetSize,
		v.Remaining,
	)))
	return sb.String()
}

// formatQuestion renders the front side of the current card.
func formatQuestion(v *service.StudyView) string {
	c := v.Card

	var sb strings.Builder
	sb.WriteString(formatCardHeader(v))
	sb.WriteString("\n\n")

	if labels := cardLabels(c); labels != "" {
		sb.WriteString(italic(labels))
		sb.WriteString("\n")
	}
	if v.State.Attempts > 0 {
		sb.WriteString(italic(fmt.Sprintf("🔁 attempt %d", v.State.Attempts+1)))
		sb.WriteString("\n")
	}

	sb.WriteString(bold("❓ " + c.Question))
	return sb.String()
}

// formatAnswer renders both sides of the current card.
func formatAnswer(v *service.StudyView) string {
	c := v.Card

	var sb strings.Builder
	sb.WriteString(formatQuestion(v))
	sb.WriteString("\n\n")
	sb.WriteString(md("💡 " + c.Answer))

	if c.PracticeExample != "" {
		sb.WriteString("\n\n")
		sb.WriteString(bold("Example:"))
		sb.WriteString("\n")
		sb.WriteString("```\n")
		sb.WriteString(preEscaper.Replace(c.PracticeExample))
		sb.WriteString("\n```")
	}

	sb.WriteString("\n\n")
	sb.WriteString(italic("How well did you remember it?"))
	return sb.String()
}

func cardLabels(c *entities.Card) string {
	var labels []string
	if c.Category != "" {
		labels = append(labels, c.Category)
	}
	if c.Difficulty != "" {
		labels = append(labels, c.Difficulty)
	}
	return strings.Join(labels, " · ")
}

// formatRated renders a card after it was rated.
func formatRated(question string, res ratingSummary) string {
	var sb strings.Builder
	sb.WriteString(bold("❓ " + question))
	sb.WriteString("\n\n")
	sb.WriteString(md(feedbackText[res.Feedback]))
	if res.Points > 0 {
		sb.WriteString(" ")
		sb.WriteString(bold(fmt.Sprintf("+%d", res.Points)))
	}
	return sb.String()
}

// ratingSummary holds the parts of a rating shown to the user.
type ratingSummary struct {
	Feedback entities.FeedbackKey
	Points   int
}

// formatFinished is shown when every card in the queue has been answered.
func formatFinished(v *service.StudyView) string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		bold("🏁 All cards answered!"),
		formatAggregate(v.Aggregate),
		md("Submit to save your result, or add more cards."),
	)
}

func formatAggregate(a entities.SessionAggregate) string {
	return strings.Join([]string{
		md(buildProgressBar(a.Mastered, a.WorkingSetSize, progressBarLength)),
		md(fmt.Sprintf("✅ Mastered: %d / %d (%d%%)", a.Mastered, a.WorkingSetSize, a.Percentage)),
		md(fmt.Sprintf("🔁 Pending review: %d", a.PendingReview)),
		md(fmt.Sprintf("⭐ Points: %d", a.TotalPoints)),
	}, "\n")
}

// formatProgress renders the /progress view of an active session.
func formatProgress(v *service.StudyView) string {
	return fmt.Sprintf(
		"%s\n\n%s\n%s",
		md("📊 "+v.DeckTitle),
		formatAggregate(v.Aggregate),
		md(fmt.Sprintf("🃏 Cards left in queue: %d", v.Remaining)),
	)
}

// formatSubmission renders the final result of a session.
func formatSubmission(res *service.SubmitResult) string {
	var sb strings.Builder
	sb.WriteString(bold("🎉 Session complete!"))
	sb.WriteString("\n\n")
	sb.WriteString(formatAggregate(res.Aggregate))

	var review []string
	for _, m := range res.Submission.CardMetrics {
		if m.Outcome != entities.OutcomeMastered {
			review = append(review, fmt.Sprintf("• %s (%s, again in %s)", m.CardID, m.Outcome, formatHint(m.NextReviewHint)))
		}
	}
	if len(review) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(bold("Review next:"))
		sb.WriteString("\n")
		sb.WriteString(md(strings.Join(review, "\n")))
	}

	return sb.String()
}

func formatHint(d time.Duration) string {
	if d >= 24*time.Hour {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}

// formatDecks renders the list of decks.
func formatDecks(decks []*entities.Deck) string {
	var sb strings.Builder
	sb.WriteString(bold("📚 Decks"))
	sb.WriteString("\n")
	for _, d := range decks {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("• %s (%s), %d cards", d.Title, d.ID, len(d.Cards))))
	}
	return sb.String()
}

// formatHistory renders recent results.
func formatHistory(entries []service.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString(bold("🗂 Recent sessions"))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("%s · %s · %d/%d (%d%%) · %d pts",
			e.Date, e.DeckID, e.Mastered, e.Total, e.Percentage, e.Score)))
	}
	return sb.String()
}
