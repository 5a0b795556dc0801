package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
)

var ratingLabels = [...]string{
	entities.QualityForgot:    "0 😶",
	entities.QualityWrong:     "1 ❌",
	entities.QualityClose:     "2 🤏",
	entities.QualityEffortful: "3 😓",
	entities.QualityEasy:      "4 🙂",
	entities.QualityPerfect:   "5 🚀",
}

// buildDecksKeyboard builds one button per deck.
func buildDecksKeyboard(decks []*entities.Deck) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(decks))
	for _, d := range decks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 "+d.Title, buildDeckCallback(d.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildQuestionKeyboard builds keyboard shown under the front side of a card.
func buildQuestionKeyboard(sessionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👀 Show answer", buildShowCallback(sessionID)),
		),
	)
}

// buildRatingKeyboard builds the 0-5 rating keyboard for a revealed card.
func buildRatingKeyboard(sessionID string, position int, cardID string) tgbotapi.InlineKeyboardMarkup {
	var failRow, passRow []tgbotapi.InlineKeyboardButton
	for q := entities.QualityForgot; q <= entities.QualityPerfect; q++ {
		btn := tgbotapi.NewInlineKeyboardButtonData(ratingLabels[q], buildRateCallback(sessionID, position, cardID, q))
		if q.IsCorrect() {
			passRow = append(passRow, btn)
		} else {
			failRow = append(failRow, btn)
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(failRow, passRow)
}

// buildFinishedKeyboard builds keyboard shown when the queue is exhausted.
func buildFinishedKeyboard(sessionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Submit", buildSubmitCallback(sessionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ More cards", buildMoreCallback(sessionID)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", buildResetCallback(sessionID)),
		),
	)
}

// buildRetrySubmitKeyboard is shown after a failed submission.
func buildRetrySubmitKeyboard(sessionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Try again", buildSubmitCallback(sessionID)),
		),
	)
}

// buildAfterSubmitKeyboard offers a new session on the same deck.
func buildAfterSubmitKeyboard(deckID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Study again", buildDeckCallback(deckID)),
		),
	)
}
