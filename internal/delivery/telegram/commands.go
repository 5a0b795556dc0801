package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

func (h *Handler) decksHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		decks, err := h.deckService.GetAll(ctx)
		if err != nil {
			return err
		}

		if len(decks) == 0 {
			h.send(newPlainMessage(chatID, msgNoDecks))
			return nil
		}

		msg := newMessage(chatID, formatDecks(decks))
		msg.ReplyMarkup = buildDecksKeyboard(decks)
		h.send(msg)

		return nil
	}
}

func (h *Handler) studyHandler(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		deckID := strings.TrimSpace(args)
		if deckID == "" {
			h.send(newPlainMessage(chatID, msgUseStudy))
			return nil
		}

		view, err := h.studyService.Start(ctx, userID, deckID)
		if err != nil {
			return err
		}

		h.sendCard(chatID, view)
		return nil
	}
}

func (h *Handler) progressHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		view, err := h.studyService.Current(ctx, userID)
		if err != nil {
			return err
		}

		h.send(newMessage(chatID, formatProgress(view)))
		return nil
	}
}

func (h *Handler) moreHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		current, err := h.studyService.Current(ctx, userID)
		if err != nil {
			return err
		}

		view, err := h.studyService.Expand(ctx, userID, current.SessionID, moreCardsBatch)
		if err != nil {
			return err
		}

		// A session still in progress keeps its current card message.
		if current.Done {
			h.sendCard(chatID, view)
		} else {
			h.send(newMessage(chatID, formatProgress(view)))
		}
		return nil
	}
}

func (h *Handler) resetHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		current, err := h.studyService.Current(ctx, userID)
		if err != nil {
			return err
		}

		view, err := h.studyService.Reset(ctx, userID, current.SessionID)
		if err != nil {
			return err
		}

		h.sendCard(chatID, view)
		return nil
	}
}

func (h *Handler) submitHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		current, err := h.studyService.Current(ctx, userID)
		if err != nil {
			return err
		}

		text, kb, err := h.submit(ctx, userID, current.SessionID)
		if err != nil {
			return err
		}

		msg := newMessage(chatID, text)
		msg.ReplyMarkup = kb
		h.send(msg)
		return nil
	}
}

func (h *Handler) historyHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		entries, err := h.historyService.Recent(ctx, userID, maxHistoryEntries)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			h.send(newPlainMessage(chatID, msgNoHistory))
			return nil
		}

		h.send(newMessage(chatID, formatHistory(entries)))
		return nil
	}
}

// submit saves the session and renders the result. A failed save still shows
// the computed score together with a retry button.
func (h *Handler) submit(ctx context.Context, userID int64, sessionID string) (string, tgbotapi.InlineKeyboardMarkup, error) {
	res, err := h.studyService.Submit(ctx, userID, sessionID)

	var persistErr *entities.PersistenceError
	switch {
	case errors.As(err, &persistErr) && res != nil:
		text := formatSubmission(res) + "\n\n" + md("⚠️ "+msgSubmitFailed)
		return text, buildRetrySubmitKeyboard(sessionID), nil
	case err != nil:
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}

	return formatSubmission(res), buildAfterSubmitKeyboard(res.Submission.DeckID), nil
}

// sendCard sends the current card of the session, or the finish screen.
func (h *Handler) sendCard(chatID int64, view *service.StudyView) {
	if view.Done || view.Card == nil {
		msg := newMessage(chatID, formatFinished(view))
		msg.ReplyMarkup = buildFinishedKeyboard(view.SessionID)
		h.send(msg)
		return
	}

	msg := newMessage(chatID, formatQuestion(view))
	msg.ReplyMarkup = buildQuestionKeyboard(view.SessionID)
	h.send(msg)
}
