package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

// callbackHandler handles one callback action and returns the notice shown
// in the callback answer.
type callbackHandler func(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb, msgUnknownCallback)
		return
	}

	cd := decodeCallback(cb.Data)

	var handle callbackHandler
	switch cd.Action {
	case actionDeck:
		handle = h.handleDeckCallback
	case actionShow:
		handle = h.handleShowCallback
	case actionRate:
		handle = h.handleRateCallback
	case actionMore:
		handle = h.handleMoreCallback
	case actionSubmit:
		handle = h.handleSubmitCallback
	case actionReset:
		handle = h.handleResetCallback
	default:
		h.answerCallback(cb, msgUnknownCallback)
		return
	}

	notice, err := handle(ctx, cb, cd)
	if err != nil {
		text, ok := userMessage(err)
		if !ok {
			h.logger.Error("callback error",
				zap.Int64("user_id", cb.From.ID),
				zap.String("data", cb.Data),
				zap.Error(err),
			)
			text = msgInternalError
		}
		notice = text
	}

	h.answerCallback(cb, notice)
}

// activeView returns the user's session if tag refers to it.
func (h *Handler) activeView(ctx context.Context, userID int64, tag string) (*service.StudyView, error) {
	view, err := h.studyService.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !matchesSession(tag, view.SessionID) {
		return nil, service.ErrStaleSession
	}
	return view, nil
}

func (h *Handler) handleDeckCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	deckID, err := singleParam(cd)
	if err != nil {
		return "", err
	}

	view, err := h.studyService.Start(ctx, cb.From.ID, deckID)
	if err != nil {
		return "", err
	}

	h.sendCard(cb.Message.Chat.ID, view)
	return "", nil
}

func (h *Handler) handleShowCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	tag, err := singleParam(cd)
	if err != nil {
		return "", err
	}

	view, err := h.activeView(ctx, cb.From.ID, tag)
	if err != nil {
		return "", err
	}
	if view.Card == nil || view.State.Answered {
		return msgAlreadyRated, nil
	}

	kb := buildRatingKeyboard(view.SessionID, view.Position, view.Card.ID)
	h.edit(cb, formatAnswer(view), &kb)
	return "", nil
}

func (h *Handler) handleRateCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	params, err := parseRateCallback(cd)
	if err != nil {
		return "", err
	}

	view, err := h.activeView(ctx, cb.From.ID, params.SessionTag)
	if err != nil {
		return "", err
	}

	question := ""
	if view.Card != nil && view.Card.ID == params.CardID {
		question = view.Card.Question
	}

	out, err := h.studyService.Rate(ctx, cb.From.ID, view.SessionID, params.CardID, params.Position, params.Quality)
	if err != nil {
		return "", err
	}

	h.edit(cb, formatRated(question, ratingSummary{
		Feedback: out.Result.Feedback,
		Points:   out.Result.Points,
	}), nil)
	h.sendCard(cb.Message.Chat.ID, out.View)

	return "", nil
}

func (h *Handler) handleMoreCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	tag, err := singleParam(cd)
	if err != nil {
		return "", err
	}

	view, err := h.activeView(ctx, cb.From.ID, tag)
	if err != nil {
		return "", err
	}

	next, err := h.studyService.Expand(ctx, cb.From.ID, view.SessionID, moreCardsBatch)
	if err != nil {
		return "", err
	}

	h.sendCard(cb.Message.Chat.ID, next)
	return "", nil
}

func (h *Handler) handleSubmitCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	tag, err := singleParam(cd)
	if err != nil {
		return "", err
	}

	view, err := h.activeView(ctx, cb.From.ID, tag)
	if err != nil {
		return "", err
	}

	text, kb, err := h.submit(ctx, cb.From.ID, view.SessionID)
	if err != nil {
		return "", err
	}

	h.edit(cb, text, &kb)
	return "", nil
}

func (h *Handler) handleResetCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	tag, err := singleParam(cd)
	if err != nil {
		return "", err
	}

	view, err := h.activeView(ctx, cb.From.ID, tag)
	if err != nil {
		return "", err
	}

	next, err := h.studyService.Reset(ctx, cb.From.ID, view.SessionID)
	if err != nil {
		return "", err
	}

	h.sendCard(cb.Message.Chat.ID, next)
	return "", nil
}

// edit replaces the text of the message the callback came from. A nil
// keyboard removes the buttons.
func (h *Handler) edit(cb *tgbotapi.CallbackQuery, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		edit.ReplyMarkup = kb
	}
	h.send(edit)
}
