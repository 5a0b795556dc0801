package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling reports known errors to the user and logs the rest.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		if err == nil {
			return nil
		}

		if text, ok := userMessage(err); ok {
			h.logger.Debug("request rejected",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.sendError(chatID, text)
			return nil
		}

		h.logger.Error("handle error",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
		return nil
	}
}

// userMessage maps expected errors to the text shown to the user.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		return msgNoActiveSession, true
	case errors.Is(err, service.ErrStaleSession):
		return msgStaleSession, true
	case errors.Is(err, service.ErrNothingToExpand):
		return msgNothingToExpand, true
	case errors.Is(err, entities.ErrDeckNotFound):
		return msgDeckNotFound, true
	case errors.Is(err, entities.ErrEmptyDeck):
		return msgEmptyDeck, true
	case errors.Is(err, entities.ErrInvalidStateTransition):
		return msgAlreadyRated, true
	case errors.Is(err, errInvalidCallback):
		return msgInvalidCallback, true
	default:
		return "", false
	}
}
