package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashquiz-bot/internal/domain/entities"
	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

// maxConcurrentUpdates bounds how many updates are handled at once.
const maxConcurrentUpdates = 8

type StudyService interface {
	Start(ctx context.Context, userID int64, deckID string) (*service.StudyView, error)
	Current(ctx context.Context, userID int64) (*service.StudyView, error)
	Rate(ctx context.Context, userID int64, sessionID, cardID string, position int, q entities.Quality) (*service.RateOutcome, error)
	Expand(ctx context.Context, userID int64, sessionID string, n int) (*service.StudyView, error)
	Reset(ctx context.Context, userID int64, sessionID string) (*service.StudyView, error)
	Submit(ctx context.Context, userID int64, sessionID string) (*service.SubmitResult, error)
	Abandon(ctx context.Context, userID int64)
}

type DeckService interface {
	GetAll(ctx context.Context) ([]*entities.Deck, error)
}

type HistoryService interface {
	Recent(ctx context.Context, userID int64, limit int) ([]service.HistoryEntry, error)
}

type Handler struct {
	bot            *tgbotapi.BotAPI
	logger         *zap.Logger
	studyService   StudyService
	deckService    DeckService
	historyService HistoryService
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	studyService StudyService,
	deckService DeckService,
	historyService HistoryService,
) *Handler {
	return &Handler{
		bot:            bot,
		logger:         logger,
		studyService:   studyService,
		deckService:    deckService,
		historyService: historyService,
	}
}

// Run polls updates until ctx is cancelled. Updates are handled concurrently;
// updates of one user are serialized by the study service.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	p := pool.New().WithMaxGoroutines(maxConcurrentUpdates)
	defer p.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.Go(func() {
				h.handleUpdate(ctx, update)
			})
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if !update.Message.IsCommand() {
		h.send(newPlainMessage(chatID, msgUnknownCommand))
		return
	}

	switch update.Message.Command() {
	case "start":
		h.send(newPlainMessage(chatID, msgWelcome))

	case "help":
		h.send(newPlainMessage(chatID, msgHelp))

	case "decks":
		_ = h.withErrorHandling(h.decksHandler())(ctx, chatID)

	case "study":
		_ = h.withErrorHandling(h.studyHandler(userID, update.Message.CommandArguments()))(ctx, chatID)

	case "progress":
		_ = h.withErrorHandling(h.progressHandler(userID))(ctx, chatID)

	case "more":
		_ = h.withErrorHandling(h.moreHandler(userID))(ctx, chatID)

	case "reset":
		_ = h.withErrorHandling(h.resetHandler(userID))(ctx, chatID)

	case "submit":
		_ = h.withErrorHandling(h.submitHandler(userID))(ctx, chatID)

	case "stop":
		h.studyService.Abandon(ctx, userID)
		h.send(newPlainMessage(chatID, msgSessionStopped))

	case "history":
		_ = h.withErrorHandling(h.historyHandler(userID))(ctx, chatID)

	default:
		h.send(newPlainMessage(chatID, msgUnknownCommand))
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(newPlainMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}

// answerCallback removes the loading indicator, optionally showing text.
func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		h.logger.Warn("callback answer error",
			zap.String("callback_id", cb.ID),
			zap.Error(err),
		)
	}
}
